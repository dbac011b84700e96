package gallery

import (
	"context"
	"image"
	"sync"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

// CellState tracks a cell's progressive delivery phase
type CellState int

const (
	CellPlaceholder CellState = iota
	CellThumbnailReady
	CellFullLoading
	CellFullReady
)

func (s CellState) String() string {
	switch s {
	case CellPlaceholder:
		return "placeholder"
	case CellThumbnailReady:
		return "thumbnail"
	case CellFullLoading:
		return "full-loading"
	case CellFullReady:
		return "full"
	}
	return "unknown"
}

// CellVisual is the double-buffered visual state of one grid cell (and,
// reused, of the modal's large image).
//
// Two layers: back holds the best low-tier content and is seeded
// synchronously on mount so the first paint is never empty; front holds
// the full-resolution image. The front only counts as ready after the
// renderer has committed one frame containing it, at which point the back
// layer is hidden but kept resident. Dropping the back layer entirely is
// what causes flashes on fast re-renders; hiding, not removing, is the
// contract.
//
// Transitions never regress: a failed full-resolution load leaves the cell
// at its thumbnail indefinitely rather than showing nothing.
type CellVisual struct {
	mu sync.Mutex

	imageID string
	state   CellState

	back  image.Image
	front image.Image

	// Front has been painted once but the frame is not yet committed
	frontPending bool
}

// NewCellVisual creates a cell for rec and seeds the back layer from the
// best already-available source: the record's inline tiny payload, else an
// in-memory decoded thumbnail, else nothing. Seeding is synchronous; it
// must complete before the cell's first paint.
func NewCellVisual(rec feed.ImageRecord, cache *imagecache.Cache) *CellVisual {
	c := &CellVisual{imageID: rec.ID, state: CellPlaceholder}
	if rec.URLs.InlineTiny != "" {
		if img, err := imagecache.DecodeInline(rec.URLs.InlineTiny); err == nil {
			c.back = img
		} else {
			debug.Log(debug.UI, "inline seed failed for %s: %v", rec.ID, err)
		}
	}
	if c.back == nil && rec.URLs.Thumbnail != "" {
		if img, ok := cache.DecodedImage(rec.URLs.Thumbnail); ok {
			c.back = img
			c.state = CellThumbnailReady
		}
	}
	return c
}

// ImageID returns the id this cell is bound to
func (c *CellVisual) ImageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageID
}

// State returns the current delivery phase
func (c *CellVisual) State() CellState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Back returns the back-layer image and whether it should be painted.
// Once the front is committed the back is hidden but still resident.
func (c *CellVisual) Back() (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.back, c.back != nil && c.state != CellFullReady
}

// Front returns the front-layer image, nil until the full tier decoded
func (c *CellVisual) Front() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.front
}

// FrontPending reports that the front image exists but no frame containing
// it has been committed yet. The renderer paints the front underneath the
// still-visible back layer while pending.
func (c *CellVisual) FrontPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frontPending
}

// MarkFrameCommitted is called by the renderer after a frame containing
// the pending front layer has actually been committed. Only then does the
// cell reach CellFullReady and hide its back layer.
func (c *CellVisual) MarkFrameCommitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frontPending {
		return
	}
	c.frontPending = false
	c.state = CellFullReady
	debug.Log(debug.UI, "cell %s full-ready", c.imageID)
}

// setThumbnail upgrades the back layer. Ignored once the full tier is in
// play; a late thumbnail must not repaint over a full image.
func (c *CellVisual) setThumbnail(id string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.imageID || img == nil {
		return
	}
	if c.state != CellPlaceholder && c.state != CellThumbnailReady {
		return
	}
	c.back = img
	c.state = CellThumbnailReady
}

// setFull installs the decoded full image as the pending front layer
func (c *CellVisual) setFull(id string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.imageID || img == nil {
		return
	}
	if c.state == CellFullReady {
		return
	}
	c.front = img
	c.frontPending = true
	c.state = CellFullLoading
}

// markFullLoading records that the full tier fetch has begun
func (c *CellVisual) markFullLoading(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.imageID {
		return
	}
	if c.state == CellThumbnailReady || c.state == CellPlaceholder {
		c.state = CellFullLoading
	}
}

// Load drives the cell through its tiers: thumbnail decoded into the back
// layer, then the full tier decoded into the pending front layer. invalidate
// is called after every applied change so the host can request a repaint.
// Completions landing after the cell was rebound to another image are
// discarded by the id checks above.
func (c *CellVisual) Load(ctx context.Context, cache *imagecache.Cache, rec feed.ImageRecord, invalidate func()) {
	c.LoadTiers(ctx, cache, rec, rec.FullURL(), invalidate)
}

// LoadTiers is Load with an explicit front-layer URL; the modal uses the
// detail tier where the grid uses the regular tier.
func (c *CellVisual) LoadTiers(ctx context.Context, cache *imagecache.Cache, rec feed.ImageRecord, frontURL string, invalidate func()) {
	id := rec.ID
	go func() {
		if url := rec.URLs.Thumbnail; url != "" {
			thumb := cache.Preload(ctx, url, imagecache.Options{})
			if err := thumb.Wait(ctx); err == nil && thumb.Image() != nil {
				c.setThumbnail(id, thumb.Image())
				invalidate()
			} else if err != nil {
				debug.Log(debug.CACHE, "thumbnail load failed for %s: %v", id, err)
			}
		}

		url := frontURL
		if url == "" {
			return
		}
		c.markFullLoading(id)
		full := cache.Preload(ctx, url, imagecache.Options{})
		if err := full.Wait(ctx); err != nil || full.Image() == nil {
			// Stay at the thumbnail; failures never blank a cell
			debug.Log(debug.CACHE, "full load failed for %s: %v", id, err)
			return
		}
		c.setFull(id, full.Image())
		invalidate()
	}()
}
