package gallery

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/config"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

// Controller owns the image list and orchestrates layout, dimension
// resolution, load scheduling and modal navigation. Records are immutable
// once set; a refresh replaces the slice wholesale. All derived state
// (cells, visuals) is recomputed from the records, never patched.
type Controller struct {
	mu sync.Mutex

	records []feed.ImageRecord
	cells   []LayoutCell
	params  LayoutParams
	visuals map[string]*CellVisual

	containerWidth int
	scrollTop      int
	viewportHeight int

	// Modal state: selected is an index into records, -1 when closed.
	// savedScroll freezes the grid offset for the modal's duration.
	selected    int
	savedScroll int

	grid  config.GridConfig
	bands []config.BandConfig

	cache     *imagecache.Cache
	resolver  *Resolver
	scheduler *Scheduler

	invalidate func()
	onSelect   func(index int)
	onNavigate func(index int)

	// Forwarded resolved dimensions, used for persistence
	dimensionSink func(id string, size image.Point)

	resizeMu    sync.Mutex
	resizeTimer *time.Timer
	debounce    time.Duration

	ctx context.Context
}

// ControllerOptions wires a Controller's collaborators and callbacks
type ControllerOptions struct {
	Cache      *imagecache.Cache
	Resolver   *Resolver
	Grid       config.GridConfig
	Bands      []config.BandConfig
	Network    config.NetworkConfig
	EagerCells int
	Debounce   time.Duration
	Invalidate func()                              // Repaint request, must be safe from any goroutine
	OnSelect   func(index int)                     // Fired after the detail image is cached
	OnNavigate func(index int)                     // Fired on modal navigation
	Dimensions func(id string, size image.Point)   // Optional persistence hook
}

// NewController builds a controller and starts consuming dimension updates
func NewController(ctx context.Context, opts ControllerOptions) *Controller {
	if opts.Invalidate == nil {
		opts.Invalidate = func() {}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 150 * time.Millisecond
	}
	c := &Controller{
		visuals:       make(map[string]*CellVisual),
		selected:      -1,
		grid:          opts.Grid,
		bands:         opts.Bands,
		cache:         opts.Cache,
		resolver:      opts.Resolver,
		invalidate:    opts.Invalidate,
		onSelect:      opts.OnSelect,
		onNavigate:    opts.OnNavigate,
		dimensionSink: opts.Dimensions,
		debounce:      opts.Debounce,
		ctx:           ctx,
	}
	c.scheduler = NewScheduler(opts.Cache, opts.Network, opts.EagerCells, c.loadCell)

	go c.consumeDimensions(ctx)
	return c
}

// consumeDimensions folds resolver results into the layout as they arrive
func (c *Controller) consumeDimensions(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-c.resolver.Updates():
			if c.dimensionSink != nil {
				c.dimensionSink(update.ImageID, update.Size)
			}
			c.mu.Lock()
			c.relayoutLocked()
			c.mu.Unlock()
			c.invalidate()
		}
	}
}

// SetRecords replaces the image list wholesale (initial load, category
// change, refresh). Cell visuals are rebuilt and seeded synchronously so
// nothing paints empty, the scheduler forgets fired cells, and the first
// screenful loads eagerly.
func (c *Controller) SetRecords(records []feed.ImageRecord) {
	c.mu.Lock()
	c.records = records
	c.visuals = make(map[string]*CellVisual, len(records))
	for _, rec := range records {
		c.visuals[rec.ID] = NewCellVisual(rec, c.cache)
	}
	c.selected = -1
	c.relayoutLocked()
	c.mu.Unlock()

	c.scheduler.Reset()
	c.resolver.ResolveAll(c.ctx, records)
	c.scheduler.MountEager(records)
	c.observeViewport()
	c.invalidate()
	debug.Log(debug.APP, "record list replaced: %d images", len(records))
}

// AppendRecords adds a fetched page to the end of the list. Existing cells
// keep their fired/visual state; only the new records are seeded and
// resolved.
func (c *Controller) AppendRecords(records []feed.ImageRecord) {
	if len(records) == 0 {
		return
	}
	c.mu.Lock()
	for _, rec := range records {
		if _, ok := c.visuals[rec.ID]; !ok {
			c.visuals[rec.ID] = NewCellVisual(rec, c.cache)
		}
	}
	c.records = append(c.records, records...)
	c.relayoutLocked()
	c.mu.Unlock()

	c.resolver.ResolveAll(c.ctx, records)
	c.observeViewport()
	c.invalidate()
	debug.Log(debug.APP, "appended %d images, %d total", len(records), len(c.records))
}

// Resize coalesces bursts of container-width changes into one layout pass
// shortly after the last event.
func (c *Controller) Resize(containerWidth int) {
	c.mu.Lock()
	same := c.containerWidth == containerWidth
	c.containerWidth = containerWidth
	first := c.params.ColumnCount == 0
	c.mu.Unlock()
	if same {
		return
	}
	if first {
		// First measurement must not wait out the debounce window
		c.mu.Lock()
		c.relayoutLocked()
		c.mu.Unlock()
		c.invalidate()
		return
	}

	c.resizeMu.Lock()
	defer c.resizeMu.Unlock()
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
	}
	c.resizeTimer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		c.relayoutLocked()
		c.mu.Unlock()
		c.observeViewport()
		c.invalidate()
	})
}

// OnScroll reports the grid viewport and triggers near-visible cell loads
func (c *Controller) OnScroll(scrollTop, viewportHeight int) {
	c.mu.Lock()
	c.scrollTop = scrollTop
	c.viewportHeight = viewportHeight
	c.mu.Unlock()
	c.observeViewport()
}

// observeViewport feeds the current viewport to the scheduler
func (c *Controller) observeViewport() {
	c.mu.Lock()
	records := c.records
	cells := c.cells
	params := c.params
	top := c.scrollTop
	height := c.viewportHeight
	c.mu.Unlock()
	if height > 0 {
		c.scheduler.ObserveViewport(records, cells, params, top, height)
	}
}

// relayoutLocked recomputes the full cell list. Caller holds c.mu.
func (c *Controller) relayoutLocked() {
	if c.containerWidth <= 0 || len(c.records) == 0 {
		c.cells = nil
		return
	}
	c.params = ParamsFromConfig(c.grid, c.bands, c.containerWidth)
	c.cells = ComputeLayout(c.records, c.resolver.Resolved(), c.params)
}

// loadCell is the scheduler's trigger: drive one cell through its tiers
func (c *Controller) loadCell(rec feed.ImageRecord) {
	c.mu.Lock()
	visual, ok := c.visuals[rec.ID]
	c.mu.Unlock()
	if !ok {
		return
	}
	visual.Load(c.ctx, c.cache, rec, c.invalidate)
}

// Context returns the controller's lifetime context, used by collaborators
// that start loads on its behalf.
func (c *Controller) Context() context.Context { return c.ctx }

// SeedDimensions installs dimensions recovered from a previous session and
// folds them into the current layout.
func (c *Controller) SeedDimensions(dims map[string]image.Point) {
	c.resolver.Seed(dims)
	c.mu.Lock()
	c.relayoutLocked()
	c.mu.Unlock()
	c.invalidate()
}

// Snapshot returns the state the renderer needs for one frame. The slices
// are the controller's own; treat them as read-only.
func (c *Controller) Snapshot() ([]feed.ImageRecord, []LayoutCell, LayoutParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records, c.cells, c.params
}

// Visual returns the cell visual bound to an image id
func (c *Controller) Visual(id string) (*CellVisual, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.visuals[id]
	return v, ok
}

// ContentHeightPx returns the pixel height of the tallest column, the
// grid's scrollable extent.
func (c *Controller) ContentHeightPx() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	rowUnit := c.params.RowUnit()
	max := 0
	for _, cell := range c.cells {
		bottom := (cell.RowStart-1)*rowUnit + cell.RowSpan*rowUnit - c.params.Gap
		if bottom > max {
			max = bottom
		}
	}
	return max
}

// Select activates the cell at index: the full-resolution image is pulled
// into the cache first so the detail view never opens onto an empty frame,
// then the modal opens, the grid scroll offset is frozen, and the
// neighbors warm.
func (c *Controller) Select(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.records) {
		c.mu.Unlock()
		return
	}
	rec := c.records[index]
	c.mu.Unlock()

	go func() {
		if url := rec.DetailURL(); url != "" {
			task := c.cache.Preload(c.ctx, url, imagecache.Options{})
			if err := task.Wait(c.ctx); err != nil {
				debug.Log(debug.CACHE, "detail preload failed for %s: %v", rec.ID, err)
				// Open anyway; the modal degrades to the thumbnail tier
			}
		}

		c.mu.Lock()
		// The list may have been replaced while the preload ran
		if index >= len(c.records) || c.records[index].ID != rec.ID {
			c.mu.Unlock()
			return
		}
		c.selected = index
		c.savedScroll = c.scrollTop
		records := c.records
		c.mu.Unlock()

		c.scheduler.WarmNeighbors(c.ctx, records, index)
		if c.onSelect != nil {
			c.onSelect(index)
		}
		c.invalidate()
	}()
}

// Navigate moves the modal selection by delta. List boundaries are a
// no-op, never a wrap.
func (c *Controller) Navigate(delta int) {
	c.mu.Lock()
	if c.selected < 0 {
		c.mu.Unlock()
		return
	}
	next := c.selected + delta
	if next < 0 || next >= len(c.records) {
		c.mu.Unlock()
		return
	}
	c.selected = next
	records := c.records
	c.mu.Unlock()

	c.scheduler.WarmNeighbors(c.ctx, records, next)
	if c.onNavigate != nil {
		c.onNavigate(next)
	}
	c.invalidate()
}

// CloseModal closes the detail view and restores the exact grid scroll
// offset that was frozen on open.
func (c *Controller) CloseModal() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected < 0 {
		return c.scrollTop
	}
	c.selected = -1
	c.scrollTop = c.savedScroll
	debug.Log(debug.UI, "modal closed, scroll restored to %d", c.savedScroll)
	return c.savedScroll
}

// Selected returns the modal index, -1 when the modal is closed
func (c *Controller) Selected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SelectedRecord returns the record the modal is showing
func (c *Controller) SelectedRecord() (feed.ImageRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected < 0 || c.selected >= len(c.records) {
		return feed.ImageRecord{}, false
	}
	return c.records[c.selected], true
}
