package gallery

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

// DimensionUpdate is one resolved intrinsic size, published to the grid
// controller so it can fold the probe into the next layout pass.
type DimensionUpdate struct {
	ImageID string
	Size    image.Point
}

// Resolver probes intrinsic pixel dimensions for records whose feed
// metadata lacks them. Probes fetch the largest non-original tier with
// decoding skipped: a header read is enough to learn the aspect ratio, and
// the larger tier biases toward the aspect the full image will actually
// paint at.
//
// An id is probed at most once: resolved ids and in-flight ids are both
// guarded. Probe failures publish nothing; layout keeps its fallback
// aspect for that id.
type Resolver struct {
	cache *imagecache.Cache

	mu       sync.Mutex
	resolved map[string]image.Point
	inflight map[string]struct{}

	updates chan DimensionUpdate

	priorityCount int
	deferDelay    time.Duration
}

// NewResolver creates a resolver publishing into an updates channel.
// priorityCount controls how many unresolved records are probed
// immediately; the remainder wait deferDelay so they do not compete with
// visible image bytes.
func NewResolver(cache *imagecache.Cache, priorityCount int, deferDelay time.Duration) *Resolver {
	if priorityCount <= 0 {
		priorityCount = 20
	}
	return &Resolver{
		cache:         cache,
		resolved:      make(map[string]image.Point),
		inflight:      make(map[string]struct{}),
		updates:       make(chan DimensionUpdate, 64),
		priorityCount: priorityCount,
		deferDelay:    deferDelay,
	}
}

// Updates is the stream of resolved dimensions
func (r *Resolver) Updates() <-chan DimensionUpdate { return r.updates }

// Seed installs dimensions recovered from a previous session without
// publishing updates. Call before the first layout pass.
func (r *Resolver) Seed(dims map[string]image.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, size := range dims {
		if size.X > 0 && size.Y > 0 {
			r.resolved[id] = size
		}
	}
	debug.Log(debug.LAYOUT, "resolver seeded with %d dimensions", len(dims))
}

// Resolved returns a snapshot of all dimensions known so far
func (r *Resolver) Resolved() map[string]image.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]image.Point, len(r.resolved))
	for id, size := range r.resolved {
		out[id] = size
	}
	return out
}

// Lookup returns the resolved size for one id, if known
func (r *Resolver) Lookup(id string) (image.Point, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	size, ok := r.resolved[id]
	return size, ok
}

// ResolveAll schedules probes for every record in the batch that lacks
// dimensions. The first priorityCount unresolved records probe immediately;
// the rest start after the defer delay. Returns without blocking.
func (r *Resolver) ResolveAll(ctx context.Context, records []feed.ImageRecord) {
	var pending []feed.ImageRecord
	r.mu.Lock()
	for _, rec := range records {
		if rec.HasDimensions() {
			continue
		}
		if _, ok := r.resolved[rec.ID]; ok {
			continue
		}
		if _, ok := r.inflight[rec.ID]; ok {
			continue
		}
		if rec.ProbeURL() == "" {
			continue
		}
		r.inflight[rec.ID] = struct{}{}
		pending = append(pending, rec)
	}
	r.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	split := r.priorityCount
	if split > len(pending) {
		split = len(pending)
	}
	priority, deferred := pending[:split], pending[split:]
	debug.Log(debug.LAYOUT, "resolving %d dimensions (%d priority, %d deferred)",
		len(pending), len(priority), len(deferred))

	for _, rec := range priority {
		go r.probe(ctx, rec)
	}
	if len(deferred) > 0 {
		go func() {
			select {
			case <-time.After(r.deferDelay):
			case <-ctx.Done():
				r.abandon(deferred)
				return
			}
			for _, rec := range deferred {
				go r.probe(ctx, rec)
			}
		}()
	}
}

func (r *Resolver) abandon(records []feed.ImageRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		delete(r.inflight, rec.ID)
	}
}

// probe resolves one record's dimensions and publishes them. A size the
// cache memoized from an earlier fetch of the same URL short-circuits the
// network probe entirely.
func (r *Resolver) probe(ctx context.Context, rec feed.ImageRecord) {
	if size, ok := r.cache.IntrinsicSize(rec.ProbeURL()); ok && size != (image.Point{}) {
		r.publish(ctx, rec.ID, size)
		return
	}

	task := r.cache.Preload(ctx, rec.ProbeURL(), imagecache.Options{SkipDecode: true})
	if err := task.Wait(ctx); err != nil || task.Size() == (image.Point{}) {
		r.mu.Lock()
		delete(r.inflight, rec.ID)
		r.mu.Unlock()
		debug.Log(debug.LAYOUT, "dimension probe failed for %s: %v", rec.ID, err)
		return
	}
	r.publish(ctx, rec.ID, task.Size())
}

// publish records a resolved size and emits the update
func (r *Resolver) publish(ctx context.Context, id string, size image.Point) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.resolved[id] = size
	r.mu.Unlock()

	select {
	case r.updates <- DimensionUpdate{ImageID: id, Size: size}:
	case <-ctx.Done():
	}
}
