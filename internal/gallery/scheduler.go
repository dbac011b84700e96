package gallery

import (
	"context"
	"sync"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/config"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

// Scheduler decides when each grid cell begins loading its image. A cell
// triggers exactly once: the first time it intersects the viewport plus a
// connection-aware lookahead margin. The first screenful of cells loads
// eagerly at mount without waiting for a scroll observation.
type Scheduler struct {
	cache   *imagecache.Cache
	trigger func(rec feed.ImageRecord)

	mu    sync.Mutex
	fired map[string]struct{}

	eagerCount int
	network    config.NetworkConfig
}

// NewScheduler creates a scheduler. trigger is invoked at most once per
// image id per Reset generation, on the scheduler's calling goroutine.
func NewScheduler(cache *imagecache.Cache, network config.NetworkConfig, eagerCount int, trigger func(feed.ImageRecord)) *Scheduler {
	if eagerCount <= 0 {
		eagerCount = 12
	}
	return &Scheduler{
		cache:      cache,
		trigger:    trigger,
		fired:      make(map[string]struct{}),
		eagerCount: eagerCount,
		network:    network,
	}
}

// Reset forgets all fired cells. Call when the record list is replaced
// (category change, refresh), not on page append.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.fired = make(map[string]struct{})
	s.mu.Unlock()
	debug.Log(debug.SCHED, "reset")
}

// MountEager fires the first screenful of records immediately
func (s *Scheduler) MountEager(records []feed.ImageRecord) {
	n := s.eagerCount
	if n > len(records) {
		n = len(records)
	}
	for _, rec := range records[:n] {
		s.fire(rec)
	}
	debug.Log(debug.SCHED, "eager-loaded %d cells", n)
}

// ObserveViewport fires every not-yet-fired cell whose pixel extent
// intersects [scrollTop - margin, scrollTop + viewportHeight + margin).
// records must be indexed in the same order the cells were laid out from.
func (s *Scheduler) ObserveViewport(records []feed.ImageRecord, cells []LayoutCell, p LayoutParams, scrollTop, viewportHeight int) {
	if len(cells) == 0 || viewportHeight <= 0 {
		return
	}
	margin := s.marginPx(viewportHeight)
	top := scrollTop - margin
	bottom := scrollTop + viewportHeight + margin

	rowUnit := p.RowUnit()
	count := 0
	for i, cell := range cells {
		if i >= len(records) {
			break
		}
		cellTop := (cell.RowStart - 1) * rowUnit
		cellBottom := cellTop + cell.RowSpan*rowUnit - p.Gap
		if cellBottom <= top || cellTop >= bottom {
			continue
		}
		if s.fire(records[i]) {
			count++
		}
	}
	if count > 0 {
		debug.Log(debug.SCHED, "viewport [%d,%d] margin %d fired %d cells", scrollTop, scrollTop+viewportHeight, margin, count)
	}
}

// marginPx converts the connection profile into a pixel lookahead.
// Auto mode classifies from the cache's measured throughput; with no
// measurement yet it assumes fast, since the first loads are above the
// fold anyway.
func (s *Scheduler) marginPx(viewportHeight int) int {
	screens := s.network.FastMarginScreens
	switch s.network.Profile {
	case "slow":
		screens = s.network.SlowMarginScreens
	case "fast":
		// keep fast margin
	default: // auto
		if kbps := s.cache.ThroughputKBps(); kbps > 0 && kbps < s.network.FastThresholdKBps {
			screens = s.network.SlowMarginScreens
		}
	}
	return int(float64(viewportHeight) * screens)
}

// fire triggers a record once. Returns whether it fired.
func (s *Scheduler) fire(rec feed.ImageRecord) bool {
	s.mu.Lock()
	if _, ok := s.fired[rec.ID]; ok {
		s.mu.Unlock()
		return false
	}
	s.fired[rec.ID] = struct{}{}
	s.mu.Unlock()
	s.trigger(rec)
	return true
}

// WarmNeighbors preloads the 2 records on either side of index, wrapping
// around the list ends. Thumbnails warm first with decoding skipped so a
// navigation always has something to show instantly; full tiers follow
// decoded. URLs the cache already knows are skipped.
func (s *Scheduler) WarmNeighbors(ctx context.Context, records []feed.ImageRecord, index int) {
	n := len(records)
	if n < 2 || index < 0 || index >= n {
		return
	}
	offsets := []int{1, -1, 2, -2}
	var neighbors []feed.ImageRecord
	seen := map[int]struct{}{index: {}}
	for _, off := range offsets {
		i := ((index+off)%n + n) % n
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		neighbors = append(neighbors, records[i])
	}

	// Thumbnail tier first
	for _, rec := range neighbors {
		if url := rec.URLs.Thumbnail; url != "" && !s.cache.Loaded(url) {
			s.cache.Preload(ctx, url, imagecache.Options{SkipDecode: true})
		}
	}
	for _, rec := range neighbors {
		if url := rec.DetailURL(); url != "" && !s.cache.Loaded(url) {
			s.cache.Preload(ctx, url, imagecache.Options{})
		}
	}
	debug.Log(debug.SCHED, "warmed %d neighbors of index %d", len(neighbors), index)
}
