package gallery

import (
	"context"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/config"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

func testController(t *testing.T, opts ControllerOptions) *Controller {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if opts.Cache == nil {
		opts.Cache = imagecache.New(imagecache.CacheOptions{MaxDecoded: 8})
	}
	if opts.Resolver == nil {
		opts.Resolver = NewResolver(opts.Cache, 20, time.Millisecond)
	}
	if opts.Grid == (config.GridConfig{}) {
		opts.Grid = config.GridConfig{MinColumnWidth: 300, Gap: 24, BaseRowHeight: 5, MaxRowSpan: 150}
	}
	if opts.Bands == nil {
		opts.Bands = config.DefaultBands()
	}
	opts.Network = testNetwork("fast")
	return NewController(ctx, opts)
}

func landscapeRecords(n int) []feed.ImageRecord {
	recs := make([]feed.ImageRecord, n)
	for i := range recs {
		recs[i] = feed.ImageRecord{
			ID:     string(rune('a' + i)),
			Width:  1500,
			Height: 1000,
		}
	}
	return recs
}

func TestControllerLayoutOnSetRecords(t *testing.T) {
	c := testController(t, ControllerOptions{})
	c.Resize(972) // 3 columns at 300px + 2 gaps
	c.SetRecords(landscapeRecords(6))

	records, cells, params := c.Snapshot()
	if len(records) != 6 || len(cells) != 6 {
		t.Fatalf("%d records, %d cells", len(records), len(cells))
	}
	if params.ColumnCount != 3 {
		t.Errorf("columns = %d, want 3", params.ColumnCount)
	}
	for _, rec := range records {
		if _, ok := c.Visual(rec.ID); !ok {
			t.Errorf("no visual seeded for %s", rec.ID)
		}
	}
	if c.ContentHeightPx() <= 0 {
		t.Error("content height not computed")
	}
}

func TestControllerAppendKeepsVisuals(t *testing.T) {
	c := testController(t, ControllerOptions{})
	c.Resize(648)
	c.SetRecords(landscapeRecords(2))

	va, _ := c.Visual("a")
	c.AppendRecords([]feed.ImageRecord{{ID: "z", Width: 1000, Height: 1000}})

	records, cells, _ := c.Snapshot()
	if len(records) != 3 || len(cells) != 3 {
		t.Fatalf("%d records, %d cells after append", len(records), len(cells))
	}
	if vb, _ := c.Visual("a"); vb != va {
		t.Error("append rebuilt existing visuals")
	}
	if _, ok := c.Visual("z"); !ok {
		t.Error("appended record has no visual")
	}
}

func TestControllerResizeDebounce(t *testing.T) {
	var invalidations atomic.Int32
	c := testController(t, ControllerOptions{
		Debounce:   50 * time.Millisecond,
		Invalidate: func() { invalidations.Add(1) },
	})
	c.Resize(648)
	c.SetRecords(landscapeRecords(4))

	_, _, before := c.Snapshot()
	if before.ColumnCount != 2 {
		t.Fatalf("columns = %d, want 2", before.ColumnCount)
	}

	// A burst of resizes coalesces into one recompute after the window
	for _, w := range []int{700, 800, 900, 972} {
		c.Resize(w)
	}
	_, _, during := c.Snapshot()
	if during.ColumnCount != 2 {
		t.Error("layout recomputed before the debounce window elapsed")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, _, p := c.Snapshot(); p.ColumnCount == 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("debounced relayout never ran")
}

func TestControllerSelectWaitsForDetail(t *testing.T) {
	srv := servePNG(t, 64, 64, nil)
	defer srv.Close()

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 8})
	selected := make(chan int, 1)
	c := testController(t, ControllerOptions{
		Cache:    cache,
		OnSelect: func(i int) { selected <- i },
	})
	c.Resize(648)

	recs := landscapeRecords(3)
	url := srv.URL + "/detail.png"
	recs[1].URLs = feed.ImageURLs{Regular: url}
	c.SetRecords(recs)

	c.Select(1)
	select {
	case i := <-selected:
		if i != 1 {
			t.Errorf("selected %d, want 1", i)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("selection never fired")
	}
	if !cache.Loaded(url) {
		t.Error("detail image not cached before selection fired")
	}
	if c.Selected() != 1 {
		t.Errorf("Selected() = %d, want 1", c.Selected())
	}
}

func TestControllerNavigateBoundaries(t *testing.T) {
	navigated := make(chan int, 4)
	c := testController(t, ControllerOptions{
		OnNavigate: func(i int) { navigated <- i },
	})
	c.Resize(648)
	c.SetRecords(landscapeRecords(3))

	c.Select(0)
	deadline := time.Now().Add(2 * time.Second)
	for c.Selected() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("selection never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Backward at the first item is a no-op, never a wrap
	c.Navigate(-1)
	if c.Selected() != 0 {
		t.Errorf("navigated past the start to %d", c.Selected())
	}
	c.Navigate(1)
	if c.Selected() != 1 {
		t.Errorf("Selected() = %d, want 1", c.Selected())
	}
	c.Navigate(1)
	c.Navigate(1) // forward at the last item is a no-op
	if c.Selected() != 2 {
		t.Errorf("navigated past the end to %d", c.Selected())
	}
	if rec, ok := c.SelectedRecord(); !ok || rec.ID != "c" {
		t.Errorf("SelectedRecord = %+v,%v", rec, ok)
	}
}

func TestControllerModalFreezesScroll(t *testing.T) {
	c := testController(t, ControllerOptions{})
	c.Resize(648)
	c.SetRecords(landscapeRecords(3))
	c.OnScroll(420, 600)

	c.Select(2)
	deadline := time.Now().Add(2 * time.Second)
	for c.Selected() != 2 {
		if time.Now().After(deadline) {
			t.Fatal("selection never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Scroll position drifts while the modal is open; close restores it
	c.OnScroll(0, 600)
	if got := c.CloseModal(); got != 420 {
		t.Errorf("restored scroll %d, want 420", got)
	}
	if c.Selected() != -1 {
		t.Error("modal still open after close")
	}
}

func TestControllerDimensionUpdateRelayouts(t *testing.T) {
	srv := servePNG(t, 800, 2400, nil) // tall portrait probe result
	defer srv.Close()

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 8})
	resolver := NewResolver(cache, 20, time.Millisecond)
	var sunk atomic.Int32
	c := testController(t, ControllerOptions{
		Cache:    cache,
		Resolver: resolver,
		Dimensions: func(id string, size image.Point) {
			if size.X == 800 && size.Y == 2400 {
				sunk.Add(1)
			}
		},
	})
	c.Resize(300)
	c.SetRecords([]feed.ImageRecord{{
		ID:   "unknown",
		URLs: feed.ImageURLs{Regular: srv.URL + "/probe.png"},
	}})

	_, cells, _ := c.Snapshot()
	fallbackSpan := cells[0].RowSpan

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, cells, _ = c.Snapshot()
		if len(cells) == 1 && cells[0].RowSpan > fallbackSpan {
			if sunk.Load() == 0 {
				t.Error("dimension sink never called")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("layout never folded in the probed dimensions")
}
