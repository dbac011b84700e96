package gallery

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/config"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

func testNetwork(profile string) config.NetworkConfig {
	return config.NetworkConfig{
		Profile:           profile,
		FastMarginScreens: 2.0,
		SlowMarginScreens: 0.5,
		FastThresholdKBps: 500,
	}
}

type firedLog struct {
	mu  sync.Mutex
	ids []string
}

func (f *firedLog) trigger(rec feed.ImageRecord) {
	f.mu.Lock()
	f.ids = append(f.ids, rec.ID)
	f.mu.Unlock()
}

func (f *firedLog) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func stackedLayout(n, span int) ([]feed.ImageRecord, []LayoutCell, LayoutParams) {
	p := testParams(1, 300)
	recs := make([]feed.ImageRecord, n)
	cells := make([]LayoutCell, n)
	row := 1
	for i := 0; i < n; i++ {
		recs[i] = feed.ImageRecord{ID: string(rune('a' + i))}
		cells[i] = LayoutCell{ImageID: recs[i].ID, Column: 1, RowStart: row, RowSpan: span}
		row += span
	}
	return recs, cells, p
}

func TestSchedulerFiresOncePerCell(t *testing.T) {
	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
	log := &firedLog{}
	s := NewScheduler(cache, testNetwork("fast"), 12, log.trigger)

	recs, cells, p := stackedLayout(3, 10)
	for i := 0; i < 5; i++ {
		s.ObserveViewport(recs, cells, p, 0, 10000)
	}
	if got := log.snapshot(); len(got) != 3 {
		t.Errorf("fired %d times for 3 cells over repeated observations: %v", len(got), got)
	}

	// Reset starts a fresh generation
	s.Reset()
	s.ObserveViewport(recs, cells, p, 0, 10000)
	if got := log.snapshot(); len(got) != 6 {
		t.Errorf("after reset, fired %d total, want 6", len(got))
	}
}

func TestSchedulerEagerFirstScreenful(t *testing.T) {
	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
	log := &firedLog{}
	s := NewScheduler(cache, testNetwork("fast"), 2, log.trigger)

	recs, _, _ := stackedLayout(5, 10)
	s.MountEager(recs)
	got := log.snapshot()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("eager fired %v, want first 2 in list order", got)
	}
}

func TestSchedulerMarginByProfile(t *testing.T) {
	// One tall cell far below the fold: visible only with the fast margin
	recs, cells, p := stackedLayout(1, 10)
	rowUnit := p.RowUnit()
	cells[0].RowStart = 1 + (1000 / rowUnit) // cell top ~1000px down

	tests := []struct {
		profile  string
		wantFire bool
	}{
		{"fast", true},  // 2 screens lookahead: 600+1200 >= 1000
		{"slow", false}, // 0.5 screens: 600+300 < 1000
	}
	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
			log := &firedLog{}
			s := NewScheduler(cache, testNetwork(tt.profile), 12, log.trigger)
			s.ObserveViewport(recs, cells, p, 0, 600)
			fired := len(log.snapshot()) > 0
			if fired != tt.wantFire {
				t.Errorf("profile %s: fired=%v, want %v", tt.profile, fired, tt.wantFire)
			}
		})
	}
}

func TestSchedulerAutoProfileAssumesFastUnmeasured(t *testing.T) {
	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
	s := NewScheduler(cache, testNetwork("auto"), 12, func(feed.ImageRecord) {})
	if m := s.marginPx(600); m != 1200 {
		t.Errorf("unmeasured auto margin = %d, want 1200", m)
	}
}

func TestWarmNeighborsWrapsAround(t *testing.T) {
	var hits atomic.Int32
	srv := servePNG(t, 4, 4, &hits)
	defer srv.Close()

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 16})
	s := NewScheduler(cache, testNetwork("fast"), 12, func(feed.ImageRecord) {})

	recs := make([]feed.ImageRecord, 5)
	for i := range recs {
		id := string(rune('a' + i))
		recs[i] = feed.ImageRecord{
			ID: id,
			URLs: feed.ImageURLs{
				Thumbnail: srv.URL + "/" + id + "-thumb.png",
				Regular:   srv.URL + "/" + id + "-full.png",
			},
		}
	}

	// Selecting index 0: neighbors are 1, 4 (wrap), 2, 3 (wrap)
	s.WarmNeighbors(context.Background(), recs, 0)

	deadline := time.Now().Add(2 * time.Second)
	wantThumbs := []string{"b", "c", "d", "e"}
	for time.Now().Before(deadline) {
		all := true
		for _, id := range wantThumbs {
			if !cache.Loaded(srv.URL + "/" + id + "-thumb.png") {
				all = false
				break
			}
		}
		if all {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("wrap-around neighbor thumbnails never warmed")
}

func TestWarmNeighborsSkipsLoadedTiers(t *testing.T) {
	var perURL sync.Map // path -> *atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter, _ := perURL.LoadOrStore(r.URL.Path, new(atomic.Int32))
		counter.(*atomic.Int32).Add(1)
		var buf bytes.Buffer
		png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)))
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 16})
	s := NewScheduler(cache, testNetwork("fast"), 12, func(feed.ImageRecord) {})

	recs := make([]feed.ImageRecord, 3)
	for i := range recs {
		id := string(rune('a' + i))
		recs[i] = feed.ImageRecord{
			ID: id,
			URLs: feed.ImageURLs{
				Thumbnail: srv.URL + "/" + id + "-thumb.png",
				Regular:   srv.URL + "/" + id + "-full.png",
			},
		}
	}

	// Neighbor b's tiers are already cached; warming must not refetch them
	for _, url := range []string{recs[1].URLs.Thumbnail, recs[1].DetailURL()} {
		if err := cache.Preload(context.Background(), url, imagecache.Options{}).Wait(context.Background()); err != nil {
			t.Fatalf("preload %s: %v", url, err)
		}
	}

	s.WarmNeighbors(context.Background(), recs, 0)

	// The uncached neighbor c completes; use it as the fence before
	// asserting b saw no extra requests
	deadline := time.Now().Add(2 * time.Second)
	for !cache.Loaded(recs[2].DetailURL()) {
		if time.Now().After(deadline) {
			t.Fatal("uncached neighbor never warmed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, path := range []string{"/b-thumb.png", "/b-full.png"} {
		counter, ok := perURL.Load(path)
		if !ok {
			t.Fatalf("no fetches recorded for %s", path)
		}
		if n := counter.(*atomic.Int32).Load(); n != 1 {
			t.Errorf("%s fetched %d times, want 1 (warm must skip loaded tiers)", path, n)
		}
	}
}
