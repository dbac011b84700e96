package gallery

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

func servePNG(t *testing.T, w, h int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	payload := buf.Bytes()
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		rw.Write(payload)
	}))
}

func TestResolverPublishesProbedDimensions(t *testing.T) {
	srv := servePNG(t, 640, 480, nil)
	defer srv.Close()

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
	r := NewResolver(cache, 20, 10*time.Millisecond)

	rec := feed.ImageRecord{
		ID:   "probe-me",
		URLs: feed.ImageURLs{Regular: srv.URL + "/regular.png"},
	}
	r.ResolveAll(context.Background(), []feed.ImageRecord{rec})

	select {
	case update := <-r.Updates():
		if update.ImageID != "probe-me" {
			t.Errorf("update for %q", update.ImageID)
		}
		if update.Size.X != 640 || update.Size.Y != 480 {
			t.Errorf("size = %v, want (640,480)", update.Size)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no dimension update published")
	}

	if size, ok := r.Lookup("probe-me"); !ok || size.X != 640 {
		t.Errorf("Lookup = %v,%v", size, ok)
	}
}

func TestResolverSkipsKnownAndInflight(t *testing.T) {
	var hits atomic.Int32
	srv := servePNG(t, 100, 100, &hits)
	defer srv.Close()

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
	r := NewResolver(cache, 20, time.Millisecond)

	withDims := feed.ImageRecord{ID: "has-dims", Width: 800, Height: 600,
		URLs: feed.ImageURLs{Regular: srv.URL + "/a.png"}}
	noURL := feed.ImageRecord{ID: "no-url"}
	seeded := feed.ImageRecord{ID: "seeded", URLs: feed.ImageURLs{Regular: srv.URL + "/b.png"}}

	r.Seed(map[string]image.Point{"seeded": {X: 50, Y: 50}})
	r.ResolveAll(context.Background(), []feed.ImageRecord{withDims, noURL, seeded})

	select {
	case update := <-r.Updates():
		t.Fatalf("unexpected update %+v", update)
	case <-time.After(200 * time.Millisecond):
	}
	if hits.Load() != 0 {
		t.Errorf("expected 0 probes, got %d", hits.Load())
	}
}

func TestResolverUsesMemoizedSize(t *testing.T) {
	srv := servePNG(t, 320, 240, nil)

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
	url := srv.URL + "/shared.png"
	if err := cache.Preload(context.Background(), url, imagecache.Options{SkipDecode: true}).Wait(context.Background()); err != nil {
		t.Fatalf("warm-up: %v", err)
	}
	// The cache memoized the size; a fresh resolver must serve it without
	// any network reachable at all
	srv.Close()

	r := NewResolver(cache, 20, time.Millisecond)
	rec := feed.ImageRecord{ID: "memoized", URLs: feed.ImageURLs{Regular: url}}
	r.ResolveAll(context.Background(), []feed.ImageRecord{rec})

	select {
	case update := <-r.Updates():
		if update.Size.X != 320 || update.Size.Y != 240 {
			t.Errorf("size = %v, want (320,240)", update.Size)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("memoized size not published")
	}
}

func TestResolverDefersOverflow(t *testing.T) {
	var hits atomic.Int32
	srv := servePNG(t, 10, 10, &hits)
	defer srv.Close()

	cache := imagecache.New(imagecache.CacheOptions{MaxDecoded: 4})
	r := NewResolver(cache, 2, 100*time.Millisecond)

	recs := make([]feed.ImageRecord, 4)
	for i := range recs {
		recs[i] = feed.ImageRecord{
			ID:   string(rune('a' + i)),
			URLs: feed.ImageURLs{Regular: srv.URL + "/" + string(rune('a'+i)) + ".png"},
		}
	}
	r.ResolveAll(context.Background(), recs)

	// Priority batch lands quickly; deferred batch waits out the delay
	deadline := time.After(2 * time.Second)
	got := 0
	for got < 2 {
		select {
		case <-r.Updates():
			got++
		case <-deadline:
			t.Fatalf("only %d priority updates before deadline", got)
		}
	}
	if n := hits.Load(); n > 2 {
		t.Errorf("deferred probes fired early: %d fetches", n)
	}
	for got < 4 {
		select {
		case <-r.Updates():
			got++
		case <-deadline:
			t.Fatalf("only %d updates before deadline", got)
		}
	}
}
