package store

import (
	"image"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d := NewDB()
	if err := d.Open(filepath.Join(t.TempDir(), "photoapp.db")); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(d.Close)
	go d.Start()
	return d
}

func TestDimensionRoundTrip(t *testing.T) {
	d := openTestDB(t)

	d.RequestChan <- Request{Op: SaveDimension, ImageID: "img-1", Size: image.Point{X: 1920, Y: 1080}}
	d.RequestChan <- Request{Op: SaveDimension, ImageID: "img-2", Size: image.Point{X: 800, Y: 2400}}
	// Dimensions are immutable; a second write for the same id is ignored
	d.RequestChan <- Request{Op: SaveDimension, ImageID: "img-1", Size: image.Point{X: 1, Y: 1}}
	// Degenerate sizes are dropped
	d.RequestChan <- Request{Op: SaveDimension, ImageID: "img-3", Size: image.Point{}}

	d.RequestChan <- Request{Op: FetchDimensions}
	resp := <-d.ResponseChan
	if resp.Err != nil {
		t.Fatalf("fetch: %v", resp.Err)
	}
	if len(resp.Dimensions) != 2 {
		t.Fatalf("got %d dimensions, want 2: %v", len(resp.Dimensions), resp.Dimensions)
	}
	if got := resp.Dimensions["img-1"]; got != (image.Point{X: 1920, Y: 1080}) {
		t.Errorf("img-1 = %v", got)
	}
	if got := resp.Dimensions["img-2"]; got != (image.Point{X: 800, Y: 2400}) {
		t.Errorf("img-2 = %v", got)
	}
}

func TestSettingsUpsert(t *testing.T) {
	d := openTestDB(t)

	d.RequestChan <- Request{Op: SaveSetting, Key: "category", Value: "nature"}
	<-d.ResponseChan // SaveSetting echoes a settings fetch
	d.RequestChan <- Request{Op: SaveSetting, Key: "category", Value: "urban"}
	resp := <-d.ResponseChan
	if resp.Err != nil {
		t.Fatalf("fetch: %v", resp.Err)
	}
	if got := resp.Settings["category"]; got != "urban" {
		t.Errorf("category = %q, want urban", got)
	}
}
