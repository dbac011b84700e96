package app

import (
	"testing"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
)

func TestStaleFeedResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    feed.Response
		current int64
		want    bool
	}{
		{"current image page", feed.Response{Op: feed.FetchImages, Gen: 2}, 2, false},
		{"superseded image page", feed.Response{Op: feed.FetchImages, Gen: 1}, 2, true},
		// Categories are requested once at gen 0; a restored category
		// setting bumps the generation before the response arrives and
		// must not discard it.
		{"categories after reload", feed.Response{Op: feed.FetchCategories, Gen: 0}, 1, false},
		{"categories at current gen", feed.Response{Op: feed.FetchCategories, Gen: 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := staleFeedResponse(tt.resp, tt.current); got != tt.want {
				t.Errorf("staleFeedResponse(%v, gen %d) = %v, want %v", tt.resp.Op, tt.current, got, tt.want)
			}
		})
	}
}
