package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("per_page") != "30" || q.Get("category") != "nature" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"images": [
				{"id": "img-1", "width": 1920, "height": 1080,
				 "urls": {"thumbnail": "https://cdn.example/t1.jpg", "regular": "https://cdn.example/r1.jpg"},
				 "category": "nature"},
				{"id": "img-2",
				 "urls": {"thumbnail": "https://cdn.example/t2.jpg"}}
			],
			"hasMore": true
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	page, err := c.ListImages(context.Background(), 2, 30, "nature")
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(page.Records) != 2 || !page.HasMore {
		t.Fatalf("got %d records, hasMore=%v", len(page.Records), page.HasMore)
	}
	first := page.Records[0]
	if first.ID != "img-1" || !first.HasDimensions() {
		t.Errorf("first = %+v", first)
	}
	if first.ProbeURL() != "https://cdn.example/r1.jpg" {
		t.Errorf("probe URL = %s", first.ProbeURL())
	}
	// No regular tier: everything falls back to the thumbnail
	second := page.Records[1]
	if second.HasDimensions() {
		t.Error("second record should lack dimensions")
	}
	if second.ProbeURL() != "https://cdn.example/t2.jpg" {
		t.Errorf("second probe URL = %s", second.ProbeURL())
	}
}

func TestListImagesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if _, err := c.ListImages(context.Background(), 1, 30, ""); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestListCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/categories" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "nature", "name": "Nature"}, {"id": "urban", "name": "Urban"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	cats, err := c.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != "nature" || cats[1].Name != "Urban" {
		t.Errorf("categories = %+v", cats)
	}
}

func TestServiceStaleGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"images": [], "hasMore": false}`))
	}))
	defer srv.Close()

	s := NewService(NewClient(srv.URL, 5*time.Second), 30)
	go s.Start()
	defer close(s.RequestChan)

	s.RequestChan <- Request{Op: FetchImages, Page: 1, Gen: 7}
	select {
	case resp := <-s.ResponseChan:
		if resp.Gen != 7 {
			t.Errorf("response gen = %d, want 7 (echoed for staleness checks)", resp.Gen)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no response")
	}
}
