// Package app wires the window event loop to the feed, store, cache and
// gallery workers. The orchestrator owns the view state; workers report
// back over channels and never touch the UI directly.
package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"gioui.org/app"
	"gioui.org/op"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/config"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/gallery"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/store"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/ui"
)

type Orchestrator struct {
	window *app.Window
	cfg    *config.Manager

	feed  *feed.Service
	store *store.DB
	cache *imagecache.Cache
	grid  *gallery.Controller
	ui    *ui.Renderer

	state ui.State

	// Feed paging state. gen stamps every request; responses carrying an
	// older gen are from a superseded category/refresh and are dropped.
	gen     int64
	page    int
	hasMore bool

	cancel context.CancelFunc
}

func NewOrchestrator(debugMode bool) *Orchestrator {
	cfgManager := config.NewManager()
	if err := cfgManager.Load(); err != nil {
		log.Printf("Config load: %v", err)
	}
	cfg := cfgManager.Get()

	ctx, cancel := context.WithCancel(context.Background())

	cacheDir := ""
	if cfg.Cache.DiskEnabled {
		cacheDir = cfg.Cache.Dir
		if cacheDir == "" {
			cacheDir = cfgManager.CacheDir()
		}
	}
	cache := imagecache.New(imagecache.CacheOptions{
		MaxDecoded: cfg.Cache.MaxDecoded,
		DiskDir:    cacheDir,
		Timeout:    time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	})

	resolver := gallery.NewResolver(cache, cfg.Resolver.PriorityCount,
		time.Duration(cfg.Resolver.DeferDelayMs)*time.Millisecond)

	o := &Orchestrator{
		window: new(app.Window),
		cfg:    cfgManager,
		store:  store.NewDB(),
		cache:  cache,
		state: ui.State{
			Title:   "PhotoApp",
			Loading: true,
		},
		page:   1,
		cancel: cancel,
	}

	client := feed.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	o.feed = feed.NewService(client, cfg.API.PerPage)

	o.grid = gallery.NewController(ctx, gallery.ControllerOptions{
		Cache:      cache,
		Resolver:   resolver,
		Grid:       cfg.Grid,
		Bands:      cfg.Bands,
		Network:    cfg.Network,
		EagerCells: cfg.UI.EagerCellCount,
		Debounce:   cfgManager.ResizeDebounce(),
		Invalidate: o.window.Invalidate,
		OnSelect: func(index int) {
			debug.Log(debug.APP, "selected index %d", index)
		},
		OnNavigate: func(index int) {
			debug.Log(debug.APP, "navigated to index %d", index)
		},
		Dimensions: func(id string, size image.Point) {
			o.store.RequestChan <- store.Request{Op: store.SaveDimension, ImageID: id, Size: size}
		},
	})

	o.ui = ui.NewRenderer(o.grid, cache, o.window.Invalidate)
	o.ui.Debug = debugMode
	o.ui.SetSwipeThreshold(cfg.UI.SwipeThresholdPx)

	if err := cfgManager.ParseError(); err != nil {
		o.state.ConfigError = fmt.Sprintf("Config error: %v (defaults in use)", err)
	}
	return o
}

func (o *Orchestrator) Run() error {
	defer o.cancel()

	// Init DB
	configDir, _ := os.UserConfigDir()
	if err := o.store.Open(filepath.Join(configDir, "photoapp", "photoapp.db")); err != nil {
		log.Printf("Failed to open DB: %v", err)
	}
	defer o.store.Close()

	// Start workers
	go o.feed.Start()
	go o.store.Start()
	go o.processEvents()

	// Warm-start: dimensions probed in earlier sessions and saved settings
	o.store.RequestChan <- store.Request{Op: store.FetchDimensions}
	o.store.RequestChan <- store.Request{Op: store.FetchSettings}

	// Initial feed
	o.feed.RequestChan <- feed.Request{Op: feed.FetchCategories, Gen: o.gen}
	o.requestPage(1)

	// Event loop
	var ops op.Ops
	for {
		switch e := o.window.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			evt := o.ui.Layout(gtx, &o.state)

			if o.ui.Debug && evt.Action != ui.ActionNone {
				log.Printf("[DEBUG] Action: %d, Category: %s, Index: %d", evt.Action, evt.CategoryID, evt.Index)
			}

			o.handleUIEvent(evt)
			e.Frame(gtx.Ops)
			// Front layers painted this frame are now committed; cells
			// flip to full-ready and hide their back layer next frame.
			o.ui.FrameCommitted()
		}
	}
}

func (o *Orchestrator) handleUIEvent(evt ui.UIEvent) {
	switch evt.Action {
	case ui.ActionSelectCategory:
		if evt.CategoryID == o.state.ActiveCategory {
			return
		}
		o.state.ActiveCategory = evt.CategoryID
		o.store.RequestChan <- store.Request{Op: store.SaveSetting, Key: "category", Value: evt.CategoryID}
		o.reload()
	case ui.ActionRefresh:
		// Manual refresh forgets the session memoization so content
		// actually refetches; disk bytes are kept.
		o.cache.Clear()
		o.reload()
	case ui.ActionOpenImage:
		o.grid.Select(evt.Index)
	case ui.ActionCloseModal:
		offset := o.grid.CloseModal()
		o.ui.SetScroll(offset)
		o.window.Invalidate()
	case ui.ActionNavigateImage:
		o.grid.Navigate(evt.Delta)
	case ui.ActionLoadMore:
		if o.hasMore && !o.state.Loading {
			o.requestPage(o.page + 1)
		}
	}
}

// reload starts a fresh generation for the current category
func (o *Orchestrator) reload() {
	o.gen++
	o.state.Loading = true
	o.state.HasMore = false
	o.hasMore = false
	o.requestPage(1)
	o.window.Invalidate()
}

func (o *Orchestrator) requestPage(page int) {
	o.page = page
	o.state.Loading = true
	o.feed.RequestChan <- feed.Request{
		Op:       feed.FetchImages,
		Page:     page,
		Category: o.state.ActiveCategory,
		Gen:      o.gen,
	}
}

func (o *Orchestrator) processEvents() {
	for {
		select {
		case resp := <-o.feed.ResponseChan:
			o.handleFeedResponse(resp)
		case resp := <-o.store.ResponseChan:
			o.handleStoreResponse(resp)
		}
	}
}

// staleFeedResponse reports whether a feed response belongs to a superseded
// reload generation. Only image pages are generation-scoped: the category
// list is requested once at startup and must survive a reload (say, a
// restored category setting) racing ahead of its response.
func staleFeedResponse(resp feed.Response, current int64) bool {
	return resp.Op == feed.FetchImages && resp.Gen != current
}

func (o *Orchestrator) handleFeedResponse(resp feed.Response) {
	if staleFeedResponse(resp, o.gen) {
		debug.Log(debug.APP, "dropping stale feed response (gen %d, current %d)", resp.Gen, o.gen)
		return
	}
	if resp.Err != nil {
		log.Printf("Feed error: %v", resp.Err)
		o.state.Loading = false
		o.ui.ShowError("Could not load images")
		o.window.Invalidate()
		return
	}

	switch resp.Op {
	case feed.FetchImages:
		o.state.Loading = false
		o.hasMore = resp.HasMore
		o.state.HasMore = resp.HasMore
		if resp.Page <= 1 {
			o.ui.ResetCells()
			o.grid.SetRecords(resp.Records)
		} else {
			o.grid.AppendRecords(resp.Records)
		}
	case feed.FetchCategories:
		items := make([]ui.CategoryItem, 0, len(resp.Categories)+1)
		items = append(items, ui.CategoryItem{ID: "", Name: "All"})
		for _, cat := range resp.Categories {
			items = append(items, ui.CategoryItem{ID: cat.ID, Name: cat.Name})
		}
		o.state.Categories = items
	}
	o.window.Invalidate()
}

func (o *Orchestrator) handleStoreResponse(resp store.Response) {
	if resp.Err != nil {
		log.Printf("Store error: %v", resp.Err)
		return
	}

	switch resp.Op {
	case store.FetchDimensions:
		if len(resp.Dimensions) > 0 {
			o.grid.SeedDimensions(resp.Dimensions)
		}
	case store.FetchSettings:
		if cat, ok := resp.Settings["category"]; ok && cat != "" && cat != o.state.ActiveCategory {
			o.state.ActiveCategory = cat
			o.reload()
		}
	}
	o.window.Invalidate()
}

func Main(debugMode bool) {
	go func() {
		o := NewOrchestrator(debugMode)
		if err := o.Run(); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}
