// Package ui renders the photo grid and modal viewer with Gio. All layout
// and loading decisions live in internal/gallery; this package only paints
// the controller's state and translates input into UIEvents for the
// orchestrator.
package ui

import (
	"image"

	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/gallery"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/imagecache"
)

type UIAction int

const (
	ActionNone UIAction = iota
	ActionSelectCategory
	ActionOpenImage
	ActionCloseModal
	ActionNavigateImage
	ActionLoadMore
	ActionRefresh
)

type UIEvent struct {
	Action     UIAction
	CategoryID string
	Index      int
	Delta      int // Navigation direction, -1 or +1
}

// CategoryItem is one filter chip in the navbar
type CategoryItem struct {
	ID        string
	Name      string
	Clickable widget.Clickable
}

// State is the orchestrator-owned view state the renderer paints from.
// Image records, cells and visuals are read through the grid controller.
type State struct {
	Title          string
	Categories     []CategoryItem
	ActiveCategory string
	Loading        bool
	HasMore        bool
	ConfigError    string
}

type Renderer struct {
	Theme *material.Theme
	Debug bool

	grid       *gallery.Controller
	cache      *imagecache.Cache
	invalidate func()

	// Grid scroll state, in content pixels
	scrollTop int
	scrollTag struct{}

	cellClicks map[string]*widget.Clickable

	// Texture handles are cached per decoded image so repaints reuse the
	// uploaded texture instead of re-uploading every frame.
	imageOps map[image.Image]paint.ImageOp

	// Front layers painted this frame; their cells are promoted to
	// full-ready after the frame is committed.
	paintedFronts []*gallery.CellVisual

	// Modal viewer state
	modalVisual *gallery.CellVisual
	modalSwipe  SwipeRecognizer
	closeBtn    widget.Clickable
	prevBtn     widget.Clickable
	nextBtn     widget.Clickable

	refreshBtn widget.Clickable
	catList    layout.List

	toast   Toast
	focused bool
	keyTag  struct{}
}

func NewRenderer(grid *gallery.Controller, cache *imagecache.Cache, invalidate func()) *Renderer {
	if invalidate == nil {
		invalidate = func() {}
	}
	r := &Renderer{
		Theme:      material.NewTheme(),
		grid:       grid,
		cache:      cache,
		invalidate: invalidate,
		cellClicks: make(map[string]*widget.Clickable),
		imageOps:   make(map[image.Image]paint.ImageOp),
	}
	r.catList.Axis = layout.Horizontal
	return r
}

// SetSwipeThreshold overrides the minimum horizontal drag distance, in
// pixels, that the modal counts as a swipe
func (r *Renderer) SetSwipeThreshold(px int) {
	if px > 0 {
		r.modalSwipe.ThresholdPx = px
	}
}

// FrameCommitted must be called after the frame submitted by Layout has
// been handed to the window. Cells whose front layer was painted for the
// first time in that frame flip to full-ready here, which is what lets
// their back layer hide without a flash.
func (r *Renderer) FrameCommitted() {
	for _, visual := range r.paintedFronts {
		visual.MarkFrameCommitted()
	}
	r.paintedFronts = r.paintedFronts[:0]
}

// Layout draws one frame and returns at most one input event
func (r *Renderer) Layout(gtx layout.Context, state *State) UIEvent {
	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()

	paint.FillShape(gtx.Ops, colBackground, clip.Rect{Max: gtx.Constraints.Max}.Op())

	// ===== KEYBOARD FOCUS =====
	keyTag := &r.keyTag
	event.Op(gtx.Ops, keyTag)
	if !r.focused {
		gtx.Execute(key.FocusCmd{Tag: keyTag})
		r.focused = true
	}

	modalOpen := r.grid.Selected() >= 0
	eventOut := r.processGlobalInput(gtx, modalOpen)

	// Report the container width; the controller debounces bursts
	r.grid.Resize(gtx.Constraints.Max.X)

	// ===== MAIN LAYOUT =====
	layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return r.layoutNavbar(gtx, state, &eventOut)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return r.layoutErrorBanner(gtx, state)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return r.layoutMasonry(gtx, state, &eventOut)
		}),
	)

	if modalOpen {
		r.layoutModal(gtx, &eventOut)
	} else {
		r.modalVisual = nil
	}

	r.layoutToast(gtx, r.Theme)

	return eventOut
}

// processGlobalInput handles keyboard shortcuts
func (r *Renderer) processGlobalInput(gtx layout.Context, modalOpen bool) UIEvent {
	var eventOut UIEvent

	for {
		e, ok := gtx.Event(key.Filter{Focus: true, Name: ""})
		if !ok {
			break
		}
		if k, ok := e.(key.Event); ok && k.State == key.Press {
			if !modalOpen {
				continue
			}
			switch k.Name {
			case key.NameLeftArrow:
				eventOut = UIEvent{Action: ActionNavigateImage, Delta: -1}
			case key.NameRightArrow:
				eventOut = UIEvent{Action: ActionNavigateImage, Delta: 1}
			case key.NameEscape:
				eventOut = UIEvent{Action: ActionCloseModal}
			}
		}
	}
	return eventOut
}

// layoutErrorBanner surfaces a config parse problem without blocking the app
func (r *Renderer) layoutErrorBanner(gtx layout.Context, state *State) layout.Dimensions {
	if state.ConfigError == "" {
		return layout.Dimensions{}
	}
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, colErrorBannerBg, clip.Rect{Max: gtx.Constraints.Min}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(8).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body2(r.Theme, state.ConfigError)
				lbl.Color = colErrorBannerText
				lbl.MaxLines = 2
				return lbl.Layout(gtx)
			})
		},
	)
}

// cellClick returns the persistent clickable for an image id
func (r *Renderer) cellClick(id string) *widget.Clickable {
	if c, ok := r.cellClicks[id]; ok {
		return c
	}
	c := new(widget.Clickable)
	r.cellClicks[id] = c
	return c
}

// ResetCells drops per-cell widget state; call when the record list is
// replaced so stale clickables don't accumulate.
func (r *Renderer) ResetCells() {
	r.cellClicks = make(map[string]*widget.Clickable)
	r.imageOps = make(map[image.Image]paint.ImageOp)
	r.scrollTop = 0
}

// imageOp returns a cached texture handle for img, creating one on first use
func (r *Renderer) imageOp(img image.Image) paint.ImageOp {
	if op, ok := r.imageOps[img]; ok {
		return op
	}
	if len(r.imageOps) > 512 {
		r.imageOps = make(map[image.Image]paint.ImageOp)
	}
	op := paint.NewImageOp(img)
	r.imageOps[img] = op
	return op
}

// handleScroll consumes wheel events over the grid area and clamps the
// offset to the content extent.
func (r *Renderer) handleScroll(gtx layout.Context, viewportHeight int) {
	contentHeight := r.grid.ContentHeightPx()
	maxScroll := contentHeight - viewportHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  &r.scrollTag,
			Kinds:   pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -maxScroll, Max: maxScroll},
		})
		if !ok {
			break
		}
		if e, ok := ev.(pointer.Event); ok && e.Kind == pointer.Scroll {
			r.scrollTop += int(e.Scroll.Y)
		}
	}
	if r.scrollTop > maxScroll {
		r.scrollTop = maxScroll
	}
	if r.scrollTop < 0 {
		r.scrollTop = 0
	}
}

// SetScroll overrides the grid offset, used to restore position on modal close
func (r *Renderer) SetScroll(offset int) {
	r.scrollTop = offset
}

// ScrollTop returns the current grid offset in content pixels
func (r *Renderer) ScrollTop() int {
	return r.scrollTop
}
