package ui

import (
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/gallery"
)

// layoutModal paints the detail viewer over the whole window. The large
// image uses the same back/front double-buffer discipline as grid cells:
// the thumbnail tier shows immediately (it was warmed before the modal
// opened), the detail tier swaps in only after a committed frame.
//
// While the modal is open the grid does not receive scroll events (the
// backdrop covers its hit area), freezing the list; the controller
// restores the saved offset on close.
func (r *Renderer) layoutModal(gtx layout.Context, eventOut *UIEvent) {
	rec, ok := r.grid.SelectedRecord()
	if !ok {
		return
	}

	// Rebind the visual when navigation changed the record. Stale load
	// completions for the previous record are discarded by the visual's
	// own id check. Select warmed the detail tier before opening, so the
	// front usually lands on the first load pass.
	if r.modalVisual == nil || r.modalVisual.ImageID() != rec.ID {
		r.modalVisual = gallery.NewCellVisual(rec, r.cache)
		r.modalVisual.LoadTiers(r.grid.Context(), r.cache, rec, rec.DetailURL(), r.invalidate)
	}

	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	paint.FillShape(gtx.Ops, colBackdrop, clip.Rect{Max: gtx.Constraints.Max}.Op())

	// Swipe navigation over the whole backdrop
	if dir := r.modalSwipe.Update(gtx); dir != 0 {
		*eventOut = UIEvent{Action: ActionNavigateImage, Delta: dir}
	}
	r.modalSwipe.Add(gtx)

	// Image area, inset for the controls
	layout.UniformInset(unit.Dp(48)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		size := gtx.Constraints.Max
		front := r.modalVisual.Front()
		if front != nil {
			widget.Image{
				Src:      r.imageOp(front),
				Fit:      widget.Contain,
				Position: layout.Center,
			}.Layout(gtx)
			if r.modalVisual.FrontPending() {
				r.paintedFronts = append(r.paintedFronts, r.modalVisual)
			}
		}
		if back, show := r.modalVisual.Back(); show && back != nil {
			widget.Image{
				Src:      r.imageOp(back),
				Fit:      widget.Contain,
				Position: layout.Center,
			}.Layout(gtx)
		}
		return layout.Dimensions{Size: size}
	})

	// Close button, top right
	layout.NE.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			if r.closeBtn.Clicked(gtx) {
				*eventOut = UIEvent{Action: ActionCloseModal}
			}
			btn := material.Button(r.Theme, &r.closeBtn, "✕")
			btn.Background = colModalBtn
			btn.Color = colBlack
			return btn.Layout(gtx)
		})
	})

	// Prev / next arrows; hidden at the list boundaries since navigation
	// there is a no-op, never a wrap.
	index := r.grid.Selected()
	records, _, _ := r.grid.Snapshot()
	if index > 0 {
		layout.W.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				if r.prevBtn.Clicked(gtx) {
					*eventOut = UIEvent{Action: ActionNavigateImage, Delta: -1}
				}
				btn := material.Button(r.Theme, &r.prevBtn, "‹")
				btn.Background = colModalBtn
				btn.Color = colBlack
				return btn.Layout(gtx)
			})
		})
	}
	if index < len(records)-1 {
		layout.E.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				if r.nextBtn.Clicked(gtx) {
					*eventOut = UIEvent{Action: ActionNavigateImage, Delta: 1}
				}
				btn := material.Button(r.Theme, &r.nextBtn, "›")
				btn.Background = colModalBtn
				btn.Color = colBlack
				return btn.Layout(gtx)
			})
		})
	}
}
