package ui

import (
	"image"

	"gioui.org/io/event"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/gallery"
)

// layoutMasonry paints the grid: every cell placed at its absolute
// layout position, offset by the scroll, culled to the viewport. Painting
// a cell never waits on a load; the cell's back layer (seeded at mount)
// shows until the front layer has a committed frame.
func (r *Renderer) layoutMasonry(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	size := gtx.Constraints.Max
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()

	// Register for wheel events over the whole grid area
	event.Op(gtx.Ops, &r.scrollTag)
	r.handleScroll(gtx, size.Y)

	records, cells, params := r.grid.Snapshot()
	if len(cells) == 0 {
		if state.Loading {
			label := material.Body1(r.Theme, "Loading…")
			label.Color = colGray
			layout.Center.Layout(gtx, label.Layout)
		}
		return layout.Dimensions{Size: size}
	}

	// Feed the viewport to the scheduler before painting so near-visible
	// cells start loading this frame.
	r.grid.OnScroll(r.scrollTop, size.Y)

	rowUnit := params.RowUnit()
	colStride := int(params.ColumnWidthPx) + params.Gap
	cellWidth := int(params.ColumnWidthPx)

	for i, cell := range cells {
		if i >= len(records) {
			break
		}
		x := (cell.Column - 1) * colStride
		y := (cell.RowStart-1)*rowUnit - r.scrollTop
		h := cell.RowSpan*rowUnit - params.Gap
		if y+h < 0 || y > size.Y {
			continue
		}

		rec := records[i]
		visual, ok := r.grid.Visual(rec.ID)
		if !ok {
			continue
		}

		offset := op.Offset(image.Pt(x, y)).Push(gtx.Ops)
		clicked := r.layoutCell(gtx, visual, cellWidth, h, r.cellClick(rec.ID))
		offset.Pop()

		if clicked {
			*eventOut = UIEvent{Action: ActionOpenImage, Index: i}
		}
	}

	// Infinite scroll: request the next page when within two screens of
	// the bottom.
	if state.HasMore && !state.Loading {
		if r.scrollTop+3*size.Y >= r.grid.ContentHeightPx() {
			*eventOut = UIEvent{Action: ActionLoadMore}
		}
	}

	return layout.Dimensions{Size: size}
}

// layoutCell paints one cell's layers into a w x h box.
//
// Layer order when the front is pending: front underneath, back on top, so
// the swap is invisible until the committed frame hides the back. The back
// layer is hidden, never unmounted.
func (r *Renderer) layoutCell(gtx layout.Context, visual *gallery.CellVisual, w, h int, click *widget.Clickable) bool {
	bounds := image.Pt(w, h)
	defer clip.Rect{Max: bounds}.Push(gtx.Ops).Pop()

	gtx.Constraints.Min = bounds
	gtx.Constraints.Max = bounds

	// Muted placeholder under everything; visible only while the cell has
	// no seeded content at all.
	paint.FillShape(gtx.Ops, colCellBg, clip.Rect{Max: bounds}.Op())

	front := visual.Front()
	if front != nil {
		widget.Image{
			Src:      r.imageOp(front),
			Fit:      widget.Cover,
			Position: layout.Center,
		}.Layout(gtx)
		if visual.FrontPending() {
			r.paintedFronts = append(r.paintedFronts, visual)
		}
	}
	if back, show := visual.Back(); show && back != nil {
		widget.Image{
			Src:      r.imageOp(back),
			Fit:      widget.Cover,
			Position: layout.Center,
		}.Layout(gtx)
	}

	// Click target over the full cell
	clicked := click.Clicked(gtx)
	click.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Dimensions{Size: bounds}
	})
	return clicked
}
