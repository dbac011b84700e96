package ui

import (
	"image"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"
)

// layoutNavbar draws the title row and the category filter chips
func (r *Renderer) layoutNavbar(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, colNavbarBg, clip.Rect{Max: gtx.Constraints.Min}.Op())
			// Hairline separator at the bottom edge
			line := image.Rect(0, gtx.Constraints.Min.Y-1, gtx.Constraints.Min.X, gtx.Constraints.Min.Y)
			paint.FillShape(gtx.Ops, colNavbarLine, clip.Rect(line).Op())
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(10)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						title := material.H6(r.Theme, state.Title)
						title.Color = colBlack
						return title.Layout(gtx)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(16)}.Layout),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						return r.layoutCategories(gtx, state, eventOut)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						if r.refreshBtn.Clicked(gtx) {
							*eventOut = UIEvent{Action: ActionRefresh}
						}
						btn := material.Button(r.Theme, &r.refreshBtn, "Refresh")
						btn.Background = colAccent
						btn.Color = colWhite
						if state.Loading {
							btn.Background = colDisabled
						}
						btn.Inset = layout.UniformInset(unit.Dp(6))
						return btn.Layout(gtx)
					}),
				)
			})
		},
	)
}

// layoutCategories draws the horizontal chip list. The "All" chip is
// synthesized with an empty id.
func (r *Renderer) layoutCategories(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	return r.catList.Layout(gtx, len(state.Categories), func(gtx layout.Context, i int) layout.Dimensions {
		item := &state.Categories[i]
		if item.Clickable.Clicked(gtx) {
			*eventOut = UIEvent{Action: ActionSelectCategory, CategoryID: item.ID}
		}
		active := item.ID == state.ActiveCategory
		return layout.Inset{Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			btn := material.Button(r.Theme, &item.Clickable, item.Name)
			btn.Inset = layout.Inset{Top: unit.Dp(4), Bottom: unit.Dp(4), Left: unit.Dp(10), Right: unit.Dp(10)}
			btn.CornerRadius = unit.Dp(12)
			if active {
				btn.Background = colChipActive
				btn.Color = colWhite
			} else {
				btn.Background = colChipBg
				btn.Color = colChipText
			}
			return btn.Layout(gtx)
		})
	})
}
