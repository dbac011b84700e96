package ui

import (
	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
)

// SwipeRecognizer turns horizontal drags over an area into navigation.
// A release counts as a swipe only when the horizontal displacement both
// exceeds the threshold and dominates the vertical displacement, so
// vertical panning over the image is never misread as navigation.
type SwipeRecognizer struct {
	// ThresholdPx is the minimum horizontal travel; zero means 50
	ThresholdPx int

	drag     gesture.Drag
	pressPos f32.Point
	delta    f32.Point
	pid      pointer.ID
	tracking bool
}

// Update processes drag events and returns the swipe direction for any
// completed swipe: -1 (swipe right, go to previous), +1 (swipe left, go to
// next), 0 for none.
func (s *SwipeRecognizer) Update(gtx layout.Context) int {
	threshold := s.ThresholdPx
	if threshold <= 0 {
		threshold = 50
	}

	dir := 0
	for {
		e, ok := s.drag.Update(gtx.Metric, gtx.Source, gesture.Horizontal)
		if !ok {
			break
		}
		switch e.Kind {
		case pointer.Press:
			s.pressPos = e.Position
			s.delta = f32.Point{}
			s.pid = e.PointerID
			s.tracking = true
		case pointer.Drag:
			if s.tracking && e.PointerID == s.pid {
				s.delta = e.Position.Sub(s.pressPos)
			}
		case pointer.Release:
			if s.tracking {
				dx, dy := s.delta.X, s.delta.Y
				if dx < 0 {
					dx = -dx
				}
				if dy < 0 {
					dy = -dy
				}
				if dx >= float32(threshold) && dx > dy {
					if s.delta.X < 0 {
						dir = 1 // Swiped left: advance
					} else {
						dir = -1 // Swiped right: go back
					}
				}
			}
			s.tracking = false
		case pointer.Cancel:
			s.tracking = false
		}
	}
	return dir
}

// Add registers the recognizer's hit area, sized to the current clip
func (s *SwipeRecognizer) Add(gtx layout.Context) {
	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	s.drag.Add(gtx.Ops)
}
