// Package gallery holds the rendering-independent core of the image grid:
// the masonry layout engine, dimension resolver, viewport scheduler,
// progressive cell state machine and the grid controller that ties them
// together. Nothing in this package imports a UI toolkit.
package gallery

import (
	"image"
	"math"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/config"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/feed"
)

// fallbackAspect assumes a common 4:3 photo when no dimensions are known
const fallbackAspect = 4.0 / 3.0

// LayoutCell is one placed grid item. Column and RowStart are 1-based.
// Cells are derived and ephemeral: every layout pass recomputes the full
// slice, nothing mutates a cell in place.
type LayoutCell struct {
	ImageID  string
	Column   int
	RowStart int
	RowSpan  int
}

// LayoutParams carries the grid geometry and band table for one pass
type LayoutParams struct {
	ColumnCount   int
	ColumnWidthPx float64
	Gap           int
	BaseRowHeight int
	MaxRowSpan    int
	Bands         []config.BandConfig
}

// ParamsFromConfig builds LayoutParams for a container width using the
// configured grid geometry. Column count grows with available width, one
// column per MinColumnWidth plus gap, never below one.
func ParamsFromConfig(grid config.GridConfig, bands []config.BandConfig, containerWidth int) LayoutParams {
	cols := (containerWidth + grid.Gap) / (grid.MinColumnWidth + grid.Gap)
	if cols < 1 {
		cols = 1
	}
	colWidth := float64(containerWidth-(cols-1)*grid.Gap) / float64(cols)
	if colWidth < 1 {
		colWidth = 1
	}
	return LayoutParams{
		ColumnCount:   cols,
		ColumnWidthPx: colWidth,
		Gap:           grid.Gap,
		BaseRowHeight: grid.BaseRowHeight,
		MaxRowSpan:    grid.MaxRowSpan,
		Bands:         bands,
	}
}

// RowUnit is the pixel height of one grid row plus its gap
func (p LayoutParams) RowUnit() int {
	return p.BaseRowHeight + p.Gap
}

// CellHeightPx converts a row span back to the pixel height it occupies
func (p LayoutParams) CellHeightPx(span int) int {
	return span*p.RowUnit() - p.Gap
}

// ComputeLayout places every record into a column. Pure and deterministic:
// same inputs, same placement. dims overrides record dimensions where the
// resolver has probed actual pixel sizes.
//
// Packing is shortest-column: each image lands in the column with the least
// cumulative height, lowest index on ties. The goal is even column heights,
// not content-aware grouping.
func ComputeLayout(records []feed.ImageRecord, dims map[string]image.Point, p LayoutParams) []LayoutCell {
	if p.ColumnCount < 1 || len(records) == 0 {
		return nil
	}

	rowUnit := p.RowUnit()
	heights := make([]int, p.ColumnCount) // cumulative pixel height per column
	cells := make([]LayoutCell, 0, len(records))

	for _, rec := range records {
		aspect := recordAspect(rec, dims)
		span := rowSpanFor(aspect, p)

		col := 0
		for i := 1; i < p.ColumnCount; i++ {
			if heights[i] < heights[col] {
				col = i
			}
		}

		cells = append(cells, LayoutCell{
			ImageID:  rec.ID,
			Column:   col + 1,
			RowStart: heights[col]/rowUnit + 1,
			RowSpan:  span,
		})
		heights[col] += span * rowUnit
	}

	debug.Log(debug.LAYOUT, "placed %d cells in %d cols (width %.1f)", len(cells), p.ColumnCount, p.ColumnWidthPx)
	return cells
}

// recordAspect resolves width/height into an aspect ratio, preferring
// probed dimensions over record metadata. Degenerate and non-finite values
// fall back to the 4:3 default so layout always produces a finite placement.
func recordAspect(rec feed.ImageRecord, dims map[string]image.Point) float64 {
	var w, h float64
	if d, ok := dims[rec.ID]; ok && d.X > 0 && d.Y > 0 {
		w, h = float64(d.X), float64(d.Y)
	} else if rec.Width > 0 && rec.Height > 0 {
		w, h = float64(rec.Width), float64(rec.Height)
	} else {
		return fallbackAspect
	}
	aspect := w / h
	if math.IsNaN(aspect) || math.IsInf(aspect, 0) || aspect <= 0 {
		return fallbackAspect
	}
	return aspect
}

// bandFor picks the target height band for an aspect ratio. Bounded bands
// own both their boundaries; the open-ended bands at the extremes are
// exclusive where they abut a bounded band, so an aspect of exactly 2.0 is
// standard landscape, not ultra-wide, and exactly 0.6 is standard portrait,
// not tall. Aspects that fall in a gap between configured bands resolve to
// the nearest band by boundary distance.
func bandFor(aspect float64, bands []config.BandConfig) config.BandConfig {
	if len(bands) == 0 {
		return config.BandConfig{MinHeight: 240, MaxHeight: 260}
	}

	best := bands[0]
	bestDist := math.Inf(1)
	for _, b := range bands {
		min, max := b.MinAspect, b.MaxAspect
		switch {
		case max == 0: // unbounded above
			if aspect > min {
				return b
			}
			max = math.Inf(1)
		case min == 0: // lowest band
			if aspect < max {
				return b
			}
		default:
			if aspect >= min && aspect <= max {
				return b
			}
		}
		dist := math.Min(math.Abs(aspect-min), math.Abs(aspect-max))
		if dist < bestDist {
			bestDist = dist
			best = b
		}
	}
	return best
}

// rowSpanFor converts an aspect ratio at the column width into an integer
// row span.
//
// The natural display height is clamped into the aspect band to get the
// target height; a natural height already inside the band is kept unchanged
// so the grid stays organic rather than snapping to band edges. The exact
// span quotient is then rounded to the floor, round and ceil candidates,
// scored by distance to the target with result heights outside the band
// penalized at twice the rate, lowest score wins with ties broken toward
// the rounded value.
func rowSpanFor(aspect float64, p LayoutParams) int {
	band := bandFor(aspect, p.Bands)

	natural := p.ColumnWidthPx / aspect
	if math.IsNaN(natural) || math.IsInf(natural, 0) || natural <= 0 {
		natural = band.MinHeight
	}
	target := natural
	if target < band.MinHeight {
		target = band.MinHeight
	}
	if target > band.MaxHeight {
		target = band.MaxHeight
	}

	rowUnit := float64(p.RowUnit())
	exact := (target + float64(p.Gap)) / rowUnit
	rounded := int(math.Round(exact))

	candidates := []int{int(math.Floor(exact)), rounded, int(math.Ceil(exact))}
	bestSpan := rounded
	bestScore := math.Inf(1)
	for _, span := range candidates {
		if span < 1 {
			span = 1
		}
		if span > p.MaxRowSpan {
			span = p.MaxRowSpan
		}
		height := float64(span)*rowUnit - float64(p.Gap)
		score := math.Abs(height - target)
		if height < band.MinHeight || height > band.MaxHeight {
			score *= 2
		}
		if score < bestScore || (score == bestScore && span == rounded) {
			bestScore = score
			bestSpan = span
		}
	}

	if bestSpan < 1 {
		bestSpan = 1
	}
	if bestSpan > p.MaxRowSpan {
		bestSpan = p.MaxRowSpan
	}
	return bestSpan
}
