package ui

import "image/color"

// Theme colors - variables so a dark mode can swap them
var (
	colWhite      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	colBlack      = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	colGray       = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	colBackground = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	colCellBg     = color.NRGBA{R: 232, G: 232, B: 232, A: 255} // "no preview" placeholder
	colNavbarBg   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	colNavbarLine = color.NRGBA{R: 225, G: 225, B: 225, A: 255}
	colAccent     = color.NRGBA{R: 66, G: 133, B: 244, A: 255}
	colChipBg     = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	colChipActive = color.NRGBA{R: 66, G: 133, B: 244, A: 255}
	colChipText   = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	colBackdrop   = color.NRGBA{R: 0, G: 0, B: 0, A: 220} // Modal backdrop
	colModalBtn   = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	colDisabled   = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	// Config error banner colors
	colErrorBannerBg   = color.NRGBA{R: 220, G: 53, B: 69, A: 255}
	colErrorBannerText = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)
