package imagecache

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// maxDecodeEdge caps decoded images at a GPU-friendly texture edge; larger
// sources are downscaled before rasterizing so one oversized original cannot
// blow the decoded LRU budget.
const maxDecodeEdge = 4096

// decodeFull decodes data, downscales anything exceeding maxEdge on either
// axis, and rasterizes into an RGBA image so later paints never pay a
// conversion cost. maxEdge <= 0 disables the cap.
func decodeFull(data []byte, maxEdge int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if maxEdge > 0 {
		img = Scale(img, maxEdge, maxEdge)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba, nil
}

// ProbeSize reads just enough of data to report intrinsic pixel dimensions
func ProbeSize(data []byte) (image.Point, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Point{}, err
	}
	return image.Point{X: cfg.Width, Y: cfg.Height}, nil
}

// DecodeInline decodes a base64 data URI ("data:image/jpeg;base64,...")
// or a bare base64 payload into an image. Inline payloads are tiny preview
// stand-ins embedded in feed records, decoded synchronously on mount.
func DecodeInline(payload string) (image.Image, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty inline payload")
	}
	if idx := strings.Index(payload, "base64,"); idx >= 0 {
		payload = payload[idx+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some producers emit URL-safe base64
		data, err = base64.URLEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode inline payload: %w", err)
		}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode inline image: %w", err)
	}
	return img, nil
}

// Scale resizes src to fit within maxW x maxH preserving aspect ratio.
// Returns src unchanged when it already fits.
func Scale(src image.Image, maxW, maxH int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return src
	}
	ratio := float64(w) / float64(h)
	newW, newH := maxW, int(float64(maxW)/ratio)
	if newH > maxH {
		newH = maxH
		newW = int(float64(maxH) * ratio)
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
