package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// Snapshot renders a row-major grid to an image scaled by an integer
// factor with nearest-neighbour sampling.
func Snapshot(cells []uint8, w, h, scale int, palette []color.RGBA) (*image.RGBA, error) {
	if w <= 0 || h <= 0 || len(cells) != w*h {
		return nil, fmt.Errorf("render: %d cells do not fill a %dx%d grid", len(cells), w, h)
	}
	if scale <= 0 {
		scale = 1
	}
	if palette == nil {
		palette = BlightPalette()
	}
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	fillPaletteRGBA(src.Pix, cells, palette)
	if scale == 1 {
		return src, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// WritePNG encodes a Snapshot of the grid to out.
func WritePNG(out io.Writer, cells []uint8, w, h, scale int) error {
	img, err := Snapshot(cells, w, h, scale, nil)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}
