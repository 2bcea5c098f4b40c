package render

import (
	"image/color"

	"blight/internal/structures"
)

var (
	cleanColor  = color.RGBA{R: 52, G: 78, B: 44, A: 255}
	blightColor = color.RGBA{R: 86, G: 24, B: 92, A: 255}
)

// BlightPalette maps every cell value to a color, clean ground at 0 and
// full blight at 255. Values in between blend with a slight bias toward
// the clean end so thin blight fringes stay visible.
func BlightPalette() []color.RGBA {
	palette := make([]color.RGBA, 256)
	for i := range palette {
		t := float64(i) / 255
		t = t * t * (3 - 2*t)
		palette[i] = lerp(cleanColor, blightColor, t)
	}
	return palette
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// StructureColor returns the marker color for a structure type.
func StructureColor(t structures.Type, powered bool) color.RGBA {
	switch t {
	case structures.Water:
		return color.RGBA{R: 60, G: 140, B: 230, A: 255}
	case structures.Ore:
		return color.RGBA{R: 200, G: 170, B: 70, A: 255}
	case structures.Pump, structures.Irrigation:
		if powered {
			return color.RGBA{R: 120, G: 240, B: 140, A: 255}
		}
		return color.RGBA{R: 140, G: 140, B: 150, A: 255}
	}
	return color.RGBA{R: 255, G: 0, B: 255, A: 255}
}

// PipeColor returns the line color for a pipe.
func PipeColor(powered bool) color.RGBA {
	if powered {
		return color.RGBA{R: 110, G: 200, B: 255, A: 220}
	}
	return color.RGBA{R: 110, G: 110, B: 120, A: 200}
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
