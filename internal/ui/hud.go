//go:build ebiten

package ui

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"blight/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var (
	panelColor = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	titleColor = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	textColor  = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	dimColor   = color.RGBA{R: 150, G: 150, B: 160, A: 255}
)

// HUD renders the status and parameter panel to the right of the grid.
type HUD struct {
	sim   core.Sim
	width int
	panel *ebiten.Image

	snapshot core.ParameterSnapshot
	status   []core.Parameter
	tool     string

	controls    []hudControl
	intSetter   core.IntParameterSetter
	floatSetter core.FloatParameterSetter
	offsetX     int
}

type hudControl struct {
	control core.ParameterControl

	value      string
	intValue   int
	floatValue float64
	hasValue   bool

	top       int
	minusRect image.Rectangle
	plusRect  image.Rectangle
}

// NewHUD constructs a HUD for the provided simulation and panel width.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0)}
	if provider, ok := sim.(core.ParameterControlsProvider); ok {
		for _, ctrl := range provider.ParameterControls() {
			h.controls = append(h.controls, hudControl{control: ctrl, value: "--"})
		}
	}
	h.intSetter, _ = sim.(core.IntParameterSetter)
	h.floatSetter, _ = sim.(core.FloatParameterSetter)
	return h
}

// SetTool names the structure type the next click places.
func (h *HUD) SetTool(name string) {
	if h != nil {
		h.tool = name
	}
}

// Update refreshes the snapshot and handles clicks on the +/- buttons.
func (h *HUD) Update(offsetX int) {
	if h == nil {
		return
	}
	h.offsetX = offsetX
	provider, ok := h.sim.(core.ParameterProvider)
	if !ok {
		h.snapshot = core.ParameterSnapshot{}
		return
	}
	h.snapshot = provider.Parameters()
	h.status = h.status[:0]
	values := map[string]core.Parameter{}
	for _, group := range h.snapshot.Groups {
		for _, p := range group.Params {
			values[p.Key] = p
		}
		if group.Name == "Status" {
			h.status = append(h.status, group.Params...)
		}
	}
	for i := range h.controls {
		h.controls[i].refresh(values)
	}
	h.layout()
	h.handleInput()
}

func (c *hudControl) refresh(values map[string]core.Parameter) {
	c.hasValue = false
	c.value = "--"
	p, ok := values[c.control.Key]
	if !ok {
		return
	}
	switch c.control.Type {
	case core.ParamTypeInt:
		v, err := strconv.Atoi(p.Value)
		if err != nil {
			return
		}
		c.intValue, c.floatValue = v, float64(v)
		c.value = strconv.Itoa(v)
	case core.ParamTypeFloat:
		v, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return
		}
		c.floatValue = v
		c.value = strconv.FormatFloat(v, 'f', precisionFor(c.control.Step), 64)
	default:
		return
	}
	c.hasValue = true
}

func precisionFor(step float64) int {
	switch {
	case step <= 0 || step >= 1:
		return 0
	case step < 0.01:
		return 3
	case step < 0.1:
		return 2
	default:
		return 1
	}
}

func (h *HUD) layout() {
	top := controlsTop + (len(h.status)+1)*statusLine
	for i := range h.controls {
		c := &h.controls[i]
		c.top = top + i*lineHeight
		y := c.top + (lineHeight-buttonSize)/2
		c.plusRect = image.Rect(h.width-panelPadding-buttonSize, y, h.width-panelPadding, y+buttonSize)
		c.minusRect = image.Rect(c.plusRect.Min.X-buttonGap-buttonSize, y, c.plusRect.Min.X-buttonGap, y+buttonSize)
	}
}

func (h *HUD) handleInput() {
	if len(h.controls) == 0 || !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	px := mx - h.offsetX
	if px < 0 {
		return
	}
	for i := range h.controls {
		c := &h.controls[i]
		if !c.hasValue {
			continue
		}
		switch {
		case image.Pt(px, my).In(c.minusRect):
			h.adjust(c, -1)
			return
		case image.Pt(px, my).In(c.plusRect):
			h.adjust(c, 1)
			return
		}
	}
}

// target computes the value one step in direction, clamped to the
// control's bounds. ok is false when the value would not move.
func (c *hudControl) target(direction int) (float64, bool) {
	step := c.control.Step
	if step <= 0 {
		step = 1
	}
	next := c.floatValue + float64(direction)*step
	if c.control.Type == core.ParamTypeInt {
		next = math.Round(next)
	}
	if c.control.HasMin {
		next = math.Max(next, c.control.Min)
	}
	if c.control.HasMax {
		next = math.Min(next, c.control.Max)
	}
	return next, math.Abs(next-c.floatValue) > 1e-9
}

func (h *HUD) adjust(c *hudControl, direction int) {
	next, ok := c.target(direction)
	if !ok {
		return
	}
	switch c.control.Type {
	case core.ParamTypeInt:
		if h.intSetter != nil && h.intSetter.SetIntParameter(c.control.Key, int(next)) {
			c.intValue, c.floatValue = int(next), next
			c.value = strconv.Itoa(int(next))
		}
	case core.ParamTypeFloat:
		if h.floatSetter != nil && h.floatSetter.SetFloatParameter(c.control.Key, next) {
			c.floatValue = next
			c.value = strconv.FormatFloat(next, 'f', precisionFor(c.control.Step), 64)
		}
	}
}

// Draw paints the HUD panel at offsetX.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	text.Draw(h.panel, "Blight", face, panelPadding, y, titleColor)
	if h.tool != "" {
		text.Draw(h.panel, "tool: "+h.tool, face, h.width/2, y, dimColor)
	}
	y = controlsTop
	for _, p := range h.status {
		text.Draw(h.panel, p.Label+": "+p.Value, face, panelPadding, y, textColor)
		y += statusLine
	}

	for i := range h.controls {
		c := &h.controls[i]
		labelY := c.top + labelBaseline
		text.Draw(h.panel, c.control.Label, face, panelPadding, labelY, textColor)
		valueColor := textColor
		if !c.hasValue {
			valueColor = dimColor
		}
		w := text.BoundString(face, c.value).Dx()
		text.Draw(h.panel, c.value, face, c.minusRect.Min.X-buttonGap-w, labelY, valueColor)
		_, canDown := c.target(-1)
		_, canUp := c.target(1)
		h.drawButton(c.minusRect, "-", c.hasValue && canDown)
		h.drawButton(c.plusRect, "+", c.hasValue && canUp)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	vector.DrawFilledRect(h.panel, float32(rect.Min.X), float32(rect.Min.Y), float32(rect.Dx()), float32(rect.Dy()), bg, false)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-b.Dx())/2
	y := rect.Min.Y + (rect.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

const (
	panelPadding   = 12
	lineHeight     = 36
	statusLine     = 16
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	controlsTop    = panelPadding + headerBaseline + 22
)
