//go:build ebiten

package ui

import (
	"image/color"

	"blight/internal/pipes"
	"blight/internal/render"
	"blight/internal/session"
	"blight/internal/structures"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Scene is what the overlay reads each frame.
type Scene interface {
	Structures() []structures.Structure
	Pipes() []pipes.Pipe
	Power() pipes.PowerState
	Projection() session.Projection
	QueryEffectRadius(id int64) *session.QueryResult
	Config() session.Config
}

// Overlay draws structures, pipes and the effect radius of the highlighted
// structure on top of the blight texture.
type Overlay struct {
	scene Scene
	scale int

	showPipes  bool
	showRadius bool
	highlight  int64
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(scene Scene, scale int) *Overlay {
	return &Overlay{scene: scene, scale: max(scale, 1), showPipes: true, showRadius: true}
}

// Update toggles layers: P for pipes, E for effect radii.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		o.showPipes = !o.showPipes
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		o.showRadius = !o.showRadius
	}
}

// SetHighlight selects the structure whose radius is drawn; 0 clears it.
func (o *Overlay) SetHighlight(id int64) { o.highlight = id }

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	proj := o.scene.Projection()
	all := o.scene.Structures()
	byID := make(map[int64]structures.Structure, len(all))
	for _, st := range all {
		byID[st.ID] = st
	}

	if o.showPipes {
		power := o.scene.Power()
		width := float32(o.scale) * 0.6
		for _, p := range o.scene.Pipes() {
			a, okA := byID[p.A]
			b, okB := byID[p.B]
			if !okA || !okB {
				continue
			}
			x0, y0 := ScreenPoint(proj, a.Position, o.scale)
			x1, y1 := ScreenPoint(proj, b.Position, o.scale)
			vector.StrokeLine(screen, x0, y0, x1, y1, width, render.PipeColor(power.PoweredPipes[p.ID]), true)
		}
	}

	if o.showRadius && o.highlight != 0 {
		if st, ok := byID[o.highlight]; ok {
			o.drawEffect(screen, proj, st, byID)
		}
	}

	marker := float32(o.scale) * 1.5
	full := o.scene.Config().Params.StructureHealth
	for _, st := range all {
		x, y := ScreenPoint(proj, st.Position, o.scale)
		vector.DrawFilledCircle(screen, x, y, marker, render.StructureColor(st.Type, st.Powered), true)
		if st.Type.DamageRadius() > 0 && st.Health < full {
			o.drawHealth(screen, x, y, marker, float32(st.Health/full))
		}
	}
}

func (o *Overlay) drawEffect(screen *ebiten.Image, proj session.Projection, st structures.Structure, byID map[int64]structures.Structure) {
	x, y := ScreenPoint(proj, st.Position, o.scale)
	if dr := st.Type.DamageRadius(); dr > 0 {
		vector.StrokeCircle(screen, x, y, ScreenRadius(proj, dr, o.scale), 1, color.RGBA{R: 220, G: 90, B: 90, A: 160}, true)
	}
	res := o.scene.QueryEffectRadius(st.ID)
	if res == nil {
		return
	}
	vector.StrokeCircle(screen, x, y, ScreenRadius(proj, res.Radius, o.scale), 1, color.RGBA{R: 120, G: 230, B: 200, A: 200}, true)
	for _, id := range res.AffectedIDs {
		other, ok := byID[id]
		if !ok {
			continue
		}
		ox, oy := ScreenPoint(proj, other.Position, o.scale)
		vector.StrokeCircle(screen, ox, oy, float32(o.scale)*2.5, 1, color.RGBA{R: 255, G: 255, B: 255, A: 180}, true)
	}
}

func (o *Overlay) drawHealth(screen *ebiten.Image, x, y, marker, frac float32) {
	frac = min(max(frac, 0), 1)
	w := marker * 3
	top := y - marker - 4
	vector.DrawFilledRect(screen, x-w/2, top, w, 2, color.RGBA{R: 40, G: 10, B: 10, A: 200}, false)
	vector.DrawFilledRect(screen, x-w/2, top, w*frac, 2, color.RGBA{R: 240, G: 80, B: 60, A: 230}, false)
}
