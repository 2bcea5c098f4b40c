//go:build ebiten

package app

import (
	"log/slog"
	"time"

	"blight/internal/core"
	"blight/internal/render"
	"blight/internal/session"
	"blight/internal/structures"
	"blight/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var toolKeys = []ebiten.Key{ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4}

// Game adapts a blight session to the ebiten.Game interface.
type Game struct {
	sess    *session.Session
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD
	timer   *core.FixedStep
	cfg     Config
	log     *slog.Logger

	tool       structures.Type
	lastPlaced int64
	paused     bool
	tickOnce   bool
	seed       int64
}

// New constructs a Game for the provided session.
func New(sess *session.Session, cfg Config, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.Default()
	}
	size := sess.Size()
	g := &Game{
		sess:    sess,
		painter: render.NewGridPainter(size.W, size.H),
		overlay: ui.NewOverlay(sess, cfg.Scale),
		hud:     ui.NewHUD(sess, cfg.HUDWidth),
		timer:   core.NewFixedStep(cfg.SimTPS),
		cfg:     cfg,
		log:     logger.With("component", "viewer"),
		tool:    structures.Pump,
		seed:    sess.Config().Seed,
	}
	g.hud.SetTool(g.tool.String())
	return g
}

// Reset rebuilds the session with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sess.Reset(seed)
	g.lastPlaced = 0
	g.tickOnce = false
	g.overlay.SetHighlight(0)
}

// Update handles per-frame input and advances the session on its own
// fixed step.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	for i, key := range toolKeys {
		if inpututil.IsKeyJustPressed(key) {
			g.tool = structures.Types()[i]
			g.hud.SetTool(g.tool.String())
		}
	}

	g.handleMouse()
	g.overlay.Update()
	g.hud.Update(g.gridWidth())

	if g.paused && !g.tickOnce {
		return nil
	}
	switch {
	case g.tickOnce:
		g.sess.Step()
		g.tickOnce = false
	case g.timer.ShouldStep():
		res := g.sess.Tick(g.timer.Step().Seconds())
		if res.Blight != nil {
			g.log.Info("blight claimed structures", "ids", res.Blight.RemovedStructureIDs)
		}
	default:
		return nil
	}
	if g.lastPlaced != 0 {
		if _, ok := g.sess.Structure(g.lastPlaced); !ok {
			g.lastPlaced = 0
		}
	}
	return nil
}

func (g *Game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	if mx < 0 || my < 0 || mx >= g.gridWidth() {
		return
	}
	proj := g.sess.Projection()
	pos := ui.WorldPoint(proj, mx, my, g.cfg.Scale)

	hover, ok := ui.Nearest(g.sess.Structures(), pos, g.cfg.Reach)
	if ok {
		g.overlay.SetHighlight(hover)
	} else {
		g.overlay.SetHighlight(0)
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		req := session.AddStructure{Position: pos, Type: g.tool}
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			req.PipeFrom = g.lastPlaced
		}
		res, err := g.sess.AddStructure(req)
		if err != nil {
			g.log.Warn("place failed", "type", g.tool, "err", err)
			return
		}
		g.lastPlaced = res.ID
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) && ok:
		if res := g.sess.RemoveStructure(hover); res != nil {
			g.log.Info("demolished", "id", hover, "pipes", res.RemovedPipeIDs)
		}
		if hover == g.lastPlaced {
			g.lastPlaced = 0
		}
	}
}

func (g *Game) gridWidth() int { return g.sess.Size().W * g.cfg.Scale }

// Draw renders the blight texture, the overlay and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sess.Texture(), g.cfg.Scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.gridWidth(), g.cfg.Scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sess.Size()
	return s.W*g.cfg.Scale + g.cfg.HUDWidth, s.H * g.cfg.Scale
}
