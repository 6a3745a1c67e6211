package flock

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/ui"
	"github.com/lucasb-eyer/go-colorful"
)

var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

// Game is the ebiten front end: it schedules ticks, owns the control panel,
// feeds pointer input to the world and draws the agents. All configuration
// edits flow through applyPanel between ticks, never during one.
type Game struct {
	world *World
	cfg   *Config

	panel *ui.Panel

	// Widget references, one per runtime-tunable field
	wMinSpeed        *ui.Slider
	wMaxSpeed        *ui.Slider
	wMaxAccel        *ui.Slider
	wAwareness       *ui.Slider
	wSeparation      *ui.Slider
	wCohesion        *ui.Slider
	wAlignment       *ui.Slider
	wLinearDrag      *ui.Slider
	wMouseAvoidance  *ui.Slider
	wEdgeAvoidance   *ui.Slider
	wInverseSquare   *ui.Checkbox
	wGravity         *ui.Slider
	wCircularBorder  *ui.Checkbox
	wContinuous      *ui.Checkbox
	wHomogeneous     *ui.Checkbox
	wPopulation      *ui.Slider
	wBucketSize      *ui.Slider
	wUseSpatialIndex *ui.Checkbox

	respawnRequested bool

	// Parsed color cache: cohort hex string -> RGBA
	colorCache map[string]color.RGBA

	// Timing instrumentation (exponential moving averages, ms)
	updateAvg float64
	drawAvg   float64
}

// NewGame wires a control panel to the world's configuration.
func NewGame(world *World) *Game {
	cfg := world.Config()
	panel := ui.NewPanel(10, 10, 260, cfg.World.Height-20, "Configuration")

	g := &Game{
		world:      world,
		cfg:        cfg,
		panel:      panel,
		colorCache: make(map[string]color.RGBA),
	}

	b := &cfg.Behavior
	panel.AddSection("Speed & Acceleration")
	g.wMinSpeed = panel.AddSlider("Min Speed", 0.1, 8, b.MinSpeed)
	g.wMaxSpeed = panel.AddSlider("Max Speed", 0.5, 10, b.MaxSpeed)
	g.wMaxAccel = panel.AddSlider("Max Acceleration", 0.05, 2, b.MaxAcceleration)
	panel.EndSection()

	panel.AddSection("Flocking")
	g.wAwareness = panel.AddSlider("Awareness Radius", 10, 200, b.AwarenessRadius)
	g.wSeparation = panel.AddSlider("Separation", 0, 30, b.SeparationWeight)
	g.wCohesion = panel.AddSlider("Cohesion", 0, 0.01, b.CohesionWeight)
	g.wAlignment = panel.AddSlider("Alignment", 0, 0.3, b.AlignmentWeight)
	panel.EndSection()

	panel.AddSection("Avoidance & Drag")
	g.wLinearDrag = panel.AddSlider("Linear Drag", 0, 0.2, b.LinearDrag)
	g.wMouseAvoidance = panel.AddSlider("Mouse Avoidance", 0, 200, b.MouseAvoidance)
	g.wEdgeAvoidance = panel.AddSlider("Edge Avoidance", 0, 5, b.EdgeAvoidance)
	g.wInverseSquare = panel.AddCheckbox("Inverse Square Falloff", b.InverseSquareAvoidance)
	panel.EndSection()

	panel.AddSection("World & Cohorts")
	g.wGravity = panel.AddSlider("Gravity", -1, 1, cfg.World.Gravity)
	g.wCircularBorder = panel.AddCheckbox("Circular Border", cfg.World.CircularBorder)
	g.wContinuous = panel.AddCheckbox("Continuous Cohorts", cfg.World.ContinuousCohorts)
	g.wHomogeneous = panel.AddCheckbox("Homogeneous Grouping", cfg.World.HomogeneousCohorts)
	g.wPopulation = panel.AddSlider("Population", 0, 2000, float64(cfg.World.Population))
	panel.EndSection()

	panel.AddSection("Spatial Index")
	g.wBucketSize = panel.AddSlider("Bucket Size", 10, 200, cfg.Spatial.BucketSize)
	g.wUseSpatialIndex = panel.AddCheckbox("Use Spatial Index", cfg.Spatial.UseSpatialIndex)
	panel.EndSection()

	panel.AddSection("Actions")
	panel.AddButton("Respawn Flock", func() { g.respawnRequested = true })
	panel.EndSection()

	// A translucent background needs the previous frame to persist.
	ebiten.SetScreenClearedEveryFrame(false)

	return g
}

// applyPanel is the fixed field-to-hook mapping: each edited configuration
// field triggers exactly the world hook it needs. Plain fields are written in
// place; derived-cache, spatial and cohort fields call their hook.
func (g *Game) applyPanel() {
	b := &g.cfg.Behavior
	w := &g.cfg.World
	s := &g.cfg.Spatial

	// Keep the minSpeed <= maxSpeed invariant at the UI boundary.
	if g.wMinSpeed.Value > g.wMaxSpeed.Value {
		g.wMinSpeed.Value = g.wMaxSpeed.Value
	}
	b.MinSpeed = g.wMinSpeed.Value
	b.MaxSpeed = g.wMaxSpeed.Value
	b.SeparationWeight = g.wSeparation.Value
	b.CohesionWeight = g.wCohesion.Value
	b.AlignmentWeight = g.wAlignment.Value
	b.LinearDrag = g.wLinearDrag.Value
	b.MouseAvoidance = g.wMouseAvoidance.Value
	b.EdgeAvoidance = g.wEdgeAvoidance.Value
	b.InverseSquareAvoidance = g.wInverseSquare.Value
	w.Gravity = g.wGravity.Value
	w.CircularBorder = g.wCircularBorder.Value

	if b.AwarenessRadius != g.wAwareness.Value || b.MaxAcceleration != g.wMaxAccel.Value {
		b.AwarenessRadius = g.wAwareness.Value
		b.MaxAcceleration = g.wMaxAccel.Value
		g.world.RecomputeDerivedValues()
	}

	if s.BucketSize != g.wBucketSize.Value {
		s.BucketSize = g.wBucketSize.Value
		if err := g.world.ResetSpatialIndex(); err != nil {
			// Slider range keeps the size positive; reset cannot fail here.
			panic(err)
		}
	}
	s.UseSpatialIndex = g.wUseSpatialIndex.Value

	if w.ContinuousCohorts != g.wContinuous.Value || w.HomogeneousCohorts != g.wHomogeneous.Value {
		w.ContinuousCohorts = g.wContinuous.Value
		w.HomogeneousCohorts = g.wHomogeneous.Value
		g.world.AssignCohorts()
	}

	if target := int(g.wPopulation.Value); target != w.Population {
		if err := g.world.SetPopulation(target); err != nil {
			panic(err)
		}
	}

	if g.respawnRequested {
		g.respawnRequested = false
		target := w.Population
		if err := g.world.SetPopulation(0); err == nil {
			_ = g.world.SetPopulation(target)
		}
	}
}

// pointer returns the cursor position when it is over the world surface and
// not over the panel, nil otherwise.
func (g *Game) pointer() *geometry.Vector2D {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	if x < 0 || x > g.cfg.World.Width || y < 0 || y > g.cfg.World.Height {
		return nil
	}
	if g.panel.Contains(x, y) {
		return nil
	}
	return &geometry.Vector2D{X: x, Y: y}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()
	g.applyPanel()
	g.world.Tick(g.pointer())
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	bg := backgroundFill(g.lookupColor(g.cfg.World.BackgroundColor), g.cfg.World.BackgroundOpacity)
	if bg.A == 255 {
		screen.Fill(bg)
	} else {
		// A partial fill dims the previous frame instead of replacing it,
		// leaving fading motion trails behind the agents.
		vector.FillRect(screen, 0, 0,
			float32(g.cfg.World.Width), float32(g.cfg.World.Height),
			bg, false)
	}

	for _, a := range g.world.Agents {
		g.drawAgent(screen, a)
	}

	g.panel.Draw(screen)

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\nAgents: %d\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		len(g.world.Agents),
		g.updateAvg,
		g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.World.Width)-130, 10)
}

// drawAgent renders one agent as a triangle pointing along its heading,
// filled with its cohort color.
func (g *Game) drawAgent(screen *ebiten.Image, a *Agent) {
	angle := a.Vel.Angle()
	clr := g.lookupColor(a.Cohort.Color)
	cr := float32(clr.R) / 255
	cg := float32(clr.G) / 255
	cb := float32(clr.B) / 255

	tip := a.Pos.Add(geometry.NewVectorPolar(6, angle))
	right := a.Pos.Add(geometry.NewVectorPolar(5, angle+2.5))
	left := a.Pos.Add(geometry.NewVectorPolar(5, angle-2.5))

	vertices := []ebiten.Vertex{
		{DstX: float32(tip.X), DstY: float32(tip.Y), SrcX: 1, SrcY: 1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
		{DstX: float32(right.X), DstY: float32(right.Y), SrcX: 1, SrcY: 1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
		{DstX: float32(left.X), DstY: float32(left.Y), SrcX: 1, SrcY: 1, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1},
	}
	indices := []uint16{0, 1, 2}

	screen.DrawTriangles(vertices, indices, whiteImage, &ebiten.DrawTrianglesOptions{})
}

// lookupColor parses a hex color string, caching results. Unparseable
// strings render white rather than failing the frame.
func (g *Game) lookupColor(s string) color.RGBA {
	if c, ok := g.colorCache[s]; ok {
		return c
	}
	parsed, err := colorful.Hex(s)
	rgba := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if err == nil {
		r, gg, b := parsed.RGB255()
		rgba = color.RGBA{R: r, G: gg, B: b, A: 255}
	}
	g.colorCache[s] = rgba
	return rgba
}

// backgroundFill is the per-frame fill color: the configured background with
// its opacity applied as alpha.
func backgroundFill(c color.RGBA, opacity float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(clamp(opacity, 0, 1)*255 + 0.5)}
}

func (g *Game) Layout(w, h int) (int, int) {
	return int(g.cfg.World.Width), int(g.cfg.World.Height)
}
