package flock

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"go.uber.org/zap"
)

// World owns the agent collection and the shared configuration, and runs the
// per-tick pipeline: rebuild the spatial index, compute every agent's
// acceleration, then integrate every agent. It is single-threaded: the frame
// driver calls Tick and applies configuration edits only between ticks,
// through the mutation hooks below.
type World struct {
	Agents []*Agent

	cfg     *Config
	derived DerivedValues
	index   *SpatialIndex
	rng     *rand.Rand
	log     *zap.SugaredLogger

	// Reused neighbor buffer; queries within a tick are sequential.
	scratch []Neighbor
}

// NewWorld builds a world from cfg (which it keeps and shares with every
// agent) and spawns the initial population. rng may be nil for a randomly
// seeded source, logger may be nil to disable logging.
func NewWorld(cfg *Config, rng *rand.Rand, logger *zap.SugaredLogger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	index, err := NewSpatialIndex(cfg.Spatial.BucketSize, cfg.World.Width, cfg.World.Height)
	if err != nil {
		return nil, err
	}

	w := &World{
		cfg:   cfg,
		index: index,
		rng:   rng,
		log:   logger,
	}
	w.derived.Refresh(&cfg.Behavior)

	if err := w.SetPopulation(cfg.World.Population); err != nil {
		return nil, err
	}

	w.log.Infow("world ready",
		"population", len(w.Agents),
		"world", fmt.Sprintf("%gx%g", cfg.World.Width, cfg.World.Height),
		"bucketSize", cfg.Spatial.BucketSize,
		"spatialIndex", cfg.Spatial.UseSpatialIndex,
	)
	return w, nil
}

// Config exposes the shared configuration to the configuration layer. Edits
// must happen between ticks and go through the matching mutation hook.
func (w *World) Config() *Config {
	return w.cfg
}

// SetPopulation grows the collection by appending fresh agents or shrinks it
// by truncating from the end, then reassigns cohorts over the survivors.
// Seeds of surviving agents never change.
func (w *World) SetPopulation(target int) error {
	if target < 0 {
		return fmt.Errorf("population target must be >= 0, got %d", target)
	}

	before := len(w.Agents)
	if target < before {
		for i := target; i < before; i++ {
			w.Agents[i] = nil
		}
		w.Agents = w.Agents[:target]
	}
	for len(w.Agents) < target {
		pos := geometry.Vector2D{
			X: w.rng.Float64() * w.cfg.World.Width,
			Y: w.rng.Float64() * w.cfg.World.Height,
		}
		// Random heading at unit speed.
		vel := geometry.NewVectorPolar(1, w.rng.Float64()*2*math.Pi)
		a := NewAgent(&w.cfg.World, &w.cfg.Behavior, &w.derived, pos, vel, w.rng.Float64())
		w.Agents = append(w.Agents, a)
	}

	w.cfg.World.Population = target
	AssignCohorts(w.Agents, &w.cfg.World)

	if target != before {
		w.log.Infow("population resized", "from", before, "to", target)
	}
	return nil
}

// ResetSpatialIndex reallocates the grid. Call after bucketSize or the world
// dimensions change.
func (w *World) ResetSpatialIndex() error {
	return w.index.Reset(w.cfg.Spatial.BucketSize, w.cfg.World.Width, w.cfg.World.Height)
}

// RecomputeDerivedValues refreshes the squared caches. Call after
// awarenessRadius or maxAcceleration changes.
func (w *World) RecomputeDerivedValues() {
	w.derived.Refresh(&w.cfg.Behavior)
}

// AssignCohorts recomputes cohort identities and colors from the current
// configuration. Call after any cohort-related field changes.
func (w *World) AssignCohorts() {
	AssignCohorts(w.Agents, &w.cfg.World)
}

// Tick advances the simulation one step. pointer is the current pointer
// position, or nil when the pointer is off the simulation surface.
//
// Acceleration is computed for all agents before any agent integrates, so no
// force computation ever observes half-updated state; interleaving would make
// the result depend on iteration order.
func (w *World) Tick(pointer *geometry.Vector2D) {
	radius := w.cfg.Behavior.AwarenessRadius

	if w.cfg.Spatial.UseSpatialIndex {
		w.index.Clear()
		for _, a := range w.Agents {
			w.index.Insert(a)
		}
		for _, a := range w.Agents {
			w.scratch = w.index.Neighbors(a.Pos, radius, a, w.scratch)
			a.ComputeAcceleration(w.scratch, pointer)
		}
	} else {
		for _, a := range w.Agents {
			w.scratch = w.bruteForceNeighbors(a, radius, w.scratch)
			a.ComputeAcceleration(w.scratch, pointer)
		}
	}

	for _, a := range w.Agents {
		a.Integrate()
	}
}

// bruteForceNeighbors is the O(n²) reference scan used when the spatial index
// is disabled. Same filter as SpatialIndex.Neighbors.
func (w *World) bruteForceNeighbors(self *Agent, radius float64, out []Neighbor) []Neighbor {
	out = out[:0]
	if radius <= 0 {
		return out
	}
	radiusSq := radius * radius
	for _, other := range w.Agents {
		if other == self {
			continue
		}
		distSq := self.Pos.DistanceSquaredTo(other.Pos)
		if distSq < radiusSq {
			out = append(out, Neighbor{Agent: other, DistSq: distSq})
		}
	}
	return out
}
