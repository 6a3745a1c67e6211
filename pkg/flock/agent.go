package flock

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// Agent is one simulated flocking entity. It holds shared read-only
// references to the configuration bags owned by the World; agents never
// mutate configuration.
type Agent struct {
	Pos geometry.Vector2D
	Vel geometry.Vector2D

	// Delta is the pending acceleration, cleared and rebuilt every tick.
	Delta geometry.Vector2D

	// Speed caches |Vel|, maintained by Integrate.
	Speed float64

	Cohort Cohort

	world    *WorldConfig
	behavior *BehaviorConfig
	derived  *DerivedValues
}

// NewAgent creates an agent at pos with the given velocity and cohort seed.
func NewAgent(world *WorldConfig, behavior *BehaviorConfig, derived *DerivedValues, pos, vel geometry.Vector2D, seed float64) *Agent {
	return &Agent{
		Pos:      pos,
		Vel:      vel,
		Speed:    vel.Len(),
		Cohort:   Cohort{Seed: seed},
		world:    world,
		behavior: behavior,
		derived:  derived,
	}
}

// edgeForce maps a remaining distance to a boundary into a scalar push.
// Distances at or below 1 return the full weight, which keeps the
// divide-by-near-zero singularity out of the falloff.
func edgeForce(d, weight float64, inverseSquare bool) float64 {
	if d <= 1 {
		return weight
	}
	if inverseSquare {
		return weight / (d * d)
	}
	return weight / d
}

// avoidFactor is the shared separation/pointer falloff divisor: distSq gives
// a net 1/d force after the un-normalized direction vector is applied,
// distSq^1.5 gives net 1/d². distSq is floored at 1 first so coincident
// points produce a large but finite push.
func avoidFactor(distSq float64, inverseSquare bool) float64 {
	if distSq < 1 {
		distSq = 1
	}
	if inverseSquare {
		return distSq * math.Sqrt(distSq)
	}
	return distSq
}

// ComputeAcceleration rebuilds the agent's pending acceleration from world
// forces, its neighbors, and the optional pointer position. It only writes
// Delta; position and velocity stay untouched until Integrate, so every
// agent in a tick observes the same snapshot.
func (a *Agent) ComputeAcceleration(neighbors []Neighbor, pointer *geometry.Vector2D) {
	b := a.behavior
	w := a.world
	var delta geometry.Vector2D

	// 1. Gravity. The sign is free: negative gravity pushes up.
	if w.Gravity != 0 {
		delta.Y += w.Gravity
	}

	// 2. Linear drag, opposing current velocity proportionally to speed.
	if b.LinearDrag > 0 {
		delta.X -= a.Vel.X * b.LinearDrag
		delta.Y -= a.Vel.Y * b.LinearDrag
	}

	// 3. Edge avoidance.
	if w.CircularBorder {
		center := geometry.Vector2D{X: w.Width / 2, Y: w.Height / 2}
		toCenter := center.Sub(a.Pos)
		fromCenter := toCenter.Len()
		if fromCenter > geometry.Epsilon {
			remaining := 0.5*math.Min(w.Width, w.Height) - fromCenter
			f := edgeForce(remaining, b.EdgeAvoidance, b.InverseSquareAvoidance)
			// Unit direction toward center, magnitude matching the
			// rectangular falloff law.
			delta = delta.Add(toCenter.Mul(f / fromCenter))
		}
	} else {
		inv := b.InverseSquareAvoidance
		delta.X += edgeForce(a.Pos.X, b.EdgeAvoidance, inv)
		delta.X -= edgeForce(w.Width-a.Pos.X, b.EdgeAvoidance, inv)
		delta.Y += edgeForce(a.Pos.Y, b.EdgeAvoidance, inv)
		delta.Y -= edgeForce(w.Height-a.Pos.Y, b.EdgeAvoidance, inv)
	}

	// 4. Neighbor interaction: one pass accumulating the cohort-weighted
	// position/velocity sums while applying separation immediately.
	// Separation is cohort-independent so the repulsion stays symmetric.
	var posSumX, posSumY, velSumX, velSumY, count float64
	for _, n := range neighbors {
		other := n.Agent

		if wgt := cohortWeight(&a.Cohort, &other.Cohort, w); wgt > 0 {
			posSumX += other.Pos.X * wgt
			posSumY += other.Pos.Y * wgt
			velSumX += other.Vel.X * wgt
			velSumY += other.Vel.Y * wgt
			count += wgt
		}

		factor := avoidFactor(n.DistSq, b.InverseSquareAvoidance)
		delta.X += (a.Pos.X - other.Pos.X) * b.SeparationWeight / factor
		delta.Y += (a.Pos.Y - other.Pos.Y) * b.SeparationWeight / factor
	}

	// 5. Cohesion and alignment toward the cohort-weighted averages.
	// count can be fractional in continuous cohort mode.
	if count > 0 {
		delta.X += (posSumX/count - a.Pos.X) * b.CohesionWeight
		delta.Y += (posSumY/count - a.Pos.Y) * b.CohesionWeight
		delta.X += (velSumX/count - a.Vel.X) * b.AlignmentWeight
		delta.Y += (velSumY/count - a.Vel.Y) * b.AlignmentWeight
	}

	// 6. Pointer avoidance, gated by the awareness radius.
	if b.MouseAvoidance != 0 && pointer != nil {
		distSq := a.Pos.DistanceSquaredTo(*pointer)
		if distSq < 1 {
			distSq = 1
		}
		if distSq < a.derived.AwarenessRadiusSq {
			factor := avoidFactor(distSq, b.InverseSquareAvoidance)
			delta.X += (a.Pos.X - pointer.X) * b.MouseAvoidance / factor
			delta.Y += (a.Pos.Y - pointer.Y) * b.MouseAvoidance / factor
		}
	}

	// 7. Cap the magnitude at maxAcceleration, preserving direction.
	if lenSq := delta.LenSqr(); lenSq > a.derived.MaxAccelerationSq {
		delta = delta.Mul(b.MaxAcceleration / math.Sqrt(lenSq))
	}

	a.Delta = delta
}

// Integrate applies the pending acceleration: constant-acceleration position
// update, then velocity update with the speed clamp. Must only run after
// ComputeAcceleration has finished for every agent in the tick.
func (a *Agent) Integrate() {
	a.Pos = a.Pos.Add(a.Vel).Add(a.Delta.Mul(0.5))
	a.Vel = a.Vel.Add(a.Delta)
	a.Speed = a.Vel.Len()

	b := a.behavior
	if a.Speed > b.MaxSpeed {
		a.Vel = a.Vel.Mul(b.MaxSpeed / a.Speed)
		a.Speed = b.MaxSpeed
	} else if a.Speed < b.MinSpeed && a.Speed > 0 {
		// An exactly-zero velocity stays unclamped: there is no direction
		// to scale it along.
		a.Vel = a.Vel.Mul(b.MinSpeed / a.Speed)
		a.Speed = b.MinSpeed
	}
}
