package flock

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// Neighbor pairs an agent with its squared distance from the query point so
// callers avoid recomputing it.
type Neighbor struct {
	Agent  *Agent
	DistSq float64
}

// SpatialIndex is a uniform grid of buckets over the world bounds. It is
// rebuilt in full every tick, which keeps queries within a tick on a single
// consistent snapshot of positions.
//
// Buckets live in one flat row-major slice (buckets[bx + by*nx]) with
// per-bucket growable slices, to avoid pointer-chasing a nested structure.
// Bucket size is independent of the awareness radius: queries scan the whole
// bucket bounding box of the search square, so correctness never depends on
// the radius fitting inside one cell.
type SpatialIndex struct {
	bucketSize float64
	width      float64
	height     float64
	nx, ny     int
	buckets    [][]*Agent
}

// NewSpatialIndex allocates a grid for the given bucket size and world bounds.
func NewSpatialIndex(bucketSize, width, height float64) (*SpatialIndex, error) {
	s := &SpatialIndex{}
	if err := s.Reset(bucketSize, width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset reallocates the grid for new bucket or world dimensions.
func (s *SpatialIndex) Reset(bucketSize, width, height float64) error {
	if bucketSize <= 0 {
		return fmt.Errorf("spatial index bucket size must be positive, got %g", bucketSize)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("spatial index world bounds must be positive, got %gx%g", width, height)
	}

	s.bucketSize = bucketSize
	s.width = width
	s.height = height
	s.nx = int(math.Ceil(width/bucketSize)) + 1
	s.ny = int(math.Ceil(height/bucketSize)) + 1
	s.buckets = make([][]*Agent, s.nx*s.ny)
	return nil
}

// Clear empties every bucket in place. Resetting slices to length 0 keeps
// their capacity, so steady-state rebuilds allocate almost nothing.
func (s *SpatialIndex) Clear() {
	for i := range s.buckets {
		s.buckets[i] = s.buckets[i][:0]
	}
}

// Insert appends the agent to the bucket containing its position. The
// position is clamped to the world bounds first: the integrator can overshoot
// the border by up to half an acceleration step, and a transiently
// out-of-bounds agent must still land in a valid bucket.
func (s *SpatialIndex) Insert(a *Agent) {
	bx := s.bucketX(a.Pos.X)
	by := s.bucketY(a.Pos.Y)
	i := bx + by*s.nx
	s.buckets[i] = append(s.buckets[i], a)
}

// Neighbors returns every agent strictly closer than radius to pos, excluding
// the querying agent itself, together with its squared distance. Results are
// appended to out, which may be nil; passing a reused buffer keeps the per-
// agent query allocation-free.
func (s *SpatialIndex) Neighbors(pos geometry.Vector2D, radius float64, exclude *Agent, out []Neighbor) []Neighbor {
	out = out[:0]
	if radius <= 0 {
		return out
	}
	radiusSq := radius * radius

	// Bounding box of buckets overlapping the 2·radius search square.
	bx0 := s.bucketX(pos.X - radius)
	bx1 := s.bucketX(pos.X + radius)
	by0 := s.bucketY(pos.Y - radius)
	by1 := s.bucketY(pos.Y + radius)

	for by := by0; by <= by1; by++ {
		row := by * s.nx
		for bx := bx0; bx <= bx1; bx++ {
			for _, a := range s.buckets[row+bx] {
				if a == exclude {
					continue
				}
				distSq := pos.DistanceSquaredTo(a.Pos)
				if distSq < radiusSq {
					out = append(out, Neighbor{Agent: a, DistSq: distSq})
				}
			}
		}
	}
	return out
}

func (s *SpatialIndex) bucketX(x float64) int {
	return int(clamp(x, 0, s.width) / s.bucketSize)
}

func (s *SpatialIndex) bucketY(y float64) int {
	return int(clamp(y, 0, s.height) / s.bucketSize)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
