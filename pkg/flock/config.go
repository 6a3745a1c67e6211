package flock

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// WorldConfig holds the world-level settings. A single instance is shared by
// reference with every agent, so the configuration layer mutates it in place
// and never replaces it wholesale.
type WorldConfig struct {
	Population         int      `json:"population"`
	CohortColors       []string `json:"cohortColors"`
	ContinuousCohorts  bool     `json:"continuousCohorts"`
	HomogeneousCohorts bool     `json:"homogeneousCohorts"`
	Gravity            float64  `json:"gravity"`
	Width              float64  `json:"worldWidth"`
	Height             float64  `json:"worldHeight"`
	CircularBorder     bool     `json:"circularBorder"`

	// Renderer only
	BackgroundColor   string  `json:"backgroundColor"`
	BackgroundOpacity float64 `json:"backgroundOpacity"`
}

// BehaviorConfig holds the per-agent force model tuning, shared by reference
// with every agent like WorldConfig.
type BehaviorConfig struct {
	MinSpeed        float64 `json:"minSpeed"`
	MaxSpeed        float64 `json:"maxSpeed"`
	MaxAcceleration float64 `json:"maxAcceleration"`

	// AwarenessRadius bounds both the neighbor query and pointer avoidance.
	AwarenessRadius float64 `json:"awarenessRadius"`

	SeparationWeight float64 `json:"separationWeight"`
	CohesionWeight   float64 `json:"cohesionWeight"`
	AlignmentWeight  float64 `json:"alignmentWeight"`

	LinearDrag     float64 `json:"linearDrag"`
	MouseAvoidance float64 `json:"mouseAvoidance"`
	EdgeAvoidance  float64 `json:"edgeAvoidance"`

	// InverseSquareAvoidance switches every inverse-distance falloff
	// (separation, pointer, edges) from 1/d to 1/d² form.
	InverseSquareAvoidance bool `json:"inverseSquareAvoidance"`
}

// SpatialConfig tunes the uniform grid.
type SpatialConfig struct {
	BucketSize float64 `json:"bucketSize"`

	// UseSpatialIndex false falls back to the brute-force O(n²) neighbor
	// scan. Results must match the grid; tests hold the two equivalent.
	UseSpatialIndex bool `json:"useSpatialIndex"`
}

// DerivedValues caches squared quantities so the hot neighbor-filter and
// force-cap paths never take a square root.
type DerivedValues struct {
	AwarenessRadiusSq float64
	MaxAccelerationSq float64
}

// Refresh recomputes the caches. Call whenever AwarenessRadius or
// MaxAcceleration changes.
func (d *DerivedValues) Refresh(b *BehaviorConfig) {
	d.AwarenessRadiusSq = b.AwarenessRadius * b.AwarenessRadius
	d.MaxAccelerationSq = b.MaxAcceleration * b.MaxAcceleration
}

// Config bundles the three shared configuration bags.
type Config struct {
	World    WorldConfig    `json:"world"`
	Behavior BehaviorConfig `json:"behavior"`
	Spatial  SpatialConfig  `json:"spatial"`
}

func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			Population:         250,
			CohortColors:       []string{"#ff5050", "#3264ff", "#32c832"},
			ContinuousCohorts:  false,
			HomogeneousCohorts: true,
			Gravity:            0,
			Width:              1000,
			Height:             800,
			CircularBorder:     false,
			BackgroundColor:    "#0a0a1e",
			BackgroundOpacity:  1.0,
		},
		Behavior: BehaviorConfig{
			MinSpeed:               2.0,
			MaxSpeed:               4.0,
			MaxAcceleration:        0.4,
			AwarenessRadius:        70.0,
			SeparationWeight:       8.0,
			CohesionWeight:         0.0005,
			AlignmentWeight:        0.05,
			LinearDrag:             0,
			MouseAvoidance:         50.0,
			EdgeAvoidance:          1.0,
			InverseSquareAvoidance: false,
		},
		Spatial: SpatialConfig{
			BucketSize:      70.0,
			UseSpatialIndex: true,
		},
	}
}

// Validate rejects values the engine assumes were filtered out upstream.
func (c *Config) Validate() error {
	if c.World.Population < 0 {
		return fmt.Errorf("population must be >= 0, got %d", c.World.Population)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.World.BackgroundOpacity < 0 || c.World.BackgroundOpacity > 1 {
		return fmt.Errorf("backgroundOpacity must be in [0,1], got %g", c.World.BackgroundOpacity)
	}
	if c.Behavior.MinSpeed <= 0 || c.Behavior.MaxSpeed <= 0 || c.Behavior.MaxAcceleration <= 0 {
		return fmt.Errorf("minSpeed, maxSpeed and maxAcceleration must be positive")
	}
	if c.Behavior.MinSpeed > c.Behavior.MaxSpeed {
		return fmt.Errorf("minSpeed %g exceeds maxSpeed %g", c.Behavior.MinSpeed, c.Behavior.MaxSpeed)
	}
	if c.Behavior.AwarenessRadius <= 0 {
		return fmt.Errorf("awarenessRadius must be positive, got %g", c.Behavior.AwarenessRadius)
	}
	if c.Behavior.LinearDrag < 0 {
		return fmt.Errorf("linearDrag must be >= 0, got %g", c.Behavior.LinearDrag)
	}
	if c.Spatial.BucketSize <= 0 {
		return fmt.Errorf("bucketSize must be positive, got %g", c.Spatial.BucketSize)
	}
	return nil
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into struct, on top of defaults so omitted fields keep
	// their usual values.
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// QueryValues encodes every tunable field as a flat query string, so a full
// parameter set can be shared as one line.
func (c *Config) QueryValues() url.Values {
	v := url.Values{}
	v.Set("population", strconv.Itoa(c.World.Population))
	v.Set("cohortColors", strings.Join(c.World.CohortColors, ","))
	v.Set("continuousCohorts", strconv.FormatBool(c.World.ContinuousCohorts))
	v.Set("homogeneousCohorts", strconv.FormatBool(c.World.HomogeneousCohorts))
	v.Set("gravity", formatFloat(c.World.Gravity))
	v.Set("circularBorder", strconv.FormatBool(c.World.CircularBorder))
	v.Set("backgroundColor", c.World.BackgroundColor)
	v.Set("backgroundOpacity", formatFloat(c.World.BackgroundOpacity))

	v.Set("minSpeed", formatFloat(c.Behavior.MinSpeed))
	v.Set("maxSpeed", formatFloat(c.Behavior.MaxSpeed))
	v.Set("maxAcceleration", formatFloat(c.Behavior.MaxAcceleration))
	v.Set("awarenessRadius", formatFloat(c.Behavior.AwarenessRadius))
	v.Set("separationWeight", formatFloat(c.Behavior.SeparationWeight))
	v.Set("cohesionWeight", formatFloat(c.Behavior.CohesionWeight))
	v.Set("alignmentWeight", formatFloat(c.Behavior.AlignmentWeight))
	v.Set("linearDrag", formatFloat(c.Behavior.LinearDrag))
	v.Set("mouseAvoidance", formatFloat(c.Behavior.MouseAvoidance))
	v.Set("edgeAvoidance", formatFloat(c.Behavior.EdgeAvoidance))
	v.Set("inverseSquareAvoidance", strconv.FormatBool(c.Behavior.InverseSquareAvoidance))

	v.Set("bucketSize", formatFloat(c.Spatial.BucketSize))
	v.Set("useSpatialIndex", strconv.FormatBool(c.Spatial.UseSpatialIndex))
	return v
}

// ApplyQuery overwrites fields named in the query values, leaving the rest
// untouched. Unknown keys are ignored; a malformed value is an error.
// World dimensions are deliberately absent: they are set once from the render
// surface, never from a shared parameter string.
func (c *Config) ApplyQuery(v url.Values) error {
	for key, vals := range v {
		if len(vals) == 0 {
			continue
		}
		raw := vals[0]

		var err error
		switch key {
		case "population":
			c.World.Population, err = strconv.Atoi(raw)
		case "cohortColors":
			if raw == "" {
				c.World.CohortColors = nil
			} else {
				c.World.CohortColors = strings.Split(raw, ",")
			}
		case "continuousCohorts":
			c.World.ContinuousCohorts, err = strconv.ParseBool(raw)
		case "homogeneousCohorts":
			c.World.HomogeneousCohorts, err = strconv.ParseBool(raw)
		case "gravity":
			c.World.Gravity, err = strconv.ParseFloat(raw, 64)
		case "circularBorder":
			c.World.CircularBorder, err = strconv.ParseBool(raw)
		case "backgroundColor":
			c.World.BackgroundColor = raw
		case "backgroundOpacity":
			c.World.BackgroundOpacity, err = strconv.ParseFloat(raw, 64)
		case "minSpeed":
			c.Behavior.MinSpeed, err = strconv.ParseFloat(raw, 64)
		case "maxSpeed":
			c.Behavior.MaxSpeed, err = strconv.ParseFloat(raw, 64)
		case "maxAcceleration":
			c.Behavior.MaxAcceleration, err = strconv.ParseFloat(raw, 64)
		case "awarenessRadius":
			c.Behavior.AwarenessRadius, err = strconv.ParseFloat(raw, 64)
		case "separationWeight":
			c.Behavior.SeparationWeight, err = strconv.ParseFloat(raw, 64)
		case "cohesionWeight":
			c.Behavior.CohesionWeight, err = strconv.ParseFloat(raw, 64)
		case "alignmentWeight":
			c.Behavior.AlignmentWeight, err = strconv.ParseFloat(raw, 64)
		case "linearDrag":
			c.Behavior.LinearDrag, err = strconv.ParseFloat(raw, 64)
		case "mouseAvoidance":
			c.Behavior.MouseAvoidance, err = strconv.ParseFloat(raw, 64)
		case "edgeAvoidance":
			c.Behavior.EdgeAvoidance, err = strconv.ParseFloat(raw, 64)
		case "inverseSquareAvoidance":
			c.Behavior.InverseSquareAvoidance, err = strconv.ParseBool(raw)
		case "bucketSize":
			c.Spatial.BucketSize, err = strconv.ParseFloat(raw, 64)
		case "useSpatialIndex":
			c.Spatial.UseSpatialIndex, err = strconv.ParseBool(raw)
		}
		if err != nil {
			return fmt.Errorf("bad value %q for parameter %q: %w", raw, key, err)
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
