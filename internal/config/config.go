// Package config loads and validates the runtime configuration. A YAML
// file supplies overrides on top of documented defaults; CLI flags are
// applied by the command layer after loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/tendril/internal/geom"
)

// Service configures the option-service channel.
type Service struct {
	// URL of the token option websocket endpoint.
	URL string `yaml:"url"`
	// Reconnect enables client-side redial after a dropped channel.
	// The simulation core itself never retries.
	Reconnect bool `yaml:"reconnect"`
	// ReconnectSeconds is the fixed redial interval.
	ReconnectSeconds int `yaml:"reconnect_seconds"`
	// Temperature is forwarded with every option request.
	Temperature float64 `yaml:"temperature"`
}

// Field configures attractor seeding.
type Field struct {
	Count     int  `yaml:"count"`
	Clustered bool `yaml:"clustered"`
	// NoiseFrequency scales positions before sampling the noise field.
	NoiseFrequency float64 `yaml:"noise_frequency"`
	// NoiseThreshold gates clustered candidate acceptance.
	NoiseThreshold float64 `yaml:"noise_threshold"`
}

// Growth configures the step engine and clusterer.
type Growth struct {
	AttractionRadius float64 `yaml:"attraction_radius"`
	KillRadius       float64 `yaml:"kill_radius"`
	SegmentLength    float64 `yaml:"segment_length"`
	EdgeMargin       float64 `yaml:"edge_margin"`
	// Jitter is the starved-growth wobble half-width in radians.
	Jitter float64 `yaml:"jitter"`
	// SteerDotMin discards attractors scoring below this dot product
	// against the steering target.
	SteerDotMin float64 `yaml:"steer_dot_min"`
}

// Session configures the interactive loop.
type Session struct {
	// StepBudget is how many foreground growth ticks a committed
	// choice consumes.
	StepBudget int `yaml:"step_budget"`
	// BackgroundEvery throttles background growth to every Nth frame.
	BackgroundEvery int `yaml:"background_every"`
	// BackgroundCap bounds new background nodes per pass.
	BackgroundCap int `yaml:"background_cap"`
	// Alternatives is the preferred option count, clamped into
	// [MinAlternatives, MaxAlternatives] when requesting.
	Alternatives    int `yaml:"alternatives"`
	MinAlternatives int `yaml:"min_alternatives"`
	MaxAlternatives int `yaml:"max_alternatives"`
	// RetryEmptyOptions re-requests after a zero-length option
	// response instead of waiting forever.
	RetryEmptyOptions bool `yaml:"retry_empty_options"`
}

// World configures the simulation rectangle.
type World struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	// BottomReserve keeps growth out of the band mirrored by the
	// status bar.
	BottomReserve float64 `yaml:"bottom_reserve"`
}

// Log configures the file logger backing the TUI log panel.
type Log struct {
	Path  string `yaml:"path"`
	Debug bool   `yaml:"debug"`
}

// Config is the full runtime configuration.
type Config struct {
	Prompt  string  `yaml:"prompt"`
	Seed    int64   `yaml:"seed"`
	Service Service `yaml:"service"`
	Field   Field   `yaml:"field"`
	Growth  Growth  `yaml:"growth"`
	Session Session `yaml:"session"`
	World   World   `yaml:"world"`
	Log     Log     `yaml:"log"`
}

// Default returns the documented baseline configuration.
func Default() Config {
	return Config{
		Prompt: "The sky is",
		Seed:   1,
		Service: Service{
			URL:              "ws://127.0.0.1:8000/ws",
			Reconnect:        false,
			ReconnectSeconds: 5,
			Temperature:      0.7,
		},
		Field: Field{
			Count:          400,
			Clustered:      true,
			NoiseFrequency: 0.02,
			NoiseThreshold: 0.4,
		},
		Growth: Growth{
			AttractionRadius: 60,
			KillRadius:       12,
			SegmentLength:    6,
			EdgeMargin:       48,
			Jitter:           0.2,
			SteerDotMin:      -0.3,
		},
		Session: Session{
			StepBudget:        8,
			BackgroundEvery:   3,
			BackgroundCap:     20,
			Alternatives:      5,
			MinAlternatives:   5,
			MaxAlternatives:   10,
			RetryEmptyOptions: true,
		},
		World: World{
			Width:         800,
			Height:        480,
			BottomReserve: 40,
		},
		Log: Log{
			Path: "tendril.log",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error;
// the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the simulation cannot start from.
// This is the only fatal error class in the system.
func (c Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world must have positive area, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.World.BottomReserve < 0 || c.World.BottomReserve >= c.World.Height {
		return fmt.Errorf("config: bottom reserve %g out of range for height %g", c.World.BottomReserve, c.World.Height)
	}
	if c.Field.Count < 0 {
		return fmt.Errorf("config: negative attractor count %d", c.Field.Count)
	}
	if c.Growth.SegmentLength <= 0 {
		return fmt.Errorf("config: segment length must be positive, got %g", c.Growth.SegmentLength)
	}
	if c.Growth.AttractionRadius <= 0 || c.Growth.KillRadius <= 0 {
		return fmt.Errorf("config: attraction and kill radii must be positive")
	}
	if c.Session.StepBudget <= 0 {
		return fmt.Errorf("config: step budget must be positive, got %d", c.Session.StepBudget)
	}
	if c.Session.BackgroundEvery <= 0 {
		return fmt.Errorf("config: background throttle must be positive, got %d", c.Session.BackgroundEvery)
	}
	if c.Session.MinAlternatives <= 0 || c.Session.MaxAlternatives < c.Session.MinAlternatives {
		return fmt.Errorf("config: alternative bounds [%d, %d] invalid", c.Session.MinAlternatives, c.Session.MaxAlternatives)
	}
	return nil
}

// Bounds returns the full world rectangle.
func (c Config) Bounds() geom.Rect {
	return geom.NewRect(0, 0, c.World.Width, c.World.Height)
}

// WorkArea returns the world rectangle minus the reserved bottom band.
func (c Config) WorkArea() geom.Rect {
	return geom.NewRect(0, 0, c.World.Width, c.World.Height-c.World.BottomReserve)
}

// DesiredCount clamps the preferred alternative count into the
// configured request range.
func (c Config) DesiredCount() int {
	n := c.Session.Alternatives
	if n < c.Session.MinAlternatives {
		n = c.Session.MinAlternatives
	}
	if n > c.Session.MaxAlternatives {
		n = c.Session.MaxAlternatives
	}
	return n
}

// ReconnectInterval returns the redial interval as a duration.
func (c Config) ReconnectInterval() time.Duration {
	return time.Duration(c.Service.ReconnectSeconds) * time.Second
}
