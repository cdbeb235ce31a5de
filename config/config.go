package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jsphweid/handcomposer/constants"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every configuration violation.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Pitch      Pitch      `yaml:"pitch"`
	Quality    Quality    `yaml:"quality"`
	Velocity   Band       `yaml:"velocity"`
	Tempo      Band       `yaml:"tempo"`
	Voicing    Range      `yaml:"voicing"`
	Remote     Remote     `yaml:"remote"`
	Output     Output     `yaml:"output"`
	Perception Perception `yaml:"perception"`
	TickRate   float64    `yaml:"tickRate"`
}

type Pitch struct {
	Low           int     `yaml:"low"`
	High          int     `yaml:"high"`
	Alpha         float64 `yaml:"alpha"`
	Deadband      float64 `yaml:"deadbandSemitones"`
	MaxStep       int     `yaml:"maxStepSemitones"`
	MinIntervalMs int     `yaml:"minIntervalMs"`
}

func (p Pitch) MinInterval() time.Duration {
	return time.Duration(p.MinIntervalMs) * time.Millisecond
}

// Quality holds the two spread thresholds of the local heuristic.
type Quality struct {
	LowThreshold  float64 `yaml:"lowThreshold"`
	HighThreshold float64 `yaml:"highThreshold"`
}

// Band is a linear input-to-output mapping; the output is clamped to [OutLow, OutHigh].
type Band struct {
	InLow   float64 `yaml:"inLow"`
	InHigh  float64 `yaml:"inHigh"`
	OutLow  float64 `yaml:"outLow"`
	OutHigh float64 `yaml:"outHigh"`
}

type Range struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

type Remote struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	TimeoutMs  int    `yaml:"timeoutMs"`
	CooldownMs int    `yaml:"cooldownMs"`
}

func (r Remote) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

func (r Remote) Cooldown() time.Duration {
	return time.Duration(r.CooldownMs) * time.Millisecond
}

type Output struct {
	PortName string `yaml:"portName"`
	Channel  int    `yaml:"channel"`
	// Program is sent once when the port opens; negative disables it.
	Program int `yaml:"program"`
}

type Perception struct {
	Listen string `yaml:"listen"`
}

func Default() *Config {
	return &Config{
		Pitch: Pitch{
			Low:           48,
			High:          72,
			Alpha:         0.35,
			Deadband:      0.5,
			MaxStep:       1,
			MinIntervalMs: 100,
		},
		Quality:  Quality{LowThreshold: 0.065, HighThreshold: 0.11},
		Velocity: Band{InLow: 0.04, InHigh: 0.14, OutLow: 50, OutHigh: 127},
		Tempo:    Band{InLow: 0.05, InHigh: 0.5, OutLow: 80, OutHigh: 140},
		Voicing:  Range{Low: 48, High: 72},
		Remote: Remote{
			Endpoint:   "http://127.0.0.1:8000/predict",
			TimeoutMs:  50,
			CooldownMs: 2000,
		},
		Output:     Output{PortName: constants.DefaultPortName, Channel: 0, Program: -1},
		Perception: Perception{Listen: "127.0.0.1:8765"},
		TickRate:   30,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func validNote(n int) bool {
	return n >= 0 && n <= 127
}

func (b Band) validate(name string) error {
	if b.InLow >= b.InHigh {
		return invalid("%s input band [%v, %v] is empty", name, b.InLow, b.InHigh)
	}
	if b.OutLow > b.OutHigh {
		return invalid("%s output range [%v, %v] is inverted", name, b.OutLow, b.OutHigh)
	}
	return nil
}

// Validate rejects configurations the mapping loop cannot run with.
func (c *Config) Validate() error {
	p := c.Pitch
	if !validNote(p.Low) || !validNote(p.High) {
		return invalid("pitch range [%d, %d] outside 0..127", p.Low, p.High)
	}
	if p.Low >= p.High {
		return invalid("pitch low %d must be below high %d", p.Low, p.High)
	}
	if p.Alpha <= 0 || p.Alpha > 1 {
		return invalid("alpha %v outside (0, 1]", p.Alpha)
	}
	if p.Deadband < 0 {
		return invalid("deadband %v is negative", p.Deadband)
	}
	if p.MaxStep < 1 {
		return invalid("max step %d must be at least 1", p.MaxStep)
	}
	if p.MinIntervalMs < 0 {
		return invalid("min interval %dms is negative", p.MinIntervalMs)
	}

	v := c.Voicing
	if !validNote(v.Low) || !validNote(v.High) {
		return invalid("voicing range [%d, %d] outside 0..127", v.Low, v.High)
	}
	// every pitch class needs a home in the register
	if v.High-v.Low < 11 {
		return invalid("voicing range [%d, %d] narrower than an octave", v.Low, v.High)
	}

	if c.Quality.LowThreshold >= c.Quality.HighThreshold {
		return invalid("quality thresholds %v, %v out of order", c.Quality.LowThreshold, c.Quality.HighThreshold)
	}
	if err := c.Velocity.validate("velocity"); err != nil {
		return err
	}
	if c.Velocity.OutLow < 1 || c.Velocity.OutHigh > 127 {
		return invalid("velocity output [%v, %v] outside 1..127", c.Velocity.OutLow, c.Velocity.OutHigh)
	}
	if err := c.Tempo.validate("tempo"); err != nil {
		return err
	}
	if c.Tempo.OutLow <= 0 {
		return invalid("tempo output low %v must be positive", c.Tempo.OutLow)
	}

	if c.Remote.Enabled {
		if c.Remote.Endpoint == "" {
			return invalid("remote classifier enabled without an endpoint")
		}
		if c.Remote.TimeoutMs <= 0 {
			return invalid("remote timeout %dms must be positive", c.Remote.TimeoutMs)
		}
	}
	if c.Remote.CooldownMs < 0 {
		return invalid("remote cooldown %dms is negative", c.Remote.CooldownMs)
	}

	if c.Output.Channel < 0 || c.Output.Channel > 15 {
		return invalid("midi channel %d outside 0..15", c.Output.Channel)
	}
	if c.Output.Program > 127 {
		return invalid("program %d above 127", c.Output.Program)
	}
	if c.TickRate <= 0 {
		return invalid("tick rate %v must be positive", c.TickRate)
	}
	return nil
}
