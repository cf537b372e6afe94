package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version  string   `yaml:"version" json:"version"`
	Server   Server   `yaml:"server" json:"server"`
	Database Database `yaml:"database" json:"database"`
	Engine   Engine   `yaml:"engine" json:"engine"`
	Surges   Surges   `yaml:"surges" json:"surges"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Database struct {
	// Dialect is "sqlite", "postgres" or "memory".
	Dialect     string `yaml:"dialect" json:"dialect"`
	SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`
}

type Engine struct {
	TickSeconds        float64 `yaml:"tick_seconds" json:"tick_seconds"`
	AutosaveSeconds    float64 `yaml:"autosave_seconds" json:"autosave_seconds"`
	AscensionThreshold float64 `yaml:"ascension_threshold" json:"ascension_threshold"`
}

type Surges struct {
	MinDelaySeconds       float64 `yaml:"min_delay_seconds" json:"min_delay_seconds"`
	MaxDelaySeconds       float64 `yaml:"max_delay_seconds" json:"max_delay_seconds"`
	RuneFactor            float64 `yaml:"rune_factor" json:"rune_factor"`
	TalentFactor          float64 `yaml:"talent_factor" json:"talent_factor"`
	ActivityFactor        float64 `yaml:"activity_factor" json:"activity_factor"`
	ActivityWindowSeconds float64 `yaml:"activity_window_seconds" json:"activity_window_seconds"`
}

func (s *Server) ApplyDefaults() {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
}

func (d *Database) ApplyDefaults() {
	if d.Dialect == "" {
		d.Dialect = "sqlite"
	}
	if d.SQLitePath == "" {
		d.SQLitePath = "tmp/manaforge.sqlite"
	}
}

func (e *Engine) ApplyDefaults() {
	if e.TickSeconds <= 0 {
		e.TickSeconds = 1
	}
	if e.AutosaveSeconds <= 0 {
		e.AutosaveSeconds = 30
	}
	if e.AscensionThreshold <= 0 {
		e.AscensionThreshold = 1_000_000
	}
}

func (s *Surges) ApplyDefaults() {
	if s.MinDelaySeconds <= 0 {
		s.MinDelaySeconds = 300
	}
	if s.MaxDelaySeconds <= s.MinDelaySeconds {
		s.MaxDelaySeconds = 900
	}
	if s.RuneFactor <= 0 || s.RuneFactor > 1 {
		s.RuneFactor = 0.75
	}
	if s.TalentFactor <= 0 || s.TalentFactor > 1 {
		s.TalentFactor = 0.85
	}
	if s.ActivityFactor <= 0 || s.ActivityFactor > 1 {
		s.ActivityFactor = 0.7
	}
	if s.ActivityWindowSeconds <= 0 {
		s.ActivityWindowSeconds = 30
	}
}

func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Engine.ApplyDefaults()
	c.Surges.ApplyDefaults()
}

// Default is the zero config with defaults applied.
func Default() *Config {
	var c Config
	c.ApplyDefaults()
	return &c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	return &r, nil
}

func (e Engine) TickInterval() time.Duration {
	return time.Duration(e.TickSeconds * float64(time.Second))
}

func (e Engine) AutosaveInterval() time.Duration {
	return time.Duration(e.AutosaveSeconds * float64(time.Second))
}

func (s Surges) MinDelay() time.Duration {
	return time.Duration(s.MinDelaySeconds * float64(time.Second))
}

func (s Surges) MaxDelay() time.Duration {
	return time.Duration(s.MaxDelaySeconds * float64(time.Second))
}

func (s Surges) ActivityWindow() time.Duration {
	return time.Duration(s.ActivityWindowSeconds * float64(time.Second))
}
