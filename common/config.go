package common

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML file layered beneath CLI flags and
// environment variables (SPEC_FULL.md §3, §6.4). Precedence, highest first:
// explicit flag > environment variable > config file > built-in default.
type Config struct {
	DataMoverURL string         `yaml:"data_mover_url"`
	DefaultLimits map[string]int64 `yaml:"default_daily_limits_gb"`
	PacificOffsetHours int       `yaml:"pacific_offset_hours"`
}

// DefaultPacificOffsetHours preserves the source's known-incorrect
// DST-ignorant simplification (spec §9 open question 2) unless overridden.
const DefaultPacificOffsetHours = -8

// LoadConfig reads and parses the YAML config file at path. A missing path
// (empty string) yields the default Config (only PacificOffsetHours set, to
// DefaultPacificOffsetHours), not an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{PacificOffsetHours: DefaultPacificOffsetHours}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config file")
	}
	if cfg.PacificOffsetHours == 0 {
		cfg.PacificOffsetHours = DefaultPacificOffsetHours
	}
	return cfg, nil
}
