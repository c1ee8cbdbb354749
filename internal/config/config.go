// Package config loads the litsnet YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file. Fields missing from the
// file keep their Default values.
type Config struct {
	Neural   Neural   `yaml:"neural"`
	Export   Export   `yaml:"export"`
	Parallel Parallel `yaml:"parallel"`
}

// Neural locates model artifacts.
type Neural struct {
	// Path is the artifact directory.
	Path string `yaml:"path"`
	// Template is the freshly exported network, relative to Path.
	Template string `yaml:"template"`
	// Best is the strongest trained network, relative to Path/trained.
	Best string `yaml:"best"`
	// UseBest selects Best over Template when loading a network.
	UseBest bool `yaml:"use_best"`
}

// Export controls template export.
type Export struct {
	Seed         int64  `yaml:"seed"`         // -1: random
	Format       string `yaml:"format"`       // born | onnx
	Reproducible bool   `yaml:"reproducible"` // fixed created_at
	Upload       string `yaml:"upload"`       // optional store prefix, e.g. gs://bucket/models
}

// Parallel sizes worker pools.
type Parallel struct {
	Workers int `yaml:"workers"` // 0: physical cores
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Neural: Neural{
			Path:     "models",
			Template: "template.born",
			Best:     "best.born",
			UseBest:  true,
		},
		Export: Export{
			Seed:   -1,
			Format: "born",
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the command line
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Neural.Path == "" {
		errs = append(errs, errors.New("neural.path is empty"))
	}
	if c.Neural.Template == "" {
		errs = append(errs, errors.New("neural.template is empty"))
	}
	if c.Neural.UseBest && c.Neural.Best == "" {
		errs = append(errs, errors.New("neural.best is empty but use_best is set"))
	}
	if c.Export.Seed < -1 {
		errs = append(errs, fmt.Errorf("export.seed %d: want -1 or a non-negative seed", c.Export.Seed))
	}
	switch c.Export.Format {
	case "born", "onnx":
	default:
		errs = append(errs, fmt.Errorf("export.format %q: want born or onnx", c.Export.Format))
	}
	if c.Parallel.Workers < 0 {
		errs = append(errs, fmt.Errorf("parallel.workers %d is negative", c.Parallel.Workers))
	}
	return errors.Join(errs...)
}

// TemplatePath is where the exported template lives.
func (c Config) TemplatePath() string {
	return filepath.Join(c.Neural.Path, c.Neural.Template)
}

// BestPath is where the best trained network lives.
func (c Config) BestPath() string {
	return filepath.Join(c.Neural.Path, "trained", c.Neural.Best)
}

// ModelPath is the network a player should load: BestPath when UseBest is
// set, TemplatePath otherwise.
func (c Config) ModelPath() string {
	if c.Neural.UseBest {
		return c.BestPath()
	}
	return c.TemplatePath()
}
