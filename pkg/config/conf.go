// Package config reads and writes the YAML training configuration: the
// candidate feature list, the recession window, solver settings, and the
// cutoff grid. The recession window lives here rather than as a code
// constant because the source material does not pin its exact dates.
package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sbarisk/pkg/encode"
	"sbarisk/pkg/logit"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

// Solver bounds the IRLS fit.
type Solver struct {
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

// Cutoffs describes the candidate grid for the threshold scan.
type Cutoffs struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// Config is the full training configuration.
type Config struct {
	OutcomeField string               `yaml:"outcome_field"`
	Features     []encode.FeatureSpec `yaml:"features"`
	Solver       Solver               `yaml:"solver"`
	// Alpha is the retention threshold for backward elimination: a
	// feature survives while its p-value stays below it.
	Alpha   float64 `yaml:"alpha"`
	Cutoffs Cutoffs `yaml:"cutoffs"`
}

// Options converts the solver section for the estimator.
func (c *Config) Options() logit.Options {
	return logit.Options{
		MaxIterations: c.Solver.MaxIterations,
		Tolerance:     c.Solver.Tolerance,
	}
}

// Default returns the SBA case-study configuration: the three candidate
// predictors and the 2007-12-01 to 2009-06-30 recession window.
func Default() *Config {
	window := encode.Window{
		Start: time.Date(2007, 12, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2009, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	return &Config{
		OutcomeField: "defaulted",
		Features: []encode.FeatureSpec{
			{Name: "RealEstate", Kind: encode.KindThreshold, Field: "term", Threshold: 240},
			{Name: "Portion", Kind: encode.KindRatio, Numerator: "sba_appv", Denominator: "gr_appv"},
			{Name: "Recession", Kind: encode.KindRecession, DateField: "disbursement_date", TermField: "term", Window: window},
		},
		Solver: Solver{
			MaxIterations: logit.MaxIterationsDefault,
			Tolerance:     logit.ToleranceDefault,
		},
		Alpha: 0.05,
		Cutoffs: Cutoffs{
			Min:  0,
			Max:  1,
			Step: 0.01,
		},
	}
}

// Save writes the config to its directory.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads the config from a directory, writing the default
// first when none exists.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	j, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening config file: %s", path)
	}
	defer j.Close()

	b, err := io.ReadAll(j)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	return &c, nil
}
