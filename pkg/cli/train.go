package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"sbarisk/pkg/data"
	"sbarisk/pkg/encode"
	"sbarisk/pkg/logit"
	"sbarisk/pkg/stats"
)

var (
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Path to write the fitted model as JSON (optional)",
	}

	trainCmd = &cli.Command{
		Name:    "train",
		Aliases: []string{"t"},
		Usage:   "Fit the risk model on selected records with backward elimination",
		UsageText: `sbarisk train --out model.json
   sbarisk --format yaml train`,
		Action: cmdTrain,
		Flags: []cli.Flag{
			outFlag,
		},
	}
)

// TrainResult is the full training report.
type TrainResult struct {
	Model    *logit.Model  `json:"model" yaml:"model"`
	TypeIII  *stats.Report `json:"type3" yaml:"type3"`
	Wald     *stats.Report `json:"wald" yaml:"wald"`
	Dropped  []string      `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Duration string        `json:"duration" yaml:"duration"`
}

func cmdTrain(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)

	selected := true
	records, err := data.LoadRecords(cfg.DB, &selected)
	if err != nil {
		return fmt.Errorf("loading training records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("no selected training records found, run import first")
	}
	slog.Info("training records loaded", "count", len(records))

	ds, err := encode.Encode(records, cfg.Cfg.Features, cfg.Cfg.OutcomeField)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	opts := cfg.Cfg.Options()

	// Backward elimination: drop the least significant feature until
	// every remaining p-value clears the configured alpha.
	var rep *stats.Report
	dropped := make([]string, 0)
	for {
		rep, err = stats.TypeIII(ds, opts)
		if err != nil {
			return fmt.Errorf("significance testing: %w", err)
		}
		if len(ds.Names) == 1 {
			break
		}

		worst := ""
		worstP := 0.0
		for _, e := range rep.Entries {
			if e.PValue >= cfg.Cfg.Alpha && e.PValue >= worstP {
				worst = e.Feature
				worstP = e.PValue
			}
		}
		if worst == "" {
			break
		}

		slog.Info("dropping insignificant feature", "feature", worst, "p_value", worstP)
		ds, err = ds.Drop(worst)
		if err != nil {
			return fmt.Errorf("dropping %s: %w", worst, err)
		}
		dropped = append(dropped, worst)
	}

	model, err := logit.Fit(ds.X, ds.Y, ds.Names, opts)
	if err != nil {
		return fmt.Errorf("fitting final model: %w", err)
	}
	slog.Info("model fitted", "features", len(model.FeatureNames), "iterations", model.Iterations)

	if out := c.String(outFlag.Name); out != "" {
		if err := saveModel(out, model); err != nil {
			return fmt.Errorf("writing model to %s: %w", out, err)
		}
		slog.Info("model written", "path", out)
	}

	return output(&TrainResult{
		Model:    model,
		TypeIII:  rep,
		Wald:     stats.WaldTest(model),
		Dropped:  dropped,
		Duration: time.Since(start).String(),
	})
}

func saveModel(path string, m *logit.Model) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

func loadModel(path string) (*logit.Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m logit.Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing model file %s: %w", path, err)
	}
	if len(m.Coefficients) == 0 || len(m.Coefficients) != len(m.FeatureNames) {
		return nil, fmt.Errorf("model file %s is incomplete", path)
	}
	return &m, nil
}
