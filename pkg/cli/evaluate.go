package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"sbarisk/pkg/data"
	"sbarisk/pkg/encode"
	"sbarisk/pkg/eval"
)

var (
	modelFlag = &cli.StringFlag{
		Name:     "model",
		Usage:    "Path to the model JSON file written by train",
		Required: true,
	}

	cutoffFlag = &cli.Float64Flag{
		Name:  "cutoff",
		Usage: "Classification cutoff; when negative the configured grid is scanned for the optimum",
		Value: -1,
	}

	allFlag = &cli.BoolFlag{
		Name:  "all",
		Usage: "Evaluate on all records instead of the holdout set",
	}

	evaluateCmd = &cli.Command{
		Name:    "evaluate",
		Aliases: []string{"e"},
		Usage:   "Score the model on the holdout set and tune the cutoff",
		UsageText: `sbarisk evaluate --model model.json
   sbarisk evaluate --model model.json --cutoff 0.5`,
		Action: cmdEvaluate,
		Flags: []cli.Flag{
			modelFlag,
			cutoffFlag,
			allFlag,
		},
	}
)

// EvaluateResult pairs the evaluation report with run metadata.
type EvaluateResult struct {
	Report       *eval.Report `json:"report" yaml:"report"`
	Observations int          `json:"observations" yaml:"observations"`
	Scanned      bool         `json:"scanned" yaml:"scanned"`
	Duration     string       `json:"duration" yaml:"duration"`
}

func cmdEvaluate(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)

	model, err := loadModel(c.String(modelFlag.Name))
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	var selected *bool
	if !c.Bool(allFlag.Name) {
		holdout := false
		selected = &holdout
	}

	records, err := data.LoadRecords(cfg.DB, selected)
	if err != nil {
		return fmt.Errorf("loading evaluation records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("no evaluation records found, run import first")
	}

	ds, err := encode.Encode(records, cfg.Cfg.Features, cfg.Cfg.OutcomeField)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	ds, err = alignDataset(ds, model.FeatureNames)
	if err != nil {
		return err
	}

	cutoff := c.Float64(cutoffFlag.Name)
	scanned := false
	if cutoff < 0 {
		grid := eval.CutoffGrid(cfg.Cfg.Cutoffs.Min, cfg.Cfg.Cutoffs.Max, cfg.Cfg.Cutoffs.Step)
		cutoff, err = eval.OptimalCutoff(model, ds.X, ds.Y, grid)
		if err != nil {
			return fmt.Errorf("scanning cutoffs: %w", err)
		}
		scanned = true
		slog.Info("optimal cutoff found", "cutoff", cutoff, "candidates", len(grid))
	}

	rep, err := eval.Evaluate(model, ds.X, ds.Y, cutoff)
	if err != nil {
		return fmt.Errorf("evaluating model: %w", err)
	}

	return output(&EvaluateResult{
		Report:       rep,
		Observations: len(ds.Y),
		Scanned:      scanned,
		Duration:     time.Since(start).String(),
	})
}

// alignDataset narrows an encoded dataset to the columns the model was
// fitted on, in the model's order. Training may have eliminated features
// the config still declares.
func alignDataset(ds *encode.Dataset, names []string) (*encode.Dataset, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	extra := make([]string, 0)
	for _, n := range ds.Names {
		if !want[n] {
			extra = append(extra, n)
		}
		delete(want, n)
	}
	for n := range want {
		return nil, fmt.Errorf("model feature %q not produced by the configured encoding", n)
	}

	if len(extra) == 0 {
		return ds, nil
	}
	return ds.Drop(extra...)
}
