package cli

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"sbarisk/pkg/decide"
	"sbarisk/pkg/encode"
)

var (
	termFlag = &cli.IntFlag{
		Name:     "term",
		Usage:    "Loan term in months",
		Required: true,
	}

	grossFlag = &cli.Float64Flag{
		Name:     "gross",
		Usage:    "Gross approved amount (GrAppv)",
		Required: true,
	}

	guaranteedFlag = &cli.Float64Flag{
		Name:     "guaranteed",
		Usage:    "SBA guaranteed amount (SBA_Appv)",
		Required: true,
	}

	disbursedFlag = &cli.StringFlag{
		Name:  "disbursed",
		Usage: "Disbursement date (YYYY-MM-DD, default: today)",
	}

	decideCutoffFlag = &cli.Float64Flag{
		Name:     "cutoff",
		Usage:    "Approval cutoff from the evaluate scan",
		Required: true,
	}

	redisFlag = &cli.StringFlag{
		Name:  "redis",
		Usage: "Redis address for the shared decision cache (optional)",
	}

	decideCmd = &cli.Command{
		Name:    "decide",
		Aliases: []string{"d"},
		Usage:   "Score a new application and decide approve or reject",
		UsageText: `sbarisk decide --model model.json --cutoff 0.5 \
      --term 60 --gross 50000 --guaranteed 20000`,
		Action: cmdDecide,
		Flags: []cli.Flag{
			modelFlag,
			decideCutoffFlag,
			termFlag,
			grossFlag,
			guaranteedFlag,
			disbursedFlag,
			redisFlag,
		},
	}
)

// DecideResult is the scored application.
type DecideResult struct {
	Decision decide.Decision `json:"decision" yaml:"decision"`
	Features []float64       `json:"features" yaml:"features"`
	Names    []string        `json:"names" yaml:"names"`
	Cutoff   float64         `json:"cutoff" yaml:"cutoff"`
}

func cmdDecide(c *cli.Context) error {
	cfg := getConfig(c)

	model, err := loadModel(c.String(modelFlag.Name))
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	disbursed := time.Now().UTC().Truncate(24 * time.Hour)
	if d := c.String(disbursedFlag.Name); d != "" {
		disbursed, err = time.Parse("2006-01-02", d)
		if err != nil {
			return fmt.Errorf("parsing disbursement date %q: %w", d, err)
		}
	}

	record := encode.Record{
		"term":              float64(c.Int(termFlag.Name)),
		"gr_appv":           c.Float64(grossFlag.Name),
		"sba_appv":          c.Float64(guaranteedFlag.Name),
		"disbursement_date": disbursed,
	}

	specs, err := specsFor(cfg.Cfg.Features, model.FeatureNames)
	if err != nil {
		return err
	}

	features, err := encode.EncodeRow(record, specs)
	if err != nil {
		return fmt.Errorf("encoding application: %w", err)
	}

	var cache decide.Cache
	if addr := c.String(redisFlag.Name); addr != "" {
		cache = decide.NewRedisCache(addr)
	}

	cutoff := c.Float64(decideCutoffFlag.Name)
	engine := decide.NewEngine(model, cutoff, cache)

	d, err := engine.Decide(features)
	if err != nil {
		return fmt.Errorf("scoring application: %w", err)
	}

	return output(&DecideResult{
		Decision: d,
		Features: features,
		Names:    model.FeatureNames,
		Cutoff:   cutoff,
	})
}

// specsFor filters the configured feature specs to those the model was
// fitted on, preserving the configured order. Every model feature except
// the intercept must be covered, or the vector would not line up with
// the coefficients.
func specsFor(specs []encode.FeatureSpec, names []string) ([]encode.FeatureSpec, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if n != encode.InterceptName {
			want[n] = true
		}
	}

	kept := make([]encode.FeatureSpec, 0, len(specs))
	for _, s := range specs {
		cols := s.Columns()
		covered := 0
		for _, col := range cols {
			if want[col] {
				covered++
				delete(want, col)
			}
		}
		if covered == len(cols) {
			kept = append(kept, s)
		} else if covered > 0 {
			return nil, fmt.Errorf("feature %q only partially covers the model columns", s.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("model feature %q not produced by the configured encoding", n)
	}
	return kept, nil
}
