// Package stats provides the significance tests used for variable
// selection: per-coefficient Wald tests and likelihood-ratio ("Type III")
// comparisons between nested logistic models. All functions are pure
// computations over already-fitted immutable models.
package stats

import (
	"fmt"
	"math"
	"strings"

	"sbarisk/pkg/encode"
	"sbarisk/pkg/logit"
)

// zCritical95 is the normal quantile for 95% confidence intervals.
const zCritical95 = 1.96

// Entry is one line of a significance report.
type Entry struct {
	Feature   string  `json:"feature" yaml:"feature"`
	DF        int     `json:"df" yaml:"df"`
	ChiSquare float64 `json:"chi_square" yaml:"chi_square"`
	PValue    float64 `json:"p_value" yaml:"p_value"`

	// Wald-only fields.
	Estimate float64 `json:"estimate,omitempty" yaml:"estimate,omitempty"`
	StdErr   float64 `json:"std_err,omitempty" yaml:"std_err,omitempty"`
	ZValue   float64 `json:"z_value,omitempty" yaml:"z_value,omitempty"`
	Lower    float64 `json:"ci_lower,omitempty" yaml:"ci_lower,omitempty"`
	Upper    float64 `json:"ci_upper,omitempty" yaml:"ci_upper,omitempty"`
}

// Report maps features to their test statistics. Retention decisions
// (e.g. keep if p < 0.05) belong to the caller, not the tester.
type Report struct {
	Method  string  `json:"method" yaml:"method"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Entry returns the report line for a feature, if present.
func (r *Report) Entry(feature string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Feature == feature {
			return e, true
		}
	}
	return Entry{}, false
}

// WaldTest computes z = b/SE per coefficient with a two-sided normal
// p-value and a 95% confidence interval. The chi-square form z^2 with one
// degree of freedom is reported alongside.
func WaldTest(m *logit.Model) *Report {
	rep := &Report{Method: "wald", Entries: make([]Entry, 0, len(m.Coefficients))}
	for j, b := range m.Coefficients {
		se := m.StandardErrors[j]
		z := b / se
		rep.Entries = append(rep.Entries, Entry{
			Feature:   m.FeatureNames[j],
			DF:        1,
			ChiSquare: z * z,
			PValue:    2 * normalCDF(-math.Abs(z)),
			Estimate:  b,
			StdErr:    se,
			ZValue:    z,
			Lower:     b - zCritical95*se,
			Upper:     b + zCritical95*se,
		})
	}
	return rep
}

// CompareNested performs the likelihood-ratio test between a full model
// and a reduced model fitted without the dropped columns. Degrees of
// freedom equal the number of dropped columns, so a categorical group
// dropped as a block is tested jointly.
func CompareNested(full, reduced *logit.Model, dropped []string) (*Report, error) {
	if len(dropped) == 0 {
		return nil, fmt.Errorf("no dropped features given")
	}
	if len(reduced.Coefficients)+len(dropped) != len(full.Coefficients) {
		return nil, fmt.Errorf("models are not nested: full has %d columns, reduced %d, dropped %d",
			len(full.Coefficients), len(reduced.Coefficients), len(dropped))
	}

	stat := 2 * (full.LogLikelihood - reduced.LogLikelihood)
	if stat < 0 {
		stat = 0
	}
	df := len(dropped)

	return &Report{
		Method: "likelihood-ratio",
		Entries: []Entry{{
			Feature:   strings.Join(dropped, "+"),
			DF:        df,
			ChiSquare: stat,
			PValue:    chiSquareSF(stat, df),
		}},
	}, nil
}

// TypeIII runs the likelihood-ratio test for every non-intercept column:
// for each, the model is refitted without that column and compared against
// the full fit. Each refit returns a new Model; nothing is mutated.
func TypeIII(ds *encode.Dataset, opts logit.Options) (*Report, error) {
	full, err := logit.Fit(ds.X, ds.Y, ds.Names, opts)
	if err != nil {
		return nil, fmt.Errorf("fitting full model: %w", err)
	}

	rep := &Report{Method: "type3", Entries: make([]Entry, 0, len(ds.Names)-1)}
	for _, name := range ds.Names {
		if name == encode.InterceptName {
			continue
		}

		reducedDS, err := ds.Drop(name)
		if err != nil {
			return nil, err
		}
		reduced, err := logit.Fit(reducedDS.X, reducedDS.Y, reducedDS.Names, opts)
		if err != nil {
			return nil, fmt.Errorf("fitting model without %s: %w", name, err)
		}

		lr, err := CompareNested(full, reduced, []string{name})
		if err != nil {
			return nil, err
		}
		e := lr.Entries[0]
		e.Feature = name
		rep.Entries = append(rep.Entries, e)
	}
	return rep, nil
}
