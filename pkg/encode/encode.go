// Package encode turns raw loan records into the numeric design matrix
// and binary outcome vector the estimator consumes. Encoding is a pure
// function of the records and the feature specifications: same inputs,
// same matrix, same column order.
package encode

import (
	"fmt"
	"time"
)

// InterceptName is the name of the leading all-ones column.
const InterceptName = "const"

// Record is one loan application: field name to raw value. Values are
// string, float64, or time.Time depending on the source column. Records
// are loaded once and never mutated.
type Record map[string]any

// Kind selects the encoding rule for a feature.
type Kind string

const (
	// KindNumeric passes a numeric field through unchanged.
	KindNumeric Kind = "numeric"
	// KindThreshold derives a binary flag: 1 iff field >= threshold.
	KindThreshold Kind = "threshold"
	// KindRatio divides numerator by denominator, clamped to [0,1].
	KindRatio Kind = "ratio"
	// KindDummy expands a categorical field into indicator columns, one
	// per vocabulary level after the first (the reference level).
	KindDummy Kind = "dummy"
	// KindRecession derives a binary flag: 1 iff the loan's active
	// period overlaps the configured recession window.
	KindRecession Kind = "recession"
)

// Window is a date range with both endpoints inclusive.
type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether the period [start, end] overlaps the window.
func (w Window) Overlaps(start, end time.Time) bool {
	return !end.Before(w.Start) && !start.After(w.End)
}

// FeatureSpec describes one feature: its source field(s) and encoding
// rule. The caller supplies the full candidate list; no feature discovery
// happens here.
type FeatureSpec struct {
	Name        string  `json:"name" yaml:"name"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	Field       string  `json:"field,omitempty" yaml:"field,omitempty"`
	Threshold   float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Numerator   string  `json:"numerator,omitempty" yaml:"numerator,omitempty"`
	Denominator string  `json:"denominator,omitempty" yaml:"denominator,omitempty"`
	// Levels is the pre-declared vocabulary for dummy features. A level
	// seen in the data but absent here is an encoding error.
	Levels []string `json:"levels,omitempty" yaml:"levels,omitempty"`
	// DateField and TermField locate the loan's active period for
	// recession features: [date, date + term months].
	DateField string `json:"date_field,omitempty" yaml:"date_field,omitempty"`
	TermField string `json:"term_field,omitempty" yaml:"term_field,omitempty"`
	Window    Window `json:"window,omitempty" yaml:"window,omitempty"`
}

// Columns returns the design-matrix column names this spec produces.
func (s FeatureSpec) Columns() []string {
	if s.Kind != KindDummy {
		return []string{s.Name}
	}
	cols := make([]string, 0, len(s.Levels)-1)
	for _, lvl := range s.Levels[1:] {
		cols = append(cols, s.Name+"_"+lvl)
	}
	return cols
}

// Dataset pairs a design matrix with its outcome vector. Row i of X
// corresponds to Y[i]; Names holds the column ordering used to build X.
type Dataset struct {
	Names []string
	X     [][]float64
	Y     []float64
}

// EncodingError reports a record that could not be encoded.
type EncodingError struct {
	Row    int
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("record %d, field %q: %s", e.Row, e.Field, e.Reason)
}

// Encode builds the design matrix and outcome vector for a record
// collection. The first column is the intercept. It fails on the first
// record with a missing required field, a non-numeric value where a
// number is expected, an unseen categorical level, or an outcome other
// than 0 or 1.
func Encode(records []Record, specs []FeatureSpec, outcomeField string) (*Dataset, error) {
	names := []string{InterceptName}
	for _, s := range specs {
		names = append(names, s.Columns()...)
	}

	ds := &Dataset{
		Names: names,
		X:     make([][]float64, 0, len(records)),
		Y:     make([]float64, 0, len(records)),
	}

	for i, r := range records {
		row, err := encodeRow(i, r, specs)
		if err != nil {
			return nil, err
		}

		out, err := numField(i, r, outcomeField)
		if err != nil {
			return nil, err
		}
		if out != 0 && out != 1 {
			return nil, &EncodingError{Row: i, Field: outcomeField, Reason: fmt.Sprintf("outcome must be 0 or 1, got %v", out)}
		}

		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, out)
	}

	return ds, nil
}

// EncodeRow encodes a single record into a feature vector (intercept
// first) without an outcome, for scoring new applications.
func EncodeRow(r Record, specs []FeatureSpec) ([]float64, error) {
	return encodeRow(0, r, specs)
}

func encodeRow(i int, r Record, specs []FeatureSpec) ([]float64, error) {
	row := []float64{1}
	for _, s := range specs {
		vals, err := s.encode(i, r)
		if err != nil {
			return nil, err
		}
		row = append(row, vals...)
	}
	return row, nil
}

func (s FeatureSpec) encode(i int, r Record) ([]float64, error) {
	switch s.Kind {
	case KindNumeric:
		v, err := numField(i, r, s.Field)
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil

	case KindThreshold:
		v, err := numField(i, r, s.Field)
		if err != nil {
			return nil, err
		}
		if v >= s.Threshold {
			return []float64{1}, nil
		}
		return []float64{0}, nil

	case KindRatio:
		num, err := numField(i, r, s.Numerator)
		if err != nil {
			return nil, err
		}
		den, err := numField(i, r, s.Denominator)
		if err != nil {
			return nil, err
		}
		if den == 0 {
			return nil, &EncodingError{Row: i, Field: s.Denominator, Reason: "ratio denominator is zero"}
		}
		return []float64{clamp01(num / den)}, nil

	case KindDummy:
		v, err := strField(i, r, s.Field)
		if err != nil {
			return nil, err
		}
		if len(s.Levels) < 2 {
			return nil, &EncodingError{Row: i, Field: s.Field, Reason: "dummy feature needs at least two vocabulary levels"}
		}
		idx := -1
		for j, lvl := range s.Levels {
			if lvl == v {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, &EncodingError{Row: i, Field: s.Field, Reason: fmt.Sprintf("level %q not in declared vocabulary", v)}
		}
		vals := make([]float64, len(s.Levels)-1)
		if idx > 0 {
			vals[idx-1] = 1
		}
		return vals, nil

	case KindRecession:
		start, err := timeField(i, r, s.DateField)
		if err != nil {
			return nil, err
		}
		term, err := numField(i, r, s.TermField)
		if err != nil {
			return nil, err
		}
		end := start.AddDate(0, int(term), 0)
		if s.Window.Overlaps(start, end) {
			return []float64{1}, nil
		}
		return []float64{0}, nil

	default:
		return nil, &EncodingError{Row: i, Field: s.Name, Reason: fmt.Sprintf("unknown feature kind %q", s.Kind)}
	}
}

// Drop returns a copy of the dataset without the named columns, used for
// nested-model refits. The intercept cannot be dropped.
func (d *Dataset) Drop(names ...string) (*Dataset, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if n == InterceptName {
			return nil, fmt.Errorf("cannot drop intercept column %q", InterceptName)
		}
		drop[n] = true
	}

	keep := make([]int, 0, len(d.Names))
	kept := make([]string, 0, len(d.Names))
	for j, n := range d.Names {
		if drop[n] {
			delete(drop, n)
			continue
		}
		keep = append(keep, j)
		kept = append(kept, n)
	}
	for n := range drop {
		return nil, fmt.Errorf("column %q not in dataset", n)
	}

	out := &Dataset{
		Names: kept,
		X:     make([][]float64, len(d.X)),
		Y:     d.Y,
	}
	for i, row := range d.X {
		nr := make([]float64, len(keep))
		for j, col := range keep {
			nr[j] = row[col]
		}
		out.X[i] = nr
	}
	return out, nil
}

func numField(i int, r Record, name string) (float64, error) {
	v, ok := r[name]
	if !ok {
		return 0, &EncodingError{Row: i, Field: name, Reason: "required field missing"}
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, &EncodingError{Row: i, Field: name, Reason: fmt.Sprintf("expected numeric value, got %T", v)}
	}
}

func strField(i int, r Record, name string) (string, error) {
	v, ok := r[name]
	if !ok {
		return "", &EncodingError{Row: i, Field: name, Reason: "required field missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &EncodingError{Row: i, Field: name, Reason: fmt.Sprintf("expected string value, got %T", v)}
	}
	return s, nil
}

func timeField(i int, r Record, name string) (time.Time, error) {
	v, ok := r[name]
	if !ok {
		return time.Time{}, &EncodingError{Row: i, Field: name, Reason: "required field missing"}
	}
	ts, ok := v.(time.Time)
	if !ok {
		return time.Time{}, &EncodingError{Row: i, Field: name, Reason: fmt.Sprintf("expected date value, got %T", v)}
	}
	return ts, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
