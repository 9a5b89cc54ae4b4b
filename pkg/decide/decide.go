// Package decide applies a fitted model and tuned cutoff to new loan
// applications. Decisions are pure functions of the model, so concurrent
// scoring against a shared Model needs no locking.
package decide

import (
	"sbarisk/pkg/logit"
)

// Decision is the output for one application: the estimated default
// probability and whether the loan clears the cutoff. Ephemeral; nothing
// here is stored unless the caller wires a cache.
type Decision struct {
	Probability float64 `json:"probability" yaml:"probability"`
	Approve     bool    `json:"approve" yaml:"approve"`
}

// Decide scores one feature vector: approve iff the default probability
// is below the cutoff. Fails with logit.DimensionMismatchError when the
// vector does not match the model's column count.
func Decide(m *logit.Model, cutoff float64, features []float64) (Decision, error) {
	p, err := m.Probability(features)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Probability: p, Approve: p < cutoff}, nil
}
