package logit

import "math"

// probEpsilon keeps fitted probabilities away from 0 and 1 so the IRLS
// weights p(1-p) never collapse to zero.
const probEpsilon = 1e-10

// Model is the result of one fitting call. It is immutable: refitting
// produces a new Model. All fields are plain numeric state so a Model can
// be persisted as JSON or YAML and reloaded for scoring.
type Model struct {
	FeatureNames   []string    `json:"feature_names" yaml:"feature_names"`
	Coefficients   []float64   `json:"coefficients" yaml:"coefficients"`
	StandardErrors []float64   `json:"standard_errors" yaml:"standard_errors"`
	Covariance     [][]float64 `json:"covariance" yaml:"covariance"`
	LogLikelihood  float64     `json:"log_likelihood" yaml:"log_likelihood"`
	Observations   int         `json:"observations" yaml:"observations"`
	Iterations     int         `json:"iterations" yaml:"iterations"`
}

// LinearPredictor returns x'beta for one feature vector.
func (m *Model) LinearPredictor(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, &DimensionMismatchError{Want: len(m.Coefficients), Got: len(features)}
	}
	var eta float64
	for i, b := range m.Coefficients {
		eta += b * features[i]
	}
	return eta, nil
}

// Probability returns the logistic probability of the positive outcome
// for one feature vector.
func (m *Model) Probability(features []float64) (float64, error) {
	eta, err := m.LinearPredictor(features)
	if err != nil {
		return 0, err
	}
	return sigmoid(eta), nil
}

// Probabilities scores every row of a design matrix.
func (m *Model) Probabilities(x [][]float64) ([]float64, error) {
	probs := make([]float64, len(x))
	for i, row := range x {
		p, err := m.Probability(row)
		if err != nil {
			return nil, err
		}
		probs[i] = p
	}
	return probs, nil
}

func sigmoid(eta float64) float64 {
	return 1 / (1 + math.Exp(-eta))
}

func clampProb(p float64) float64 {
	if p < probEpsilon {
		return probEpsilon
	}
	if p > 1-probEpsilon {
		return 1 - probEpsilon
	}
	return p
}
