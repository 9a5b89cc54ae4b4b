package logit

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const (
	// MaxIterationsDefault bounds the IRLS loop when the caller does not.
	MaxIterationsDefault = 100
	// ToleranceDefault is the log-likelihood change below which the fit
	// is considered converged.
	ToleranceDefault = 1e-8
)

// Options control the iterative solve.
type Options struct {
	MaxIterations int
	Tolerance     float64
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = MaxIterationsDefault
	}
	if o.Tolerance <= 0 {
		o.Tolerance = ToleranceDefault
	}
	return o
}

// Fit estimates logistic regression coefficients by maximum likelihood
// using iteratively reweighted least squares. The outcome vector must
// contain only 0 and 1 values, paired positionally with the rows of x.
// On failure no partial Model is returned.
func Fit(x [][]float64, y []float64, names []string, opts Options) (*Model, error) {
	if err := validate(x, y, names); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	n := len(x)
	k := len(x[0])
	beta := make([]float64, k)
	probs := make([]float64, n)

	prevLL := math.Inf(-1)
	var ll, delta float64
	converged := false
	iters := 0

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		iters = iter

		for i, row := range x {
			eta := 0.0
			for j, b := range beta {
				eta += b * row[j]
			}
			probs[i] = clampProb(sigmoid(eta))
		}

		ll = logLikelihood(probs, y)
		delta = math.Abs(ll - prevLL)
		if iter > 1 && delta < opts.Tolerance {
			converged = true
			iters = iter - 1
			break
		}
		prevLL = ll

		xtwx := information(x, probs)
		score := scoreVector(x, y, probs)

		step, ok := solve(xtwx, score)
		if !ok {
			return nil, &SingularMatrixError{Iteration: iter}
		}
		for j := range beta {
			beta[j] += step[j]
		}
	}

	if !converged {
		return nil, &ConvergenceError{Iterations: opts.MaxIterations, Delta: delta}
	}

	// Covariance is (X'WX)^-1 at the final coefficients.
	for i, row := range x {
		eta := 0.0
		for j, b := range beta {
			eta += b * row[j]
		}
		probs[i] = clampProb(sigmoid(eta))
	}
	cov, ok := invert(information(x, probs))
	if !ok {
		return nil, &SingularMatrixError{Iteration: iters}
	}

	se := make([]float64, k)
	for j := 0; j < k; j++ {
		se[j] = math.Sqrt(cov[j][j])
	}

	slog.Debug("fit converged", "iterations", iters, "log_likelihood", ll)

	return &Model{
		FeatureNames:   append([]string(nil), names...),
		Coefficients:   beta,
		StandardErrors: se,
		Covariance:     cov,
		LogLikelihood:  logLikelihood(probs, y),
		Observations:   n,
		Iterations:     iters,
	}, nil
}

func validate(x [][]float64, y []float64, names []string) error {
	if len(x) == 0 {
		return errors.New("design matrix is empty")
	}
	if len(x) != len(y) {
		return fmt.Errorf("design matrix has %d rows, outcome vector has %d", len(x), len(y))
	}
	k := len(x[0])
	if k == 0 {
		return errors.New("design matrix has no columns")
	}
	if len(names) != k {
		return fmt.Errorf("design matrix has %d columns, %d feature names given", k, len(names))
	}
	for i, row := range x {
		if len(row) != k {
			return fmt.Errorf("row %d has %d columns, expected %d", i, len(row), k)
		}
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("outcome at row %d is %v, must be 0 or 1", i, v)
		}
	}
	return nil
}

func logLikelihood(probs, y []float64) float64 {
	var ll float64
	for i, p := range probs {
		if y[i] == 1 {
			ll += math.Log(p)
		} else {
			ll += math.Log(1 - p)
		}
	}
	return ll
}

// information builds X'WX with W = diag(p(1-p)).
func information(x [][]float64, probs []float64) [][]float64 {
	k := len(x[0])
	m := make([][]float64, k)
	for j := range m {
		m[j] = make([]float64, k)
	}
	for i, row := range x {
		w := probs[i] * (1 - probs[i])
		for a := 0; a < k; a++ {
			wa := w * row[a]
			for b := a; b < k; b++ {
				m[a][b] += wa * row[b]
			}
		}
	}
	for a := 0; a < k; a++ {
		for b := 0; b < a; b++ {
			m[a][b] = m[b][a]
		}
	}
	return m
}

// scoreVector builds the gradient X'(y - p).
func scoreVector(x [][]float64, y, probs []float64) []float64 {
	k := len(x[0])
	g := make([]float64, k)
	for i, row := range x {
		r := y[i] - probs[i]
		for j := 0; j < k; j++ {
			g[j] += r * row[j]
		}
	}
	return g
}
