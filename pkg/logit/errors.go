package logit

import "fmt"

// ConvergenceError is returned when the IRLS loop exhausts its iteration
// budget before the log-likelihood change drops below tolerance.
type ConvergenceError struct {
	Iterations int
	Delta      float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("fit did not converge after %d iterations (last log-likelihood delta: %g)", e.Iterations, e.Delta)
}

// SingularMatrixError is returned when the information matrix X'WX is not
// invertible, typically caused by perfect separation or collinear columns.
type SingularMatrixError struct {
	Iteration int
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("information matrix is singular at iteration %d (perfect separation or collinear features)", e.Iteration)
}

// DimensionMismatchError is returned when a feature vector does not match
// the model's column count.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("feature vector has %d values, model expects %d", e.Got, e.Want)
}
