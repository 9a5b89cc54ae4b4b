package eval

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"sbarisk/pkg/logit"
)

// EmptyCandidateSetError is returned when the cutoff scan is given no
// candidates.
type EmptyCandidateSetError struct{}

func (e *EmptyCandidateSetError) Error() string {
	return "candidate cutoff set is empty"
}

// CutoffGrid builds an evenly spaced candidate sequence over [min, max].
// The caller controls resolution; a finer grid costs proportionally more.
func CutoffGrid(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	var out []float64
	for i := 0; ; i++ {
		c := min + float64(i)*step
		if c > max+step/2 {
			break
		}
		out = append(out, c)
	}
	return out
}

// OptimalCutoff scans the candidate sequence and returns the cutoff with
// the lowest misclassification rate, classifying predicted=1 iff
// probability >= cutoff. Ties break to the smallest cutoff, so the result
// is deterministic and rerunning on the same inputs is idempotent.
//
// Candidates are scored in parallel; each candidate's rate depends only
// on the shared probability vector, and the final reduce walks candidates
// in their given order, so results are bit-identical to a serial scan.
func OptimalCutoff(m *logit.Model, x [][]float64, y []float64, candidates []float64) (float64, error) {
	if len(candidates) == 0 {
		return 0, &EmptyCandidateSetError{}
	}

	probs, err := m.Probabilities(x)
	if err != nil {
		return 0, err
	}

	rates := make([]float64, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			rates[i] = confusion(probs, y, c).MisclassificationRate()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	best := 0
	for i := 1; i < len(rates); i++ {
		if rates[i] < rates[best] || (rates[i] == rates[best] && candidates[i] < candidates[best]) {
			best = i
		}
	}
	return candidates[best], nil
}
