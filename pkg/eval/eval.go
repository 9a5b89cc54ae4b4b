// Package eval measures a fitted model against labeled data: confusion
// matrix, misclassification rate, McFadden pseudo-R², ROC curve and AUC,
// plus the cutoff scan that tunes the classification threshold.
package eval

import (
	"fmt"
	"sort"

	"sbarisk/pkg/logit"
)

// ConfusionMatrix crosses predicted High Risk (probability >= cutoff)
// with the actual outcome.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives" yaml:"true_positives"`
	FalsePositives int `json:"false_positives" yaml:"false_positives"`
	TrueNegatives  int `json:"true_negatives" yaml:"true_negatives"`
	FalseNegatives int `json:"false_negatives" yaml:"false_negatives"`
}

// Total is the number of observations the matrix was computed over.
func (c ConfusionMatrix) Total() int {
	return c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives
}

// MisclassificationRate is the off-diagonal share of the matrix.
func (c ConfusionMatrix) MisclassificationRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.FalsePositives+c.FalseNegatives) / float64(total)
}

// ROCPoint is one (false-positive-rate, true-positive-rate) pair.
type ROCPoint struct {
	FPR float64 `json:"fpr" yaml:"fpr"`
	TPR float64 `json:"tpr" yaml:"tpr"`
}

// Report is the evaluation of one (model, cutoff) pair.
type Report struct {
	Cutoff                float64         `json:"cutoff" yaml:"cutoff"`
	Confusion             ConfusionMatrix `json:"confusion" yaml:"confusion"`
	MisclassificationRate float64         `json:"misclassification_rate" yaml:"misclassification_rate"`
	PseudoR2              float64         `json:"pseudo_r2" yaml:"pseudo_r2"`
	ROC                   []ROCPoint      `json:"roc" yaml:"roc"`
	AUC                   float64         `json:"auc" yaml:"auc"`
}

// Evaluate computes the full report for a model at the given cutoff. The
// McFadden pseudo-R² refits an intercept-only null model internally.
func Evaluate(m *logit.Model, x [][]float64, y []float64, cutoff float64) (*Report, error) {
	probs, err := m.Probabilities(x)
	if err != nil {
		return nil, err
	}

	cm := confusion(probs, y, cutoff)
	roc := rocCurve(probs, y)

	r2, err := pseudoR2(m, y)
	if err != nil {
		return nil, fmt.Errorf("fitting null model: %w", err)
	}

	return &Report{
		Cutoff:                cutoff,
		Confusion:             cm,
		MisclassificationRate: cm.MisclassificationRate(),
		PseudoR2:              r2,
		ROC:                   roc,
		AUC:                   auc(roc),
	}, nil
}

// confusion classifies predicted=1 iff probability >= cutoff.
func confusion(probs, y []float64, cutoff float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, p := range probs {
		predicted := p >= cutoff
		actual := y[i] == 1
		switch {
		case predicted && actual:
			cm.TruePositives++
		case predicted && !actual:
			cm.FalsePositives++
		case !predicted && actual:
			cm.FalseNegatives++
		default:
			cm.TrueNegatives++
		}
	}
	return cm
}

// pseudoR2 is McFadden's 1 - ll_model/ll_null.
func pseudoR2(m *logit.Model, y []float64) (float64, error) {
	ones := make([][]float64, len(y))
	for i := range ones {
		ones[i] = []float64{1}
	}
	null, err := logit.Fit(ones, y, []string{"const"}, logit.Options{})
	if err != nil {
		return 0, err
	}
	return 1 - m.LogLikelihood/null.LogLikelihood, nil
}

// rocCurve walks the distinct predicted probabilities in descending order
// as thresholds, classifying predicted=1 iff p >= threshold. The curve
// starts at (0,0) and is non-decreasing in both axes by construction.
func rocCurve(probs, y []float64) []ROCPoint {
	var positives, negatives int
	for _, v := range y {
		if v == 1 {
			positives++
		} else {
			negatives++
		}
	}

	thresholds := distinctDescending(probs)

	points := make([]ROCPoint, 0, len(thresholds)+1)
	points = append(points, ROCPoint{FPR: 0, TPR: 0})
	for _, t := range thresholds {
		var tp, fp int
		for i, p := range probs {
			if p >= t {
				if y[i] == 1 {
					tp++
				} else {
					fp++
				}
			}
		}
		points = append(points, ROCPoint{
			FPR: rate(fp, negatives),
			TPR: rate(tp, positives),
		})
	}
	return points
}

// auc integrates the ROC curve by the trapezoid rule over ascending FPR.
func auc(points []ROCPoint) float64 {
	sorted := append([]ROCPoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].FPR != sorted[j].FPR {
			return sorted[i].FPR < sorted[j].FPR
		}
		return sorted[i].TPR < sorted[j].TPR
	})

	var area float64
	for i := 1; i < len(sorted); i++ {
		dx := sorted[i].FPR - sorted[i-1].FPR
		area += dx * (sorted[i].TPR + sorted[i-1].TPR) / 2
	}
	return area
}

func distinctDescending(probs []float64) []float64 {
	sorted := append([]float64(nil), probs...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	out := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
