package eval

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbarisk/pkg/logit"
)

// singleFeatureModel scores rows of the form [1, v] with probability
// driven entirely by v.
func singleFeatureModel(weight float64) *logit.Model {
	return &logit.Model{
		FeatureNames: []string{"const", "x"},
		Coefficients: []float64{0, weight},
	}
}

func TestConfusionMatrix_DocumentedCaseStudy(t *testing.T) {
	// The case-study holdout: TP=31, FN=14, FP=324, TN=682.
	cm := ConfusionMatrix{
		TruePositives:  31,
		FalseNegatives: 14,
		FalsePositives: 324,
		TrueNegatives:  682,
	}
	assert.Equal(t, 1051, cm.Total())
	assert.InDelta(t, 338.0/1051.0, cm.MisclassificationRate(), 1e-12)
	assert.InDelta(t, 0.3216, cm.MisclassificationRate(), 0.0001)
}

func TestEvaluate_CountsSumToObservations(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := singleFeatureModel(1.5)
	n := 200
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{1, rng.NormFloat64()}
		if rng.Float64() < 0.4 {
			y[i] = 1
		}
	}

	for _, cutoff := range []float64{0, 0.25, 0.5, 0.75, 1} {
		rep, err := Evaluate(m, x, y, cutoff)
		require.NoError(t, err)
		assert.Equal(t, n, rep.Confusion.Total(), "cutoff %v", cutoff)
	}
}

func TestEvaluate_PerfectSeparatorAUC(t *testing.T) {
	// Feature equals the outcome with a large weight: probabilities are
	// near 0 or near 1 and ordering is perfect.
	m := singleFeatureModel(20)
	m.Coefficients[0] = -10
	var x [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		out := float64(i % 2)
		x = append(x, []float64{1, out})
		y = append(y, out)
	}

	rep, err := Evaluate(m, x, y, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rep.AUC, 1e-12)
	assert.Equal(t, 0, rep.Confusion.FalsePositives)
	assert.Equal(t, 0, rep.Confusion.FalseNegatives)
	assert.InDelta(t, 0, rep.MisclassificationRate, 1e-12)
}

func TestEvaluate_NonInformativeAUC(t *testing.T) {
	// Constant scores carry no information: the ROC collapses to the
	// diagonal and AUC is exactly 0.5.
	m := singleFeatureModel(0)
	var x [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		x = append(x, []float64{1, float64(i)})
		y = append(y, float64(i%3%2)) // mixed classes
	}

	rep, err := Evaluate(m, x, y, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rep.AUC, 1e-12)
}

func TestEvaluate_ROCisMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	m := singleFeatureModel(2)
	var x [][]float64
	var y []float64
	for i := 0; i < 150; i++ {
		v := rng.NormFloat64()
		x = append(x, []float64{1, v})
		if rng.Float64() < 1/(1+math.Exp(-2*v)) {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	rep, err := Evaluate(m, x, y, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, rep.ROC)
	assert.Equal(t, ROCPoint{FPR: 0, TPR: 0}, rep.ROC[0])
	for i := 1; i < len(rep.ROC); i++ {
		assert.GreaterOrEqual(t, rep.ROC[i].FPR, rep.ROC[i-1].FPR)
		assert.GreaterOrEqual(t, rep.ROC[i].TPR, rep.ROC[i-1].TPR)
	}
	last := rep.ROC[len(rep.ROC)-1]
	assert.InDelta(t, 1.0, last.FPR, 1e-12)
	assert.InDelta(t, 1.0, last.TPR, 1e-12)
}

func TestEvaluate_PseudoR2Bounds(t *testing.T) {
	// A model fitted to informative data should beat the null model.
	rng := rand.New(rand.NewSource(21))
	n := 400
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := rng.NormFloat64()
		x[i] = []float64{1, v}
		if rng.Float64() < 1/(1+math.Exp(-2.5*v)) {
			y[i] = 1
		}
	}
	m, err := logit.Fit(x, y, []string{"const", "x"}, logit.Options{})
	require.NoError(t, err)

	rep, err := Evaluate(m, x, y, 0.5)
	require.NoError(t, err)
	assert.Greater(t, rep.PseudoR2, 0.1)
	assert.Less(t, rep.PseudoR2, 1.0)
}

func TestOptimalCutoff_EmptyCandidates(t *testing.T) {
	m := singleFeatureModel(1)
	_, err := OptimalCutoff(m, [][]float64{{1, 0}}, []float64{0}, nil)
	require.Error(t, err)
	var empty *EmptyCandidateSetError
	assert.ErrorAs(t, err, &empty)
}

func TestOptimalCutoff_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	m := singleFeatureModel(3)
	n := 300
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := rng.NormFloat64()
		x[i] = []float64{1, v}
		if rng.Float64() < 1/(1+math.Exp(-3*v)) {
			y[i] = 1
		}
	}
	grid := CutoffGrid(0, 1, 0.01)
	require.Len(t, grid, 101)

	c1, err := OptimalCutoff(m, x, y, grid)
	require.NoError(t, err)
	c2, err := OptimalCutoff(m, x, y, grid)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	// A finer grid around the optimum can only do as well or better.
	fine := CutoffGrid(0, 1, 0.001)
	cf, err := OptimalCutoff(m, x, y, fine)
	require.NoError(t, err)

	probs, err := m.Probabilities(x)
	require.NoError(t, err)
	coarseRate := confusion(probs, y, c1).MisclassificationRate()
	fineRate := confusion(probs, y, cf).MisclassificationRate()
	assert.LessOrEqual(t, fineRate, coarseRate)
}

func TestOptimalCutoff_TieBreaksToSmallest(t *testing.T) {
	// All-zero outcomes: every cutoff above the constant probability has
	// the same zero rate; the scan must return the smallest such cutoff.
	m := singleFeatureModel(0) // probability 0.5 everywhere
	x := [][]float64{{1, 0}, {1, 0}, {1, 0}}
	y := []float64{0, 0, 0}

	c, err := OptimalCutoff(m, x, y, []float64{0.6, 0.7, 0.8, 0.9})
	require.NoError(t, err)
	assert.Equal(t, 0.6, c)
}

func TestCutoffGrid(t *testing.T) {
	grid := CutoffGrid(0, 1, 0.25)
	require.Len(t, grid, 5)
	assert.InDelta(t, 0, grid[0], 1e-12)
	assert.InDelta(t, 1, grid[4], 1e-12)

	assert.Nil(t, CutoffGrid(0, 1, 0))
	assert.Nil(t, CutoffGrid(1, 0, 0.1))
}
