package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbarisk/pkg/encode"
	"sbarisk/pkg/logit"
)

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.975, normalCDF(1.959964), 1e-5)
	assert.InDelta(t, 0.025, normalCDF(-1.959964), 1e-5)
	assert.InDelta(t, 0.8413447, normalCDF(1), 1e-6)
}

func TestChiSquareSF(t *testing.T) {
	// Reference values from scipy.stats.chi2.sf.
	assert.InDelta(t, 0.05, chiSquareSF(3.841459, 1), 1e-5)
	assert.InDelta(t, 0.05, chiSquareSF(5.991465, 2), 1e-5)
	assert.InDelta(t, 0.05, chiSquareSF(7.814728, 3), 1e-5)
	assert.InDelta(t, 0.3173105, chiSquareSF(1, 1), 1e-6)
	assert.InDelta(t, 1.0, chiSquareSF(0, 4), 1e-12)
	assert.InDelta(t, 0.0067379, chiSquareSF(10, 2), 1e-6)
}

// testDataset has one strong predictor and one noise predictor. Each base
// row is emitted twice with the noise value mirrored (+1/-1) and the same
// outcome, so the likelihood is symmetric in the noise coefficient and its
// MLE is exactly zero.
func testDataset(n int) *encode.Dataset {
	rng := rand.New(rand.NewSource(11))
	ds := &encode.Dataset{
		Names: []string{"const", "signal", "noise"},
		X:     make([][]float64, 0, n),
		Y:     make([]float64, 0, n),
	}
	for i := 0; i < n/2; i++ {
		s := rng.NormFloat64()
		eta := -0.3 + 1.8*s
		var out float64
		if rng.Float64() < 1/(1+math.Exp(-eta)) {
			out = 1
		}
		ds.X = append(ds.X, []float64{1, s, 1}, []float64{1, s, -1})
		ds.Y = append(ds.Y, out, out)
	}
	return ds
}

func TestWaldTest(t *testing.T) {
	ds := testDataset(800)
	m, err := logit.Fit(ds.X, ds.Y, ds.Names, logit.Options{})
	require.NoError(t, err)

	rep := WaldTest(m)
	assert.Equal(t, "wald", rep.Method)
	require.Len(t, rep.Entries, 3)

	sig, ok := rep.Entry("signal")
	require.True(t, ok)
	assert.Less(t, sig.PValue, 0.001)
	assert.InDelta(t, sig.ZValue*sig.ZValue, sig.ChiSquare, 1e-9)
	assert.Less(t, sig.Lower, sig.Estimate)
	assert.Greater(t, sig.Upper, sig.Estimate)
	assert.InDelta(t, 2*zCritical95*sig.StdErr, sig.Upper-sig.Lower, 1e-9)

	noise, ok := rep.Entry("noise")
	require.True(t, ok)
	assert.Greater(t, noise.PValue, 0.9)
}

func TestTypeIII(t *testing.T) {
	ds := testDataset(800)

	rep, err := TypeIII(ds, logit.Options{})
	require.NoError(t, err)
	assert.Equal(t, "type3", rep.Method)
	require.Len(t, rep.Entries, 2)

	sig, ok := rep.Entry("signal")
	require.True(t, ok)
	assert.Equal(t, 1, sig.DF)
	assert.Less(t, sig.PValue, 0.001)
	assert.Positive(t, sig.ChiSquare)

	noise, ok := rep.Entry("noise")
	require.True(t, ok)
	assert.Greater(t, noise.PValue, 0.9)
}

func TestCompareNested(t *testing.T) {
	ds := testDataset(400)
	full, err := logit.Fit(ds.X, ds.Y, ds.Names, logit.Options{})
	require.NoError(t, err)

	reducedDS, err := ds.Drop("signal")
	require.NoError(t, err)
	reduced, err := logit.Fit(reducedDS.X, reducedDS.Y, reducedDS.Names, logit.Options{})
	require.NoError(t, err)

	rep, err := CompareNested(full, reduced, []string{"signal"})
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)

	e := rep.Entries[0]
	assert.Equal(t, "signal", e.Feature)
	assert.Equal(t, 1, e.DF)
	assert.InDelta(t, 2*(full.LogLikelihood-reduced.LogLikelihood), e.ChiSquare, 1e-9)
	assert.Less(t, e.PValue, 0.001)
}

func TestCompareNested_NotNested(t *testing.T) {
	m1 := &logit.Model{Coefficients: []float64{1, 2, 3}}
	m2 := &logit.Model{Coefficients: []float64{1}}

	_, err := CompareNested(m1, m2, []string{"a"})
	assert.Error(t, err)

	_, err = CompareNested(m1, m2, nil)
	assert.Error(t, err)
}
