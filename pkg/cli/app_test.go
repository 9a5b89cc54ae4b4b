package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbarisk/pkg/encode"
	"sbarisk/pkg/logit"
)

func TestNewApp(t *testing.T) {
	app := newApp()
	require.NotNil(t, app)
	assert.Equal(t, "sbarisk", app.Name)
	assert.Len(t, app.Commands, 4)

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"import", "train", "evaluate", "decide"}, names)
}

func TestModelRoundTrip(t *testing.T) {
	m := &logit.Model{
		FeatureNames:   []string{"const", "RealEstate"},
		Coefficients:   []float64{1.5, -2.1},
		StandardErrors: []float64{0.1, 0.2},
		LogLikelihood:  -600.25,
		Observations:   1102,
		Iterations:     7,
	}

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, saveModel(path, m))

	got, err := loadModel(path)
	require.NoError(t, err)
	assert.Equal(t, m.FeatureNames, got.FeatureNames)
	assert.Equal(t, m.Coefficients, got.Coefficients)
	assert.Equal(t, m.Observations, got.Observations)
}

func TestLoadModelErrors(t *testing.T) {
	_, err := loadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	// A valid JSON document that is not a complete model.
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, saveModel(path, &logit.Model{}))
	_, err = loadModel(path)
	assert.Error(t, err)
}

func TestAlignDataset(t *testing.T) {
	ds := &encode.Dataset{
		Names: []string{"const", "RealEstate", "Portion", "Recession"},
		X: [][]float64{
			{1, 1, 0.75, 0},
			{1, 0, 0.40, 1},
		},
		Y: []float64{0, 1},
	}

	got, err := alignDataset(ds, []string{"const", "RealEstate", "Recession"})
	require.NoError(t, err)
	assert.Equal(t, []string{"const", "RealEstate", "Recession"}, got.Names)
	assert.Equal(t, []float64{1, 1, 0}, got.X[0])
	assert.Equal(t, []float64{1, 0, 1}, got.X[1])

	// No columns to drop returns the dataset unchanged.
	same, err := alignDataset(ds, ds.Names)
	require.NoError(t, err)
	assert.Equal(t, ds, same)

	_, err = alignDataset(ds, []string{"const", "Unknown"})
	assert.Error(t, err)
}

func TestSpecsFor(t *testing.T) {
	specs := []encode.FeatureSpec{
		{Name: "RealEstate", Kind: encode.KindThreshold, Field: "term", Threshold: 240},
		{Name: "Portion", Kind: encode.KindRatio, Numerator: "sba_appv", Denominator: "gr_appv"},
		{Name: "Recession", Kind: encode.KindRecession, DateField: "disbursement_date", TermField: "term"},
	}

	kept, err := specsFor(specs, []string{"const", "RealEstate", "Portion"})
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "RealEstate", kept[0].Name)
	assert.Equal(t, "Portion", kept[1].Name)

	_, err = specsFor(specs, []string{"const", "NotConfigured"})
	assert.Error(t, err)
}

func TestOutputFormats(t *testing.T) {
	prev := outputFormat
	defer func() { outputFormat = prev }()

	outputFormat = formatJSON
	assert.NoError(t, output(map[string]int{"a": 1}))

	outputFormat = formatYAML
	assert.NoError(t, output(map[string]int{"a": 1}))
}
