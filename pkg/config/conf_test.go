package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbarisk/pkg/encode"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "defaulted", c.OutcomeField)
	require.Len(t, c.Features, 3)
	assert.Equal(t, "RealEstate", c.Features[0].Name)
	assert.Equal(t, float64(240), c.Features[0].Threshold)
	assert.Equal(t, "Portion", c.Features[1].Name)
	assert.Equal(t, "Recession", c.Features[2].Name)
	assert.Equal(t, time.Date(2007, 12, 1, 0, 0, 0, 0, time.UTC), c.Features[2].Window.Start)
	assert.Equal(t, 0.05, c.Alpha)
	assert.Equal(t, 0.01, c.Cutoffs.Step)

	opts := c.Options()
	assert.Equal(t, 100, opts.MaxIterations)
	assert.Equal(t, 1e-8, opts.Tolerance)
}

func TestReadOrCreate_CreatesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().OutcomeField, c.OutcomeField)

	_, err = os.Stat(filepath.Join(dir, configFileName))
	assert.NoError(t, err)
}

func TestReadOrCreate_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	custom := Default()
	custom.Alpha = 0.1
	custom.Features[2].Window = encode.Window{
		Start: time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, Save(dir, custom))

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.1, c.Alpha)
	assert.True(t, c.Features[2].Window.Start.Equal(time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, encode.KindRatio, c.Features[1].Kind)
}

func TestReadOrCreate_RequiresDir(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)
}

func TestSave_Validation(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(t.TempDir(), nil))
}
