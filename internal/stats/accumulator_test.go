package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_Empty(t *testing.T) {
	var a Accumulator
	assert.Equal(t, int64(0), a.Count())
	assert.Equal(t, 0.0, a.Sum())
	assert.Equal(t, 0.0, a.Mean())
	assert.Equal(t, 0.0, a.Min())
	assert.Equal(t, 0.0, a.Max())
	assert.Equal(t, 0.0, a.Variance())
	assert.Equal(t, 0.0, a.Stdev())
}

func TestAccumulator_SingleSample(t *testing.T) {
	var a Accumulator
	a.Add(42.0)
	assert.Equal(t, int64(1), a.Count())
	assert.Equal(t, 42.0, a.Mean())
	assert.Equal(t, 42.0, a.Min())
	assert.Equal(t, 42.0, a.Max())
	assert.Equal(t, 0.0, a.Variance())
}

func TestAccumulator_KnownSeries(t *testing.T) {
	var a Accumulator
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	for _, v := range values {
		a.Add(v)
	}
	require.Equal(t, int64(len(values)), a.Count())
	assert.InDelta(t, 5.0, a.Mean(), 1e-9)
	assert.InDelta(t, 4.0, a.Variance(), 1e-9)
	assert.InDelta(t, 2.0, a.Stdev(), 1e-9)
	assert.Equal(t, 2.0, a.Min())
	assert.Equal(t, 9.0, a.Max())
	assert.Equal(t, 40.0, a.Sum())
}

func TestAccumulator_RejectsNonFinite(t *testing.T) {
	var a Accumulator
	a.Add(1.0)
	a.Add(math.NaN())
	a.Add(math.Inf(1))
	a.Add(math.Inf(-1))
	a.Add(2.0)
	assert.Equal(t, int64(2), a.Count())
	assert.InDelta(t, 1.5, a.Mean(), 1e-9)
}

func TestAccumulator_Reset(t *testing.T) {
	var a Accumulator
	a.Add(10)
	a.Add(20)
	a.Reset()
	assert.Equal(t, int64(0), a.Count())
	assert.Equal(t, 0.0, a.Mean())
}
