package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSolveTimesEmpty(t *testing.T) {
	var s SolveTimes

	assert.Zero(t, s.Count())
	assert.Zero(t, s.Best())
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.StdDev())
	assert.Zero(t, s.Median())
	assert.Zero(t, s.Percentile(0.9))
	assert.Equal(t, Summary{}, s.Summary())
}

func TestSolveTimesSingleValue(t *testing.T) {
	var s SolveTimes
	s.Add(2500 * time.Millisecond)

	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 2500*time.Millisecond, s.Best())
	assert.Equal(t, 2500*time.Millisecond, s.Mean())
	assert.Equal(t, 2500*time.Millisecond, s.Median())
	assert.Zero(t, s.Variance())
}

func TestSolveTimesMultipleValues(t *testing.T) {
	var s SolveTimes
	for _, d := range []time.Duration{10 * time.Second, 4 * time.Second, 6 * time.Second, 8 * time.Second} {
		s.Add(d)
	}

	assert.Equal(t, 4, s.Count())
	assert.Equal(t, 4*time.Second, s.Best())
	assert.Equal(t, 7*time.Second, s.Mean())
	assert.Equal(t, 7*time.Second, s.Median())
	assert.InDelta(t, 20.0/3.0, s.Variance(), 1e-9)
	assert.Equal(t, 4*time.Second, s.Percentile(0))
	assert.Equal(t, 10*time.Second, s.Percentile(1))
	assert.Equal(t, 10*time.Second, s.Percentile(2), "clamped")

	assert.Equal(t, Summary{
		Count:  4,
		Best:   4 * time.Second,
		Mean:   7 * time.Second,
		Median: 7 * time.Second,
	}, s.Summary())
}

func TestSolveTimesClampsNegative(t *testing.T) {
	var s SolveTimes
	s.Add(-time.Second)
	s.Add(3 * time.Second)

	assert.Zero(t, s.Best())
	assert.Equal(t, 1500*time.Millisecond, s.Mean())
}
