// Package statistics summarises how long solved rounds took.
package statistics

import (
	"math"
	"sort"
	"time"
)

// SolveTimes accumulates the durations of solved rounds. The zero value is
// ready to use.
type SolveTimes struct {
	sum    float64
	sum2   float64 // sum of squares, for variance
	values []float64
	best   time.Duration
}

// Add records a round solved in d.
func (s *SolveTimes) Add(d time.Duration) {
	if d < 0 {
		d = 0
	}
	v := d.Seconds()
	s.sum += v
	s.sum2 += v * v
	s.values = append(s.values, v)

	if len(s.values) == 1 || d < s.best {
		s.best = d
	}
}

// Count returns the number of recorded rounds.
func (s *SolveTimes) Count() int {
	return len(s.values)
}

// Best returns the fastest solve, or zero if nothing was recorded.
func (s *SolveTimes) Best() time.Duration {
	return s.best
}

// Mean returns the arithmetic mean solve time.
func (s *SolveTimes) Mean() time.Duration {
	if len(s.values) == 0 {
		return 0
	}
	return seconds(s.sum / float64(len(s.values)))
}

// Variance returns the sample variance in seconds squared.
func (s *SolveTimes) Variance() float64 {
	n := float64(len(s.values))
	if n < 2 {
		return 0
	}
	mean := s.sum / n
	return math.Max(0, (s.sum2-n*mean*mean)/(n-1))
}

// StdDev returns the sample standard deviation.
func (s *SolveTimes) StdDev() time.Duration {
	return seconds(math.Sqrt(s.Variance()))
}

// Median returns the median solve time.
func (s *SolveTimes) Median() time.Duration {
	return s.Percentile(0.5)
}

// Percentile returns the solve time at p (0.0 to 1.0), interpolating
// between neighbouring values.
func (s *SolveTimes) Percentile(p float64) time.Duration {
	if len(s.values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.values))
	copy(sorted, s.values)
	sort.Float64s(sorted)

	p = math.Min(math.Max(p, 0), 1)
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return seconds(sorted[len(sorted)-1])
	}

	weight := index - float64(lower)
	return seconds(sorted[lower]*(1-weight) + sorted[upper]*weight)
}

// Summary is a point-in-time view of SolveTimes.
type Summary struct {
	Count  int
	Best   time.Duration
	Mean   time.Duration
	Median time.Duration
}

// Summary snapshots the current statistics.
func (s *SolveTimes) Summary() Summary {
	return Summary{
		Count:  s.Count(),
		Best:   s.Best(),
		Mean:   s.Mean(),
		Median: s.Median(),
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}
