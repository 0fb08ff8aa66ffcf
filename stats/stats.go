// Package stats summarizes benchmark samples: search speed, depth reached
// and time per position.
package stats

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const Epsilon = 1e-6

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Running keeps a mean and variance without storing the samples
// (Welford's algorithm). The bench uses it for numbers it reports while a
// run is still going.
type Running struct {
	n    int
	mean float64
	m2   float64
}

func (r *Running) Push(val float64) {
	r.n++
	delta := val - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (val - r.mean)
}

func (r *Running) N() int {
	return r.n
}

func (r *Running) Mean() float64 {
	return r.mean
}

func (r *Running) Variance() float64 {
	if r.n <= 1 {
		return 0
	}
	return r.m2 / float64(r.n-1)
}

func (r *Running) Stdev() float64 {
	return math.Sqrt(r.Variance())
}

// Summary describes a set of samples.
type Summary struct {
	N      int
	Mean   float64
	Stdev  float64
	Min    float64
	Median float64
	P90    float64
	Max    float64
	// CI95 is the half-width of the 95% confidence interval of the mean.
	CI95 float64
}

// Summarize computes a Summary. samples is not modified.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return Summary{
		N:      len(sorted),
		Mean:   mean,
		Stdev:  std,
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
		CI95:   ZVal(95) * std / math.Sqrt(float64(len(sorted))),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.1f±%.1f sd=%.1f min=%.1f median=%.1f p90=%.1f max=%.1f",
		s.N, s.Mean, s.CI95, s.Stdev, s.Min, s.Median, s.P90, s.Max)
}

// ZVal returns the two-tailed Z-value for a confidence interval given in
// percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{Mu: 0, Sigma: 1}
	return dist.Quantile((1 + confidenceInterval/100) / 2)
}
