package stat

import (
	"math"

	gstat "gonum.org/v1/gonum/stat"
)

// Moments summarises a float sample.
type Moments struct {
	Count    int
	Min      float64
	Max      float64
	Mean     float64
	Variance float64
}

// Describe computes sample moments. Variance is the unbiased sample variance,
// reported as zero for fewer than two values. An empty sample yields NaN
// mean, min and max.
func Describe(values []float64) Moments {
	m := Moments{Count: len(values), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	if len(values) == 0 {
		return m
	}
	m.Min, m.Max = values[0], values[0]
	for _, v := range values[1:] {
		m.Min = math.Min(m.Min, v)
		m.Max = math.Max(m.Max, v)
	}
	if len(values) == 1 {
		m.Mean = values[0]
		return m
	}
	m.Mean, m.Variance = gstat.MeanVariance(values, nil)
	return m
}

func (m Moments) StdDev() float64 {
	return math.Sqrt(m.Variance)
}
