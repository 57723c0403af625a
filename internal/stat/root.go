package stat

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoRoot = errors.New("no root in interval")

const maxBisections = 200

// FindRoot locates x in [lo, hi] with f(x) = 0 by bisection. The interval
// must bracket a sign change.
func FindRoot(f func(float64) float64, lo, hi, tolerance float64) (float64, error) {
	if !(lo < hi) || math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, fmt.Errorf("invalid interval [%v, %v]", lo, hi)
	}
	if !(tolerance > 0) {
		return 0, fmt.Errorf("tolerance must be > 0: %v", tolerance)
	}

	flo, fhi := f(lo), f(hi)
	switch {
	case flo == 0:
		return lo, nil
	case fhi == 0:
		return hi, nil
	case math.IsNaN(flo) || math.IsNaN(fhi) || math.Signbit(flo) == math.Signbit(fhi):
		return 0, fmt.Errorf("f(%v)=%v, f(%v)=%v: %w", lo, flo, hi, fhi, ErrNoRoot)
	}

	for range maxBisections {
		mid := lo + (hi-lo)/2
		fmid := f(mid)
		if fmid == 0 || hi-lo <= tolerance {
			return mid, nil
		}
		if math.Signbit(fmid) == math.Signbit(flo) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2, nil
}
