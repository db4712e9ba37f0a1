package engine

import "math"

// RoundUpToGolden advances angle to the next snap stop: multiples of 45
// when locked, otherwise multiples of 15 that skip straight from 0 to 30 and
// from 60 to 90 within each 90 degree quadrant. The result is in [0, 360).
func RoundUpToGolden(angle float64, locked bool) float64 {
	step := snapStep(locked)
	bucket := int(int32(math.Mod(angle, 360))) / step
	if (bucket%6 == 0 || bucket%6 == 4) && !locked {
		bucket += 2
	} else {
		bucket++
	}
	a := bucket * step
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return float64(a)
}

// RoundDownToGolden is the mirror of RoundUpToGolden. Negative results wrap
// into [0, 360); the upper bound is not clamped.
func RoundDownToGolden(angle float64, locked bool) float64 {
	step := snapStep(locked)
	bucket := int(int32(math.Mod(angle, 360))) / step
	if (bucket%6 == 0 || bucket%6 == 2) && !locked {
		bucket -= 2
	} else {
		bucket--
	}
	a := bucket * step
	if a < 0 {
		a += 360
	}
	return float64(a)
}

func snapStep(locked bool) int {
	if locked {
		return 45
	}
	return 15
}
