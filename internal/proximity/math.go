package proximity

// Map linearly re-maps v from [inLo, inHi] to [outLo, outHi] without clamping.
func Map(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	return outLo + (v-inLo)*(outHi-outLo)/(inHi-inLo)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	if v != v {
		return 0
	}
	return Clamp(v, 0, 1)
}

// Lerp moves a toward b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerp(a, b, t float64) float64 {
	return Lerp(a, b, t)
}
