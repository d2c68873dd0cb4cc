package shrink

import (
	"math"
	"sort"
)

// Method selects the threshold estimator.
type Method int

const (
	Universal Method = iota
	BayesShrink
	SURE
)

// Mode selects how coefficients below the threshold are treated.
type Mode int

const (
	Soft Mode = iota
	Hard
)

const sigmaEps = 1e-10

// ParseMethod maps a config string to a Method, defaulting to Universal.
func ParseMethod(s string) Method {
	switch s {
	case "bayes":
		return BayesShrink
	case "sure":
		return SURE
	default:
		return Universal
	}
}

// ParseMode maps a config string to a Mode, defaulting to Soft.
func ParseMode(s string) Mode {
	if s == "hard" {
		return Hard
	}
	return Soft
}

// NoiseSigma estimates the noise level of a detail band as the median
// absolute coefficient over 0.6745, clamped to [eps, 2*stddev] so a
// near-constant band cannot produce a zero or runaway estimate.
func NoiseSigma(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	abs := make([]float64, len(coeffs))
	for i, c := range coeffs {
		abs[i] = math.Abs(c)
	}
	sort.Float64s(abs)
	var med float64
	n := len(abs)
	if n%2 == 1 {
		med = abs[n/2]
	} else {
		med = (abs[n/2-1] + abs[n/2]) / 2
	}
	sigma := med / 0.6745

	if ceil := 2 * stddev(coeffs); sigma > ceil {
		sigma = ceil
	}
	if sigma < sigmaEps {
		sigma = sigmaEps
	}
	return sigma
}

// Threshold computes the shrinkage threshold for one detail level.
// level is 1-based, finest level first. Empty input yields 0.
func Threshold(coeffs []float64, method Method, level int) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	switch method {
	case BayesShrink:
		return bayesThreshold(coeffs, level)
	case SURE:
		return sureThreshold(coeffs)
	default:
		return universalThreshold(coeffs)
	}
}

func universalThreshold(coeffs []float64) float64 {
	sigma := NoiseSigma(coeffs)
	return sigma * math.Sqrt(2*math.Log(float64(len(coeffs))))
}

// bayesThreshold is sigma^2 / sigmaX where sigmaX^2 is the signal variance
// estimate. A pure-noise band (no signal variance left) falls back to the
// universal threshold. Deeper levels get a mildly larger threshold.
func bayesThreshold(coeffs []float64, level int) float64 {
	sigma := NoiseSigma(coeffs)
	sigmaY := stddev(coeffs)
	sigmaX2 := sigmaY*sigmaY - sigma*sigma
	if sigmaX2 <= 0 {
		return universalThreshold(coeffs)
	}
	t := sigma * sigma / math.Sqrt(sigmaX2)
	if level > 1 {
		t *= 1 + 0.1*float64(level-1)
	}
	return t
}

// sureThreshold minimizes Stein's unbiased risk estimate over candidate
// thresholds equal to the sorted coefficient magnitudes.
func sureThreshold(coeffs []float64) float64 {
	n := len(coeffs)
	if n < 2 {
		return universalThreshold(coeffs)
	}
	sigma := NoiseSigma(coeffs)
	sigma2 := sigma * sigma

	abs := make([]float64, n)
	for i, c := range coeffs {
		abs[i] = math.Abs(c)
	}
	sort.Float64s(abs)

	// prefix sums of squared magnitudes for O(n) risk evaluation
	prefix := make([]float64, n+1)
	for i, a := range abs {
		prefix[i+1] = prefix[i] + a*a
	}

	best := abs[0]
	bestRisk := math.Inf(1)
	for i, t := range abs {
		// magnitudes abs[0..i] are <= t, the n-1-i above keep t^2 each
		above := n - 1 - i
		sumMin := prefix[i+1] + float64(above)*t*t
		risk := (float64(n) - 2*float64(above) + sumMin) / sigma2
		if risk < bestRisk {
			bestRisk = risk
			best = t
		}
	}
	return best
}

// Apply shrinks coeffs in place against threshold t and returns the slice.
func Apply(coeffs []float64, t float64, mode Mode) []float64 {
	for i, c := range coeffs {
		coeffs[i] = shrinkOne(c, t, mode)
	}
	return coeffs
}

func shrinkOne(c, t float64, mode Mode) float64 {
	a := math.Abs(c)
	if a <= t {
		return 0
	}
	if mode == Hard {
		return c
	}
	if c < 0 {
		return -(a - t)
	}
	return a - t
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
