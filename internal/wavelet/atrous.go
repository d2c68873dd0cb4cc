package wavelet

import "fmt"

// atrous implements the undecimated (à trous) pyramid: each level smooths
// the previous approximation with the scaling kernel upsampled by 2^(j-1),
// and the detail band is the difference between successive approximations.
// Every band keeps the window's length and the inverse is an exact sum,
// a_J + d_1 + ... + d_J.
type atrous struct {
	name   string
	kernel []float64 // normalized to sum 1, causal (looks back only)
}

func init() {
	Register("haar", func() Transform {
		return &atrous{name: "haar", kernel: []float64{0.5, 0.5}}
	})
	// db4 scaling coefficients normalized to unit sum, used as the
	// smoothing kernel of the pyramid.
	Register("db4", func() Transform {
		return &atrous{name: "db4", kernel: []float64{
			0.3415064, 0.5915064, 0.1584936, -0.0915064,
		}}
	})
}

func (a *atrous) Name() string { return a.name }

func (a *atrous) Forward(prices []float64, levels int) (Decomposition, error) {
	n := len(prices)
	if n == 0 {
		return Decomposition{}, fmt.Errorf("empty price window")
	}
	if levels <= 0 {
		return Decomposition{}, fmt.Errorf("levels must be positive, got %d", levels)
	}

	approx := append([]float64(nil), prices...)
	details := make([][]float64, 0, levels)

	stride := 1
	for j := 0; j < levels; j++ {
		next := a.smooth(approx, stride)
		detail := make([]float64, n)
		for i := range detail {
			detail[i] = approx[i] - next[i]
		}
		details = append(details, detail)
		approx = next
		stride *= 2
	}

	return Decomposition{Approx: approx, Details: details}, nil
}

// Inverse reconstructs the window by summing the approximation and all
// detail bands. Exact for unshrunk coefficients.
func (a *atrous) Inverse(d Decomposition) []float64 {
	out := append([]float64(nil), d.Approx...)
	for _, lvl := range d.Details {
		for i := range out {
			if i < len(lvl) {
				out[i] += lvl[i]
			}
		}
	}
	return out
}

// smooth convolves with the kernel upsampled by stride, clamping lookback
// at the window head so the output stays causal and length-preserving.
func (a *atrous) smooth(in []float64, stride int) []float64 {
	out := make([]float64, len(in))
	for i := range in {
		acc := 0.0
		for k, w := range a.kernel {
			idx := i - k*stride
			if idx < 0 {
				idx = 0
			}
			acc += w * in[idx]
		}
		out[i] = acc
	}
	return out
}
