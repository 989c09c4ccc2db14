package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum returns the DFT magnitude of profile for wavenumbers 0..n/2.
func Spectrum(profile []float64) []float64 {
	if len(profile) == 0 {
		return nil
	}
	coeffs := fft.FFTReal(profile)
	out := make([]float64, len(profile)/2+1)
	for k := range out {
		out[k] = cmplx.Abs(coeffs[k])
	}
	return out
}

// HighFrequencyFraction is the share of non-mean spectral energy held by
// wavenumbers above half the Nyquist wavenumber. A constant profile
// returns 0.
func HighFrequencyFraction(profile []float64) float64 {
	mags := Spectrum(profile)
	if len(mags) < 2 {
		return 0
	}
	nyquist := len(mags) - 1
	var total, high float64
	for k := 1; k <= nyquist; k++ {
		e := mags[k] * mags[k]
		total += e
		if 2*k > nyquist {
			high += e
		}
	}
	if total == 0 {
		return 0
	}
	return high / total
}
