package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first half of the discrete
// Fourier transform of data. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	spec := fft.FFTReal(data)
	ps := make([]float64, len(spec)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}

	return ps
}

// Spectrum returns the frequency bins and the power spectrum of samples
// spaced dt apart, with the mean removed.
func Spectrum(values []float64, dt float64) (freqs, power []float64) {
	if len(values) < 2 || !(dt > 0) {
		return nil, nil
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	centered := make([]float64, len(values))
	for i, v := range values {
		centered[i] = v - mean
	}

	power = PowerSpectrum(centered)
	freqs = make([]float64, len(power))
	df := 1 / (dt * float64(len(values)))
	for i := range freqs {
		freqs[i] = float64(i) * df
	}
	return freqs, power
}

// DominantFrequency returns the non-zero frequency with the most power.
func DominantFrequency(freqs, power []float64) float64 {
	best := 0
	for i := 1; i < len(power); i++ {
		if best == 0 || power[i] > power[best] {
			best = i
		}
	}
	if best == 0 {
		return 0
	}
	return freqs[best]
}
