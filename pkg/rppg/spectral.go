package rppg

import (
	"math"
	"math/cmplx"
)

// computeSpectrum applies a Hann window to the filtered signal, zero-pads it
// into a power-of-two buffer, and returns the magnitude spectrum for the
// non-negative frequency half. Zero-padding adds no information but
// densifies the bins, which improves peak interpolation accuracy.
func (a *Analyzer) computeSpectrum(signal []float64) []float64 {
	n := len(signal)
	size := a.fftSize(n)

	buf := make([]complex128, size)
	for i, v := range signal {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		buf[i] = complex(v*w, 0)
	}

	transformed := fftRecursive(buf)

	magnitudes := make([]float64, size/2)
	for i := range magnitudes {
		magnitudes[i] = cmplx.Abs(transformed[i])
	}
	return magnitudes
}

// fftSize returns the smallest power of two that holds the zero-padded signal
func (a *Analyzer) fftSize(n int) int {
	padded := n * a.config.ZeroPadFactor
	size := 1
	for size < padded {
		size <<= 1
	}
	return size
}

// fftRecursive computes the discrete Fourier transform by radix-2
// Cooley-Tukey recursion. The caller guarantees len(x) is a power of two,
// so splitting into halves terminates exactly at length 1.
func fftRecursive(x []complex128) []complex128 {
	n := len(x)
	if n == 1 {
		return []complex128{x[0]}
	}

	half := n / 2
	even := make([]complex128, half)
	odd := make([]complex128, half)
	for i := 0; i < half; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	evenFFT := fftRecursive(even)
	oddFFT := fftRecursive(odd)

	out := make([]complex128, n)
	for k := 0; k < half; k++ {
		angle := -2 * math.Pi * float64(k) / float64(n)
		twiddle := cmplx.Exp(complex(0, angle)) * oddFFT[k]
		out[k] = evenFFT[k] + twiddle
		out[k+half] = evenFFT[k] - twiddle
	}
	return out
}
