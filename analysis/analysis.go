// Package analysis provides objective measurements over rendered audio:
// level statistics, RMS envelopes, decay slopes and fundamental-frequency
// estimation. Used by the engine tests and the parameter-fit tool.
package analysis

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// RMS returns the root-mean-square level of a signal.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// PeakAbs returns the largest absolute sample value.
func PeakAbs(x []float64) float64 {
	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// RMSEnvelope slices the signal into hopped frames and returns the RMS of
// each frame.
func RMSEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = RMS(x[start : start+frame])
	}
	return out
}

// LinToDB converts a linear magnitude to decibels with a -240 dB floor.
func LinToDB(x float64) float64 {
	return 20 * math.Log10(math.Max(1e-12, math.Abs(x)))
}

// DecaySlopeDBPerS fits a line to the envelope in dB and returns its slope
// in dB per second. hopSec is the envelope hop duration. NaN is returned for
// envelopes too short to fit.
func DecaySlopeDBPerS(envelope []float64, hopSec float64) float64 {
	if len(envelope) < 2 || hopSec <= 0 {
		return math.NaN()
	}
	n := float64(len(envelope))
	var sumT, sumY, sumTT, sumTY float64
	for i, v := range envelope {
		t := float64(i) * hopSec
		y := LinToDB(v)
		sumT += t
		sumY += y
		sumTT += t * t
		sumTY += t * y
	}
	denom := n*sumTT - sumT*sumT
	if denom == 0 {
		return math.NaN()
	}
	return (n*sumTY - sumT*sumY) / denom
}

// Fundamental search range in Hz.
const (
	minFundamentalHz = 20.0
	maxFundamentalHz = 5000.0
)

// EstimateFundamental returns the fundamental frequency of a tonal signal in
// Hz, or 0 when none can be found. The autocorrelation is computed by FFT
// convolution with the time-reversed signal, the peak lag refined by
// parabolic interpolation.
func EstimateFundamental(x []float64, sampleRate float64) float64 {
	if sampleRate <= 0 || len(x) < 64 {
		return 0
	}

	// Bound the correlation window to half a second of audio (at least 2048
	// samples).
	n := len(x)
	maxWindow := int(sampleRate / 2)
	if maxWindow < 2048 {
		maxWindow = 2048
	}
	if n > maxWindow {
		x = x[:maxWindow]
		n = maxWindow
	}

	forward := make([]float32, n)
	reversed := make([]float32, n)
	for i, v := range x {
		forward[i] = float32(v)
		reversed[n-1-i] = float32(v)
	}

	corr := make([]float32, 2*n-1)
	if err := algofft.ConvolveReal(corr, forward, reversed); err != nil {
		return 0
	}
	// corr[n-1+lag] = sum_i x[i]*x[i-lag]
	zero := n - 1

	minLag := int(sampleRate / maxFundamentalHz)
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(sampleRate / minFundamentalHz)
	if maxLag > n-2 {
		maxLag = n - 2
	}
	if minLag >= maxLag {
		return 0
	}
	// Skip the lobe around lag zero: the search starts where the
	// correlation first drops to zero or below.
	for minLag < maxLag && corr[zero+minLag] > 0 {
		minLag++
	}

	bestLag := 0
	best := float32(math.Inf(-1))
	for lag := minLag; lag <= maxLag; lag++ {
		if c := corr[zero+lag]; c > best {
			best = c
			bestLag = lag
		}
	}
	if bestLag == 0 || best <= 0 {
		return 0
	}

	// Parabolic interpolation around the peak for sub-sample lag accuracy.
	lag := float64(bestLag)
	if bestLag > minLag && bestLag < maxLag {
		prev := float64(corr[zero+bestLag-1])
		peak := float64(corr[zero+bestLag])
		next := float64(corr[zero+bestLag+1])
		denom := prev - 2*peak + next
		if denom != 0 {
			delta := 0.5 * (prev - next) / denom
			if delta > -1 && delta < 1 {
				lag += delta
			}
		}
	}

	return sampleRate / lag
}
