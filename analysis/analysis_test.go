package analysis

import (
	"math"
	"testing"

	algofft "github.com/cwbudde/algo-fft"
)

func sine(freq, sampleRate float64, frames int) []float64 {
	out := make([]float64, frames)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func TestRMSOfKnownSignals(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil): got=%f want=0", got)
	}
	ones := []float64{1, -1, 1, -1}
	if got := RMS(ones); math.Abs(got-1) > 1e-12 {
		t.Fatalf("RMS of unit square: got=%f want=1", got)
	}
	s := sine(100, 48000, 48000)
	if got := RMS(s); math.Abs(got-1/math.Sqrt2) > 1e-3 {
		t.Fatalf("RMS of unit sine: got=%f want=%f", got, 1/math.Sqrt2)
	}
}

func TestPeakAbs(t *testing.T) {
	if got := PeakAbs([]float64{0.1, -0.9, 0.5}); got != 0.9 {
		t.Fatalf("PeakAbs: got=%f want=0.9", got)
	}
}

func TestRMSEnvelopeFrameCount(t *testing.T) {
	x := make([]float64, 1024)
	env := RMSEnvelope(x, 256, 128)
	want := 1 + (1024-256)/128
	if len(env) != want {
		t.Fatalf("envelope length: got=%d want=%d", len(env), want)
	}
	if RMSEnvelope(x[:100], 256, 128) != nil {
		t.Fatalf("expected nil envelope for signals shorter than one frame")
	}
}

func TestDecaySlopeOfExponentialDecay(t *testing.T) {
	// -60 dB per second.
	const sampleRate = 1000.0
	frames := 2000
	x := make([]float64, frames)
	for i := range x {
		tSec := float64(i) / sampleRate
		x[i] = math.Pow(10, -3*tSec) // 10^(-3t) = -60 dB/s
	}
	env := RMSEnvelope(x, 50, 25)
	slope := DecaySlopeDBPerS(env, 25.0/sampleRate)
	if math.Abs(slope+60) > 2 {
		t.Fatalf("decay slope: got=%f want=-60", slope)
	}
}

func TestEstimateFundamentalPureSine(t *testing.T) {
	for _, freq := range []float64{110, 220, 440, 880, 1760} {
		x := sine(freq, 44100, 22050)
		got := EstimateFundamental(x, 44100)
		if math.Abs(got-freq) > 1 {
			t.Fatalf("fundamental of %g Hz sine: got=%f", freq, got)
		}
	}
}

func TestEstimateFundamentalHarmonicTone(t *testing.T) {
	// Fundamental plus two harmonics; the estimate must pick the fundamental.
	base := sine(220, 44100, 22050)
	h2 := sine(440, 44100, 22050)
	h3 := sine(660, 44100, 22050)
	x := make([]float64, len(base))
	for i := range x {
		x[i] = base[i] + 0.5*h2[i] + 0.25*h3[i]
	}
	got := EstimateFundamental(x, 44100)
	if math.Abs(got-220) > 1.5 {
		t.Fatalf("fundamental of harmonic tone: got=%f want=220", got)
	}
}

func TestEstimateFundamentalDegenerateInputs(t *testing.T) {
	if got := EstimateFundamental(nil, 44100); got != 0 {
		t.Fatalf("nil input: got=%f want=0", got)
	}
	if got := EstimateFundamental(make([]float64, 4096), 44100); got != 0 {
		t.Fatalf("silence: got=%f want=0", got)
	}
	if got := EstimateFundamental(sine(440, 44100, 4096), 0); got != 0 {
		t.Fatalf("zero sample rate: got=%f want=0", got)
	}
}

func directConvolve(a, b []float32) []float32 {
	out := make([]float32, len(a)+len(b)-1)
	for i := range a {
		for j := range b {
			out[i+j] += a[i] * b[j]
		}
	}
	return out
}

func TestAlgoFFTConvolveRealMatchesDirect(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5}
	b := []float32{0.5, -0.25, 0.125}
	got := make([]float32, len(a)+len(b)-1)
	if err := algofft.ConvolveReal(got, a, b); err != nil {
		t.Fatalf("ConvolveReal error: %v", err)
	}

	want := directConvolve(a, b)
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > 1e-4 {
			t.Fatalf("fft convolution mismatch at %d: got=%f want=%f", i, got[i], want[i])
		}
	}
}
