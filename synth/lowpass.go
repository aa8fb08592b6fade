package synth

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp"
)

// Low-pass parameter bounds.
const (
	minCutoffHz      = 20.0
	maxCutoffRatio   = 0.45 // relative to Nyquist
	minSampleRate    = 100.0
	minResonanceQ    = 0.1
	maxResonanceQ    = 10.0
	defaultCutoffHz  = 1200.0
	defaultResonance = 0.9
)

// LowPassEffect is a resonant 2nd-order (12 dB/oct) low-pass with adjustable
// cutoff, resonance and dry/wet mix. Coefficients follow the RBJ cookbook
// formula; each channel runs in Direct Form II Transposed. At the minimum
// cutoff the coefficients collapse to a pass-through.
//
// Parameter setters run on the control thread; the audio thread tolerates a
// torn coefficient read for one sample.
type LowPassEffect struct {
	cutoff     float32
	sampleRate float32
	q          float32
	mix        float32

	left  dsp.Biquad
	right dsp.Biquad
}

// NewLowPassEffect creates a low-pass effect and computes its coefficients.
func NewLowPassEffect(cutoff, sampleRate, resonance, mix float32) *LowPassEffect {
	lp := &LowPassEffect{
		cutoff:     minCutoffHz,
		sampleRate: maxf(sampleRate, minSampleRate),
		q:          clampf(resonance, minResonanceQ, maxResonanceQ),
		mix:        clampf(mix, 0, 1),
	}
	lp.left.SetIdentity()
	lp.right.SetIdentity()
	lp.SetCutoff(cutoff)
	return lp
}

// NewDefaultLowPassEffect creates a low-pass with the stock cutoff and
// resonance at the given sample rate, fully wet.
func NewDefaultLowPassEffect(sampleRate float32) *LowPassEffect {
	return NewLowPassEffect(defaultCutoffHz, sampleRate, defaultResonance, 1.0)
}

// Process filters one stereo sample pair.
func (lp *LowPassEffect) Process(left, right float32) (float32, float32) {
	mix := lp.mix
	wetLeft := lp.left.Process(left)
	wetRight := lp.right.Process(right)
	outLeft := (1-mix)*left + mix*wetLeft
	outRight := (1-mix)*right + mix*wetRight
	return outLeft, outRight
}

// Reset zeroes the per-channel filter memories.
func (lp *LowPassEffect) Reset() {
	lp.left.Reset()
	lp.right.Reset()
}

// SetSampleRate updates the sample rate and recomputes coefficients. Rates
// below 100 Hz are clamped; an unchanged rate is a no-op.
func (lp *LowPassEffect) SetSampleRate(sampleRate float32) {
	clamped := maxf(sampleRate, minSampleRate)
	if math.Abs(float64(clamped-lp.sampleRate)) < 1e-3 {
		return
	}
	lp.sampleRate = clamped
	lp.cutoff = clampf(lp.cutoff, minCutoffHz, lp.maxCutoff())
	lp.updateCoefficients()
}

// SetCutoff updates the cutoff frequency, clamped into
// [20 Hz, 0.45 x Nyquist].
func (lp *LowPassEffect) SetCutoff(cutoff float32) {
	clamped := clampf(cutoff, minCutoffHz, maxf(lp.maxCutoff(), minCutoffHz))
	if math.Abs(float64(clamped-lp.cutoff)) < 1e-3 {
		return
	}
	lp.cutoff = clamped
	lp.updateCoefficients()
}

// SetResonance updates the filter Q, clamped into [0.1, 10].
func (lp *LowPassEffect) SetResonance(resonance float32) {
	clamped := clampf(resonance, minResonanceQ, maxResonanceQ)
	if math.Abs(float64(clamped-lp.q)) < 1e-3 {
		return
	}
	lp.q = clamped
	lp.updateCoefficients()
}

// SetMix updates the dry/wet balance in [0, 1].
func (lp *LowPassEffect) SetMix(mix float32) {
	lp.mix = clampf(mix, 0, 1)
}

// Cutoff returns the current cutoff frequency in Hz.
func (lp *LowPassEffect) Cutoff() float32 {
	return lp.cutoff
}

func (lp *LowPassEffect) maxCutoff() float32 {
	return lp.sampleRate * 0.5 * maxCutoffRatio
}

func (lp *LowPassEffect) updateCoefficients() {
	nyquist := lp.sampleRate * 0.5
	if nyquist <= minCutoffHz || lp.cutoff <= minCutoffHz {
		lp.left.SetIdentity()
		lp.right.SetIdentity()
		return
	}

	cutoff := clampf(lp.cutoff, minCutoffHz, maxf(lp.maxCutoff(), minCutoffHz))
	lp.left.SetLowpass(float64(cutoff), float64(lp.sampleRate), float64(lp.q))
	if !lp.left.IsFinite() {
		lp.left.SetIdentity()
		lp.right.SetIdentity()
		return
	}
	lp.right.SetLowpass(float64(cutoff), float64(lp.sampleRate), float64(lp.q))
}
