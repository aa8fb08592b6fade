package synth

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// OctaveEffect adds harmonic color in place of a true pitch shifter. In
// "higher" mode it soft-clips the signal (tanh waveshaping adds odd
// harmonics); in "lower" mode it darkens it with a one-pole low-pass. Either
// path is crossfaded with the dry signal by blend.
type OctaveEffect struct {
	higher     bool
	blend      float32
	frequency  float32
	sampleRate float32
	stateL     float32
	stateR     float32
}

// NewOctaveEffect creates an octave effect in the given mode.
func NewOctaveEffect(higher bool, blend float32) *OctaveEffect {
	return &OctaveEffect{
		higher:     higher,
		blend:      clampf(blend, 0, 1),
		sampleRate: 44100,
	}
}

// NewDefaultOctaveEffect creates an octave effect in "higher" mode at half
// blend.
func NewDefaultOctaveEffect() *OctaveEffect {
	return NewOctaveEffect(true, 0.5)
}

// Process colors one stereo sample pair.
func (o *OctaveEffect) Process(left, right float32) (float32, float32) {
	blend := o.blend
	if blend <= 0 {
		return left, right
	}

	if o.higher {
		shapedLeft := float32(math.Tanh(float64(left*2))) * 0.8
		shapedRight := float32(math.Tanh(float64(right*2))) * 0.8
		left = (1-blend)*left + blend*shapedLeft
		right = (1-blend)*right + blend*shapedRight
		return left, right
	}

	o.stateL = float32(dspcore.FlushDenormals(float64(o.stateL*0.8 + left*0.2)))
	o.stateR = float32(dspcore.FlushDenormals(float64(o.stateR*0.8 + right*0.2)))
	left = (1-blend)*left + blend*o.stateL
	right = (1-blend)*right + blend*o.stateR
	return left, right
}

// Reset clears the one-pole filter state.
func (o *OctaveEffect) Reset() {
	o.stateL = 0
	o.stateR = 0
}

// SetSampleRate records the engine sample rate. Non-positive rates are
// ignored.
func (o *OctaveEffect) SetSampleRate(sampleRate float32) {
	if sampleRate > 0 {
		o.sampleRate = sampleRate
	}
}

// SetHigher switches between the waveshaper and one-pole paths.
func (o *OctaveEffect) SetHigher(higher bool) {
	o.higher = higher
}

// SetBlend updates the dry/colored crossfade in [0, 1].
func (o *OctaveEffect) SetBlend(blend float32) {
	o.blend = clampf(blend, 0, 1)
}

// SetFrequency records the current note frequency. Values outside
// (0, 20000] are ignored.
func (o *OctaveEffect) SetFrequency(frequency float32) {
	if frequency > 0 && frequency <= 20000 {
		o.frequency = frequency
	}
}
