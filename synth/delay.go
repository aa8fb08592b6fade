package synth

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp"
)

// Delay parameter bounds. Feedback is capped below unity so the loop always
// decays; buffer writes are clamped to +/-2 to bound runaway input.
const (
	minDelaySeconds = 0.005
	maxDelaySeconds = 2.5
	maxFeedback     = 0.97
)

// DelayEffect is a stereo feedback delay line. Past samples live in a pair
// of circular buffers sized for the maximum delay time; feedback controls
// how much of the delayed signal re-enters the buffer and mix the wet/dry
// ratio.
//
// Sample-rate changes reallocate the buffers and are expected at
// configuration time only, never while the audio callback is running.
type DelayEffect struct {
	left  *dsp.DelayLine
	right *dsp.DelayLine

	delaySamples int
	delayTime    float32
	feedback     float32
	mix          float32
	sampleRate   float32
}

// NewDelayEffect creates a delay effect with the given time, feedback and
// mix at the given sample rate.
func NewDelayEffect(delayTime, feedback, mix, sampleRate float32) *DelayEffect {
	d := &DelayEffect{
		delaySamples: 1,
		delayTime:    clampf(delayTime, minDelaySeconds, maxDelaySeconds),
		feedback:     clampf(feedback, 0, maxFeedback),
		mix:          clampf(mix, 0, 1),
		sampleRate:   maxf(sampleRate, 100),
	}
	d.allocateBuffers()
	d.updateDelaySamples()
	return d
}

// NewDefaultDelayEffect creates a delay with the stock 0.3 s / 0.5 / 0.5
// settings at the given sample rate.
func NewDefaultDelayEffect(sampleRate float32) *DelayEffect {
	return NewDelayEffect(0.3, 0.5, 0.5, sampleRate)
}

// Process runs one stereo sample pair through the delay.
func (d *DelayEffect) Process(left, right float32) (float32, float32) {
	delaySamples := d.delaySamples
	delayedLeft := d.left.ReadAt(delaySamples)
	delayedRight := d.right.ReadAt(delaySamples)

	feedback := d.feedback
	d.left.WriteAdvance(clampf(left+delayedLeft*feedback, -2, 2))
	d.right.WriteAdvance(clampf(right+delayedRight*feedback, -2, 2))

	mix := d.mix
	outLeft := (1-mix)*left + mix*delayedLeft
	outRight := (1-mix)*right + mix*delayedRight
	return outLeft, outRight
}

// Reset zeroes both delay buffers and the write position.
func (d *DelayEffect) Reset() {
	d.left.Reset()
	d.right.Reset()
}

// SetSampleRate resizes the buffers for a new sample rate. Rates at or below
// 100 Hz and no-op changes are ignored.
func (d *DelayEffect) SetSampleRate(sampleRate float32) {
	if sampleRate <= 100 {
		return
	}
	if math.Abs(float64(sampleRate-d.sampleRate)) < 1e-3 {
		return
	}
	d.sampleRate = sampleRate
	d.allocateBuffers()
	d.updateDelaySamples()
}

// SetDelayTime updates the delay time in seconds, clamped into
// [0.005, 2.5].
func (d *DelayEffect) SetDelayTime(delayTime float32) {
	clamped := clampf(delayTime, minDelaySeconds, maxDelaySeconds)
	if math.Abs(float64(clamped-d.delayTime)) < 1e-6 {
		return
	}
	d.delayTime = clamped
	d.updateDelaySamples()
}

// SetFeedback updates the feedback amount, clamped into [0, 0.97].
func (d *DelayEffect) SetFeedback(feedback float32) {
	d.feedback = clampf(feedback, 0, maxFeedback)
}

// SetMix updates the wet/dry mix in [0, 1].
func (d *DelayEffect) SetMix(mix float32) {
	d.mix = clampf(mix, 0, 1)
}

// DelayTime returns the configured delay time in seconds.
func (d *DelayEffect) DelayTime() float32 { return d.delayTime }

// Feedback returns the configured feedback amount.
func (d *DelayEffect) Feedback() float32 { return d.feedback }

// Mix returns the configured wet/dry mix.
func (d *DelayEffect) Mix() float32 { return d.mix }

func (d *DelayEffect) allocateBuffers() {
	required := int(math.Ceil(maxDelaySeconds*float64(d.sampleRate))) + 1
	if required < 2 {
		required = 2
	}
	if d.left == nil || d.left.Len() != required {
		d.left = dsp.NewDelayLine(required)
		d.right = dsp.NewDelayLine(required)
	}
	if d.delaySamples >= required {
		d.delaySamples = required - 1
	}
}

func (d *DelayEffect) updateDelaySamples() {
	length := d.left.Len()
	if length == 0 {
		return
	}
	samples := int(math.Round(float64(d.delayTime) * float64(d.sampleRate)))
	d.delaySamples = clampi(samples, 1, length-1)
}
