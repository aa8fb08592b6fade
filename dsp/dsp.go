package dsp

import "math"

// Biquad implements a second-order IIR filter in Direct Form II Transposed
// (no heap allocations in Process).
type Biquad struct {
	// Coefficients (a0 normalized to 1)
	b0, b1, b2 float32
	a1, a2     float32

	// State
	z1, z2 float32
}

// NewBiquad creates a new biquad filter with the given normalized coefficients.
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// SetCoefficients replaces the filter coefficients without touching the state.
func (b *Biquad) SetCoefficients(b0, b1, b2, a1, a2 float32) {
	b.b0, b.b1, b.b2 = b0, b1, b2
	b.a1, b.a2 = a1, a2
}

// SetLowpass configures the filter as an RBJ cookbook low-pass.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float64) {
	omega := 2.0 * math.Pi * cutoff / sampleRate
	sinw := math.Sin(omega)
	cosw := math.Cos(omega)
	alpha := sinw / (2.0 * q)

	b0 := (1.0 - cosw) / 2.0
	b1 := 1.0 - cosw
	b2 := (1.0 - cosw) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw
	a2 := 1.0 - alpha

	invA0 := 1.0 / a0
	b.SetCoefficients(
		float32(b0*invA0),
		float32(b1*invA0),
		float32(b2*invA0),
		float32(a1*invA0),
		float32(a2*invA0),
	)
}

// SetIdentity collapses the filter to a pass-through.
func (b *Biquad) SetIdentity() {
	b.SetCoefficients(1, 0, 0, 0, 0)
}

// Process processes one sample through the filter.
func (b *Biquad) Process(input float32) float32 {
	output := b.b0*input + b.z1
	b.z1 = b.b1*input + b.z2 - b.a1*output
	b.z2 = b.b2*input - b.a2*output
	return output
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	b.z1, b.z2 = 0, 0
}

// IsFinite reports whether all coefficients are finite.
func (b *Biquad) IsFinite() bool {
	for _, c := range [5]float32{b.b0, b.b1, b.b2, b.a1, b.a2} {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// DelayLine implements a circular buffer for delay.
type DelayLine struct {
	buffer   []float32
	writePos int
	size     int
}

// NewDelayLine creates a new delay line with the given size in samples.
func NewDelayLine(size int) *DelayLine {
	if size < 2 {
		size = 2
	}
	return &DelayLine{
		buffer: make([]float32, size),
		size:   size,
	}
}

// Len returns the delay line length in samples.
func (d *DelayLine) Len() int {
	return d.size
}

// ReadAt reads the sample delayed by the given number of samples relative to
// the current write position.
func (d *DelayLine) ReadAt(delay int) float32 {
	readPos := (d.writePos - delay + d.size) % d.size
	return d.buffer[readPos]
}

// WriteAdvance stores a sample at the current write position and advances it.
func (d *DelayLine) WriteAdvance(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos = (d.writePos + 1) % d.size
}

// Reset clears the delay line.
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// OnePole is a first-order low-pass: state = state*coeff + in*(1-coeff).
type OnePole struct {
	coeff float32
	state float32
}

// NewOnePole creates a one-pole filter with the given feedback coefficient.
func NewOnePole(coeff float32) *OnePole {
	return &OnePole{coeff: coeff}
}

// Process advances the filter by one sample.
func (o *OnePole) Process(input float32) float32 {
	o.state = o.state*o.coeff + input*(1-o.coeff)
	return o.state
}

// Reset clears the filter state.
func (o *OnePole) Reset() {
	o.state = 0
}
