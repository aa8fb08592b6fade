package synth

// EffectParameters is the parameter payload accepted by
// Engine.UpdateEffectParameters. Each effect kind has one concrete type.
type EffectParameters interface {
	isEffectParameters()
}

// DelayParameters updates a delay effect.
type DelayParameters struct {
	DelayTime float32 // seconds
	Feedback  float32 // [0, 0.97]
	Mix       float32 // [0, 1]
}

func (DelayParameters) isEffectParameters() {}

// LowPassParameters updates a low-pass effect.
type LowPassParameters struct {
	CutoffFreq float32 // Hz
	Resonance  float32 // Q, [0.1, 10]
}

func (LowPassParameters) isEffectParameters() {}

// OctaveParameters updates an octave effect. Shifts above 1 select the
// waveshaper path, at or below 1 the one-pole path.
type OctaveParameters struct {
	OctaveShift float32
	Mix         float32
}

func (OctaveParameters) isEffectParameters() {}
