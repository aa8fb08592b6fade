package synth

// Config selects the waveform, effect chain and envelope of an engine, plus
// the host-side settings (device buffer, MIDI port, input mode) the CLIs
// consume.
type Config struct {
	Waveform string   // oscillator name (sine, square, saw|sawtooth, triangle|tri)
	Effects  []string // ordered effect names (octave, delay|echo, lowpass|lpf|filter)

	SampleRate   float32
	BufferFrames uint

	MidiPort         int
	DefaultFrequency float32
	InputMode        string // "midi" or "sequencer"
	SequenceType     string

	AttackTime   float32
	DecayTime    float32
	SustainLevel float32
	ReleaseTime  float32
}

// NewDefaultConfig returns the stock configuration: sine wave, no effects,
// 44100 Hz, MIDI input.
func NewDefaultConfig() Config {
	return Config{
		Waveform:         "sine",
		SampleRate:       44100,
		BufferFrames:     512,
		MidiPort:         1,
		DefaultFrequency: 440,
		InputMode:        "midi",
		SequenceType:     "demo",
		AttackTime:       0.1,
		DecayTime:        0.2,
		SustainLevel:     0.7,
		ReleaseTime:      0.3,
	}
}

// Configure rebuilds the waveform selection, effect chain and envelope from
// a configuration. Effects are created with stock settings in the listed
// order; unrecognized effect names are silently ignored.
func (e *Engine) Configure(config Config) {
	wave := ParseWaveform(config.Waveform)
	e.primaryWave.Store(int32(wave))
	e.secondaryWave.Store(int32(wave))

	e.ctlMu.Lock()

	chain := make([]Effect, 0, len(config.Effects))
	e.lowPassActive = false
	e.lastLowPassHz = 0

	for _, name := range config.Effects {
		switch canonicalEffectName(name) {
		case "octave":
			fx := NewDefaultOctaveEffect()
			fx.SetSampleRate(e.sampleRate)
			chain = append(chain, fx)
		case "delay":
			chain = append(chain, NewDefaultDelayEffect(e.sampleRate))
		case "lowpass":
			fx := NewLowPassEffect(1000, e.sampleRate, defaultResonance, 1.0)
			chain = append(chain, fx)
			e.lowPassActive = true
			e.lastLowPassHz = fx.Cutoff()
		}
	}
	e.effects.Store(&chain)
	e.ctlMu.Unlock()

	e.envelope.SetParameters(config.AttackTime, config.DecayTime, config.SustainLevel, config.ReleaseTime)
}
