package synth

// EnvelopeStage identifies the active segment of the ADSR state machine.
type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// ADSREnvelope shapes amplitude with piecewise-linear attack, decay, sustain
// and release segments. Process is called once per output sample with the
// current note-on flag; stage transitions follow the flag's edges.
type ADSREnvelope struct {
	attack  *atomicFloat32
	decay   *atomicFloat32
	sustain *atomicFloat32
	release *atomicFloat32

	stage        EnvelopeStage
	level        float32
	releaseLevel float32
	prevNoteOn   bool
}

// NewADSREnvelope creates an envelope with the given segment parameters.
// Negative times are clamped to zero, the sustain level into [0, 1].
func NewADSREnvelope(attackTime, decayTime, sustainLevel, releaseTime float32) *ADSREnvelope {
	e := &ADSREnvelope{
		attack:  newAtomicFloat32(0),
		decay:   newAtomicFloat32(0),
		sustain: newAtomicFloat32(0),
		release: newAtomicFloat32(0),
	}
	e.SetParameters(attackTime, decayTime, sustainLevel, releaseTime)
	return e
}

// SetParameters replaces the envelope parameters. Updates take effect on the
// next processed sample; an in-flight segment retargets at the new rate.
func (e *ADSREnvelope) SetParameters(attackTime, decayTime, sustainLevel, releaseTime float32) {
	e.attack.Store(maxf(attackTime, 0))
	e.decay.Store(maxf(decayTime, 0))
	e.sustain.Store(clampf(sustainLevel, 0, 1))
	e.release.Store(maxf(releaseTime, 0))
}

// Reset returns the envelope to Idle with level zero.
func (e *ADSREnvelope) Reset() {
	e.stage = StageIdle
	e.level = 0
	e.releaseLevel = 0
	e.prevNoteOn = false
}

// Level returns the most recently computed output level.
func (e *ADSREnvelope) Level() float32 {
	return e.level
}

// Stage returns the current envelope stage.
func (e *ADSREnvelope) Stage() EnvelopeStage {
	return e.stage
}

// Process advances the envelope by one sample and returns the level in [0, 1].
func (e *ADSREnvelope) Process(noteOn bool, sampleRate float32) float32 {
	if sampleRate <= 0 {
		return e.level
	}
	dt := 1.0 / sampleRate

	if noteOn && !e.prevNoteOn {
		// Rising edge: attack resumes from the current level, including
		// mid-release retriggers.
		e.stage = StageAttack
	}
	if !noteOn && e.prevNoteOn {
		if e.stage != StageIdle {
			e.stage = StageRelease
			e.releaseLevel = e.level
		}
	}
	e.prevNoteOn = noteOn

	switch e.stage {
	case StageAttack:
		attack := e.attack.Load()
		if attack <= 0 {
			e.level = 1
		} else {
			e.level += dt / attack
		}
		if e.level >= 1 {
			e.level = 1
			e.stage = StageDecay
		}

	case StageDecay:
		sustain := e.sustain.Load()
		decay := e.decay.Load()
		if decay <= 0 {
			e.level = sustain
		} else {
			e.level -= (1 - sustain) * dt / decay
		}
		if e.level <= sustain {
			e.level = sustain
			e.stage = StageSustain
		}

	case StageSustain:
		e.level = e.sustain.Load()

	case StageRelease:
		release := e.release.Load()
		if release <= 0 || e.releaseLevel <= 0 {
			e.level = 0
		} else {
			e.level -= e.releaseLevel * dt / release
		}
		if e.level <= 0 {
			e.level = 0
			e.stage = StageIdle
		}

	default:
		e.level = 0
	}

	return e.level
}
