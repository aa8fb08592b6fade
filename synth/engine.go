package synth

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Engine generates a continuous stream of stereo samples from note events
// and parameter updates. The audio callback pulls NextSample once per frame;
// all other methods belong to the control side (UI or MIDI thread).
//
// Scalar parameters cross the thread boundary through lock-free atomic
// cells; the effect chain and the waveform tap are swapped behind atomic
// pointers. The audio thread never acquires a lock.
type Engine struct {
	sampleRate float32

	// Audio-thread-owned oscillator state.
	primaryPhase   float32
	secondaryPhase float32
	lfoPhase       float32

	envelope *ADSREnvelope

	// Control -> audio scalar parameters.
	frequency       *atomicFloat32
	noteDetuneCents *atomicFloat32
	pitchBendCents  *atomicFloat32
	lfoRateHz       *atomicFloat32
	lfoAmountCents  *atomicFloat32
	jitterCents     *atomicFloat32
	noteOn          atomicBool

	primaryWave   atomicInt32
	secondaryWave atomicInt32

	secondaryEnabled     atomicBool
	secondaryMix         *atomicFloat32
	secondaryDetuneCents *atomicFloat32
	secondaryOctave      atomicInt32

	// Phase/envelope reset requested by a trigger from silence; consumed at
	// the top of the next NextSample call so the audio thread owns the
	// actual mutation.
	resetPending atomic.Bool
	lfoPhaseSeed *atomicFloat32

	effects atomic.Pointer[[]Effect]
	tap     atomic.Pointer[StereoSampleRingBuffer]

	// Control-side state, never touched by the audio thread.
	ctlMu         sync.Mutex
	activeNotes   []activeNote
	rng           *rand.Rand
	lowPassActive bool
	lastLowPassHz float32
}

type activeNote struct {
	frequency   float32
	detuneCents float32
}

// Engine defaults.
const (
	defaultAttackTime   = 0.1
	defaultDecayTime    = 0.2
	defaultSustainLevel = 0.7
	defaultReleaseTime  = 0.3
	defaultDriftRateHz  = 0.35
	defaultDriftCents   = 4.0
	defaultJitterCents  = 3.0
)

// NewEngine creates an engine at the given sample rate with the stock square
// wave, ADSR and drift settings. Sample rates below 100 Hz fall back to
// 44100.
func NewEngine(sampleRate float32) *Engine {
	if sampleRate < 100 {
		sampleRate = 44100
	}
	e := &Engine{
		sampleRate:           sampleRate,
		envelope:             NewADSREnvelope(defaultAttackTime, defaultDecayTime, defaultSustainLevel, defaultReleaseTime),
		frequency:            newAtomicFloat32(0),
		noteDetuneCents:      newAtomicFloat32(0),
		pitchBendCents:       newAtomicFloat32(0),
		lfoRateHz:            newAtomicFloat32(defaultDriftRateHz),
		lfoAmountCents:       newAtomicFloat32(defaultDriftCents),
		jitterCents:          newAtomicFloat32(defaultJitterCents),
		secondaryMix:         newAtomicFloat32(0),
		secondaryDetuneCents: newAtomicFloat32(0),
		lfoPhaseSeed:         newAtomicFloat32(0),
		rng:                  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.primaryWave.Store(int32(WaveSquare))
	e.secondaryWave.Store(int32(WaveSquare))
	chain := make([]Effect, 0)
	e.effects.Store(&chain)
	return e
}

// SampleRate returns the engine sample rate in Hz.
func (e *Engine) SampleRate() float32 {
	return e.sampleRate
}

// TriggerNote starts a note at the given frequency. Frequencies outside
// (0, 20000] Hz are ignored. Overlapping notes keep oscillator and LFO phase
// continuous; only a trigger from silence resets phases, randomizes the LFO
// phase and restarts the envelope.
func (e *Engine) TriggerNote(frequency float32) {
	if frequency <= 0 || frequency > 20000 {
		return
	}

	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	hadActiveNotes := len(e.activeNotes) > 0

	jitter := e.jitterCents.Load()
	detune := float32(0)
	if jitter > 0 {
		detune = (e.rng.Float32()*2 - 1) * jitter
	}

	e.activeNotes = append(e.activeNotes, activeNote{frequency: frequency, detuneCents: detune})
	e.frequency.Store(frequency)
	e.noteDetuneCents.Store(detune)
	e.noteOn.Store(true)

	if !hadActiveNotes {
		e.lfoPhaseSeed.Store(e.rng.Float32())
		e.resetPending.Store(true)
	}

	// Push note frequency and sample rate into effects that track them.
	// Delay and low-pass state is deliberately kept across notes so tails
	// ring through.
	for _, effect := range *e.effects.Load() {
		switch fx := effect.(type) {
		case *OctaveEffect:
			fx.SetFrequency(frequency)
			fx.SetSampleRate(e.sampleRate)
		case *DelayEffect:
			fx.SetSampleRate(e.sampleRate)
		case *LowPassEffect:
			fx.SetSampleRate(e.sampleRate)
		}
	}
}

// TriggerNoteOff releases the most recent note matching the given frequency
// (within 1e-3 Hz). Releasing the last note drops the gate; otherwise the
// previous note on the stack sounds again. Unknown frequencies are a no-op.
func (e *Engine) TriggerNoteOff(frequency float32) {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	for i := len(e.activeNotes) - 1; i >= 0; i-- {
		if math.Abs(float64(e.activeNotes[i].frequency-frequency)) < 1e-3 {
			e.activeNotes = append(e.activeNotes[:i], e.activeNotes[i+1:]...)
			break
		}
	}

	e.syncCurrentNoteLocked()
}

// TriggerAllNotesOff releases every active note and drops the gate.
func (e *Engine) TriggerAllNotesOff() {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	e.activeNotes = e.activeNotes[:0]
	e.syncCurrentNoteLocked()
}

func (e *Engine) syncCurrentNoteLocked() {
	if len(e.activeNotes) == 0 {
		e.noteOn.Store(false)
		return
	}
	top := e.activeNotes[len(e.activeNotes)-1]
	e.frequency.Store(top.frequency)
	e.noteDetuneCents.Store(top.detuneCents)
	e.noteOn.Store(true)
}

// ActiveNoteCount returns the number of held notes.
func (e *Engine) ActiveNoteCount() int {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	return len(e.activeNotes)
}

// NoteOn reports whether the envelope gate is currently held.
func (e *Engine) NoteOn() bool {
	return e.noteOn.Load()
}

// NextSample computes one stereo sample pair. Audio thread only: it never
// blocks, allocates or fails.
func (e *Engine) NextSample() (float32, float32) {
	if e.resetPending.Swap(false) {
		e.primaryPhase = 0
		e.secondaryPhase = 0
		e.lfoPhase = e.lfoPhaseSeed.Load()
		e.envelope.Reset()
	}

	envelopeLevel := e.envelope.Process(e.noteOn.Load(), e.sampleRate)

	var sample float32
	frequency := e.frequency.Load()
	if envelopeLevel > 0 && frequency > 0 {
		lfoValue := float32(math.Sin(2 * math.Pi * float64(e.lfoPhase)))
		totalCents := e.noteDetuneCents.Load() + lfoValue*e.lfoAmountCents.Load() + e.pitchBendCents.Load()
		modulatedFrequency := frequency * centsToRatio(totalCents)

		e.lfoPhase += e.lfoRateHz.Load() / e.sampleRate
		if e.lfoPhase >= 1 {
			e.lfoPhase -= float32(math.Floor(float64(e.lfoPhase)))
		}

		primary := Waveform(e.primaryWave.Load()).Generate(modulatedFrequency, e.sampleRate, &e.primaryPhase)

		var secondary float32
		secondaryMix := float32(0)
		if e.secondaryEnabled.Load() {
			secondaryMix = e.secondaryMix.Load()
		}
		if secondaryMix > 0 {
			detuneRatio := centsToRatio(maxf(e.secondaryDetuneCents.Load(), 0))
			octaveRatio := pow2Approx(float32(e.secondaryOctave.Load()))
			secondaryFrequency := modulatedFrequency * detuneRatio * octaveRatio
			secondary = Waveform(e.secondaryWave.Load()).Generate(secondaryFrequency, e.sampleRate, &e.secondaryPhase)
		}

		dryAmount := maxf(0, 1-secondaryMix)
		sample = primary*dryAmount + secondary*secondaryMix
		sample *= envelopeLevel
	}

	left, right := sample, sample
	for _, effect := range *e.effects.Load() {
		left, right = effect.Process(left, right)
	}

	if tap := e.tap.Load(); tap != nil {
		tap.Push(left, right)
	}

	return left, right
}

// SetWaveform selects the waveform for both oscillators.
func (e *Engine) SetWaveform(w Waveform) {
	e.primaryWave.Store(int32(w))
	e.secondaryWave.Store(int32(w))
}

// SetSecondaryWaveform selects the waveform for the secondary oscillator
// only.
func (e *Engine) SetSecondaryWaveform(w Waveform) {
	e.secondaryWave.Store(int32(w))
}

// Waveform returns the primary oscillator waveform.
func (e *Engine) Waveform() Waveform {
	return Waveform(e.primaryWave.Load())
}

// ConfigureSecondary sets the secondary oscillator. Mix is clamped into
// [0, 1], detune below zero is raised to zero and the octave offset is
// clamped into [-2, +2]. Disabling zeroes the secondary state entirely.
func (e *Engine) ConfigureSecondary(enabled bool, mix, detuneCents float32, octaveOffset int) {
	if !enabled {
		e.secondaryEnabled.Store(false)
		e.secondaryMix.Store(0)
		e.secondaryDetuneCents.Store(0)
		e.secondaryOctave.Store(0)
		return
	}

	e.secondaryMix.Store(clampf(mix, 0, 1))
	e.secondaryDetuneCents.Store(maxf(detuneCents, 0))
	e.secondaryOctave.Store(int32(clampi(octaveOffset, -2, 2)))
	e.secondaryEnabled.Store(true)
}

// SetPitchBend maps a raw 14-bit bend value in [-8192, +8191] onto a cents
// offset in [-100, +100]. Out-of-range values are clamped.
func (e *Engine) SetPitchBend(value int) {
	clamped := clampi(value, -8192, 8191)

	var normalized float32
	if clamped >= 0 {
		normalized = float32(clamped) / 8191.0
	} else {
		normalized = float32(clamped) / 8192.0
	}

	const semitoneRange = 1.0
	e.pitchBendCents.Store(normalized * semitoneRange * 100.0)
}

// PitchBendCents returns the current pitch-bend offset in cents.
func (e *Engine) PitchBendCents() float32 {
	return e.pitchBendCents.Load()
}

// UpdateADSR replaces the envelope parameters. Negative times are clamped to
// zero; the running envelope retargets without restarting.
func (e *Engine) UpdateADSR(attackTime, decayTime, sustainLevel, releaseTime float32) {
	e.envelope.SetParameters(attackTime, decayTime, sustainLevel, releaseTime)
}

// SetDrift configures the slow pitch drift: LFO rate in Hz, LFO depth in
// cents and the per-note random detune range in cents. Negative values are
// clamped to zero.
func (e *Engine) SetDrift(rateHz, amountCents, jitterCents float32) {
	e.lfoRateHz.Store(maxf(rateHz, 0))
	e.lfoAmountCents.Store(maxf(amountCents, 0))
	e.jitterCents.Store(maxf(jitterCents, 0))
}

// AddEffect appends an effect to the chain unless the same instance is
// already present. Nil effects are ignored.
func (e *Engine) AddEffect(effect Effect) {
	if effect == nil {
		return
	}

	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	current := *e.effects.Load()
	for _, existing := range current {
		if existing == effect {
			return
		}
	}

	next := make([]Effect, len(current)+1)
	copy(next, current)
	next[len(current)] = effect
	e.effects.Store(&next)

	if lp, ok := effect.(*LowPassEffect); ok {
		e.lowPassActive = true
		e.lastLowPassHz = lp.Cutoff()
	}
}

// AddDelay creates a delay effect with the given settings, appends it and
// returns it.
func (e *Engine) AddDelay(delayTime, feedback, mix float32) *DelayEffect {
	fx := NewDelayEffect(delayTime, feedback, mix, e.sampleRate)
	e.AddEffect(fx)
	return fx
}

// AddLowPass creates a low-pass effect, appends it and applies the cutoff to
// every low-pass in the chain, mirroring the host's add-then-set pattern.
func (e *Engine) AddLowPass(cutoff, resonance, mix float32) *LowPassEffect {
	fx := NewLowPassEffect(cutoff, e.sampleRate, resonance, mix)
	e.AddEffect(fx)
	e.SetLowPassCutoff(cutoff)
	return fx
}

// AddOctave creates an octave effect, appends it and returns it.
func (e *Engine) AddOctave(higher bool, blend float32) *OctaveEffect {
	fx := NewOctaveEffect(higher, blend)
	fx.SetSampleRate(e.sampleRate)
	e.AddEffect(fx)
	return fx
}

// ResetEffects resets the state of every effect while keeping the chain.
func (e *Engine) ResetEffects() {
	for _, effect := range *e.effects.Load() {
		effect.Reset()
	}
}

// ClearEffects resets every effect and removes all of them from the chain.
func (e *Engine) ClearEffects() {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	for _, effect := range *e.effects.Load() {
		effect.Reset()
	}
	empty := make([]Effect, 0)
	e.effects.Store(&empty)
	e.lowPassActive = false
	e.lastLowPassHz = 0
}

// EffectCount returns the number of effects in the chain.
func (e *Engine) EffectCount() int {
	return len(*e.effects.Load())
}

// SetLowPassCutoff applies a cutoff to every low-pass effect in the chain.
// With no low-pass present the last-cutoff bookkeeping is cleared.
func (e *Engine) SetLowPassCutoff(cutoffHz float32) {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	updated := false
	for _, effect := range *e.effects.Load() {
		if lp, ok := effect.(*LowPassEffect); ok {
			lp.SetCutoff(cutoffHz)
			updated = true
		}
	}

	if updated {
		e.lowPassActive = true
		e.lastLowPassHz = cutoffHz
	} else {
		e.lowPassActive = false
		e.lastLowPassHz = 0
	}
}

// LowPassCutoff returns the cutoff last set on the low-pass chain, or 0 when
// no low-pass is active. It is the requested value, which can exceed the
// cutoff each filter clamps itself to.
func (e *Engine) LowPassCutoff() float32 {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	if !e.lowPassActive {
		return 0
	}
	return e.lastLowPassHz
}

// HasLowPassEffect reports whether a low-pass effect is in the chain.
func (e *Engine) HasLowPassEffect() bool {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	return e.lowPassActive
}

// UpdateEffectParameters applies parameters to the first effect matching the
// given name (case-insensitive; delay/echo, lowpass/lpf/filter, octave). It
// returns false when no effect of that kind is present or the parameters do
// not fit the named effect.
func (e *Engine) UpdateEffectParameters(effectName string, parameters EffectParameters) bool {
	canonical := canonicalEffectName(effectName)
	if canonical == "" || parameters == nil {
		return false
	}

	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	for _, effect := range *e.effects.Load() {
		switch canonical {
		case "delay":
			if fx, ok := effect.(*DelayEffect); ok {
				if p, ok := parameters.(DelayParameters); ok {
					fx.SetDelayTime(p.DelayTime)
					fx.SetFeedback(p.Feedback)
					fx.SetMix(p.Mix)
					return true
				}
			}
		case "lowpass":
			if fx, ok := effect.(*LowPassEffect); ok {
				if p, ok := parameters.(LowPassParameters); ok {
					fx.SetCutoff(p.CutoffFreq)
					fx.SetResonance(p.Resonance)
					e.lowPassActive = true
					e.lastLowPassHz = p.CutoffFreq
					return true
				}
			}
		case "octave":
			if fx, ok := effect.(*OctaveEffect); ok {
				if p, ok := parameters.(OctaveParameters); ok {
					fx.SetHigher(p.OctaveShift > 1)
					fx.SetBlend(p.Mix)
					return true
				}
			}
		}
	}

	return false
}

// SetWaveformTap attaches a ring buffer that captures every post-effects
// sample pair. Pass nil to detach.
func (e *Engine) SetWaveformTap(tap *StereoSampleRingBuffer) {
	e.tap.Store(tap)
}

// CopyRecentWaveform copies up to maxFrames of the most recent post-effects
// output as an interleaved stereo slice of length 2 x frames. It returns nil
// when no tap is attached. Consumer side of the tap; call from one reader
// goroutine only.
func (e *Engine) CopyRecentWaveform(maxFrames int) []float32 {
	tap := e.tap.Load()
	if tap == nil || maxFrames <= 0 {
		return nil
	}
	dest := make([]float32, maxFrames*2)
	frames := tap.CopyLatestInterleaved(dest, maxFrames)
	return dest[:frames*2]
}
