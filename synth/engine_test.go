package synth

import (
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-synth/analysis"
)

func pullMono(e *Engine, frames int) []float64 {
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left, _ := e.NextSample()
		out[i] = float64(left)
	}
	return out
}

func newQuietEngine(sampleRate float32) *Engine {
	e := NewEngine(sampleRate)
	// Drift and jitter off so renders are deterministic.
	e.SetDrift(0, 0, 0)
	return e
}

func TestEngineSineNoteLevelAndPitch(t *testing.T) {
	e := newQuietEngine(44100)
	e.SetWaveform(WaveSine)
	e.UpdateADSR(0.01, 0.1, 0.7, 0.2)

	e.TriggerNote(440)
	mono := pullMono(e, 22050)

	peak := analysis.PeakAbs(mono)
	if peak < 0.65 || peak > 1.0 {
		t.Fatalf("expected peak in [0.65, 1.0], got %f", peak)
	}

	fundamental := analysis.EstimateFundamental(mono, 44100)
	if math.Abs(fundamental-440) > 1 {
		t.Fatalf("expected fundamental within 1 Hz of 440, got %f", fundamental)
	}
}

func TestEngineNoteOffDecaysToSilence(t *testing.T) {
	e := newQuietEngine(44100)
	e.SetWaveform(WaveSine)
	e.UpdateADSR(0.01, 0.1, 0.7, 0.2)

	e.TriggerNote(440)
	pullMono(e, 22050)
	e.TriggerNoteOff(440)
	mono := pullMono(e, 22050)

	for i, v := range mono[len(mono)-100:] {
		if math.Abs(v) >= 1e-4 {
			t.Fatalf("expected silence after release, sample %d = %g", i, v)
		}
	}

	if e.ActiveNoteCount() != 0 {
		t.Fatalf("expected no active notes, got %d", e.ActiveNoteCount())
	}
	if e.NoteOn() {
		t.Fatalf("expected note gate to be off")
	}
}

func TestEngineDelayTailDecaysGeometrically(t *testing.T) {
	const sampleRate = 8000
	e := newQuietEngine(sampleRate)
	e.SetWaveform(WaveSquare)
	e.UpdateADSR(0.01, 0.05, 0.7, 0.05)
	e.AddDelay(0.25, 0.6, 0.5)

	e.TriggerNote(220)
	head := pullMono(e, int(0.3*sampleRate))
	e.TriggerNoteOff(220)
	tail := pullMono(e, 2*sampleRate)

	all := append(head, tail...)

	// Once the dry signal has fully died, the wet path obeys
	// out[i+D] = feedback * out[i] exactly.
	const delaySamples = 2000 // 0.25 s at 8 kHz
	start := int(0.65 * sampleRate)
	energy := make([]float64, 0, 6)
	for k := 0; k < 6; k++ {
		var sum float64
		for i := start + k*delaySamples; i < start+(k+1)*delaySamples; i++ {
			sum += math.Abs(all[i])
		}
		energy = append(energy, sum)
	}
	for k := 1; k < len(energy); k++ {
		if energy[k-1] == 0 {
			t.Fatalf("window %d unexpectedly silent", k-1)
		}
		ratio := energy[k] / energy[k-1]
		if math.Abs(ratio-0.6) > 0.02 {
			t.Fatalf("echo window %d ratio: got=%f want=0.6", k, ratio)
		}
	}
}

func TestEngineLowPassCutoffShapesSpectrum(t *testing.T) {
	renderRMS := func(cutoff float32) float64 {
		e := newQuietEngine(48000)
		e.SetWaveform(WaveSine)
		e.UpdateADSR(0.01, 0.01, 1.0, 0.1)
		e.AddLowPass(cutoff, 1, 1)
		e.TriggerNote(880)
		pullMono(e, int(0.2*48000))
		return analysis.RMS(pullMono(e, 24000))
	}

	closed := renderRMS(200)
	open := renderRMS(8000)
	if closed <= 0 {
		t.Fatalf("expected nonzero output through the closed filter")
	}
	diffDB := 20 * math.Log10(open/closed)
	if diffDB < 18 {
		t.Fatalf("expected at least 18 dB between cutoff 8000 and 200, got %.1f dB", diffDB)
	}
}

func TestEngineRejectsInvalidFrequencies(t *testing.T) {
	e := newQuietEngine(44100)
	e.TriggerNote(0)
	e.TriggerNote(-100)
	e.TriggerNote(20001)
	if e.ActiveNoteCount() != 0 || e.NoteOn() {
		t.Fatalf("invalid frequencies must be ignored")
	}
}

func TestEngineNoteStackLastNotePriority(t *testing.T) {
	e := newQuietEngine(44100)
	e.TriggerNote(440)
	e.TriggerNote(554.37)
	e.TriggerNote(659.25)

	if got := e.frequency.Load(); got != 659.25 {
		t.Fatalf("expected the newest note to sound, got %f", got)
	}

	e.TriggerNoteOff(554.37)
	if got := e.frequency.Load(); got != 659.25 {
		t.Fatalf("releasing an inner note must not change the pitch, got %f", got)
	}
	if !e.NoteOn() {
		t.Fatalf("gate must stay held while notes remain")
	}

	e.TriggerNoteOff(659.25)
	if got := e.frequency.Load(); got != 440 {
		t.Fatalf("expected fallback to the previous note, got %f", got)
	}

	e.TriggerNoteOff(440)
	if e.NoteOn() || e.ActiveNoteCount() != 0 {
		t.Fatalf("expected all notes released")
	}
}

func TestEngineNoteOffUnknownFrequencyIsNoOp(t *testing.T) {
	e := newQuietEngine(44100)
	e.TriggerNote(440)
	e.TriggerNoteOff(441)
	if e.ActiveNoteCount() != 1 || !e.NoteOn() {
		t.Fatalf("unknown note-off must leave the stack untouched")
	}
}

func TestEngineTriggerAllNotesOff(t *testing.T) {
	e := newQuietEngine(44100)
	e.TriggerNote(440)
	e.TriggerNote(880)
	e.TriggerAllNotesOff()
	if e.ActiveNoteCount() != 0 || e.NoteOn() {
		t.Fatalf("expected every note cleared")
	}
}

func TestEngineLegatoKeepsPhaseContinuous(t *testing.T) {
	e := newQuietEngine(44100)
	e.SetWaveform(WaveSine)
	e.UpdateADSR(0.001, 0.01, 1.0, 0.1)

	e.TriggerNote(440)
	pullMono(e, 100)
	phaseBefore := e.primaryPhase

	e.TriggerNote(660)
	if e.resetPending.Load() {
		t.Fatalf("overlapping trigger must not schedule a phase reset")
	}
	e.NextSample()

	want := phaseBefore + 660.0/44100.0
	if want >= 1 {
		want -= 1
	}
	if math.Abs(float64(e.primaryPhase-want)) > 1e-3 {
		t.Fatalf("expected continuous phase: got=%f want=%f", e.primaryPhase, want)
	}
}

func TestEngineTriggerFromSilenceResetsPhases(t *testing.T) {
	e := newQuietEngine(44100)
	e.TriggerNote(440)
	pullMono(e, 500)
	e.TriggerNoteOff(440)
	pullMono(e, 500)

	e.TriggerNote(440)
	if !e.resetPending.Load() {
		t.Fatalf("trigger from silence must schedule a phase reset")
	}
}

func TestEnginePitchBendMapping(t *testing.T) {
	e := newQuietEngine(44100)

	e.SetPitchBend(0)
	if got := e.PitchBendCents(); got != 0 {
		t.Fatalf("bend 0: got=%f want=0", got)
	}
	e.SetPitchBend(8191)
	if got := e.PitchBendCents(); math.Abs(float64(got-100)) > 1e-4 {
		t.Fatalf("bend 8191: got=%f want=100", got)
	}
	e.SetPitchBend(-8192)
	if got := e.PitchBendCents(); math.Abs(float64(got+100)) > 1e-4 {
		t.Fatalf("bend -8192: got=%f want=-100", got)
	}
	e.SetPitchBend(100000)
	if got := e.PitchBendCents(); math.Abs(float64(got-100)) > 1e-4 {
		t.Fatalf("bend above range must clamp: got=%f", got)
	}
}

func TestEnginePitchBendShiftsFrequency(t *testing.T) {
	e := newQuietEngine(44100)
	e.SetWaveform(WaveSine)
	e.UpdateADSR(0.001, 0.01, 1.0, 0.1)
	e.SetPitchBend(8191)
	e.TriggerNote(440)
	pullMono(e, 2000)
	mono := pullMono(e, 22050)

	fundamental := analysis.EstimateFundamental(mono, 44100)
	want := 440 * math.Pow(2, 100.0/1200.0)
	if math.Abs(fundamental-want) > 2 {
		t.Fatalf("expected bent fundamental near %.1f Hz, got %f", want, fundamental)
	}
}

func TestEngineSecondaryDisabledContributesNothing(t *testing.T) {
	render := func(configure func(*Engine)) []float64 {
		e := newQuietEngine(44100)
		e.SetWaveform(WaveSine)
		e.UpdateADSR(0.01, 0.05, 0.8, 0.1)
		configure(e)
		e.TriggerNote(440)
		return pullMono(e, 4410)
	}

	plain := render(func(e *Engine) {})
	disabled := render(func(e *Engine) {
		e.ConfigureSecondary(false, 0.9, 700, 1)
		e.SetSecondaryWaveform(WaveSaw)
	})

	for i := range plain {
		if plain[i] != disabled[i] {
			t.Fatalf("disabled secondary oscillator altered sample %d: %g != %g", i, plain[i], disabled[i])
		}
	}
}

func TestEngineSecondaryMixBlendsOscillators(t *testing.T) {
	e := newQuietEngine(44100)
	e.SetWaveform(WaveSine)
	e.UpdateADSR(0.001, 0.01, 1.0, 0.1)
	e.ConfigureSecondary(true, 0.5, 0, 1)
	e.TriggerNote(220)
	mono := pullMono(e, 8820)

	if analysis.PeakAbs(mono) == 0 {
		t.Fatalf("expected audible output with secondary enabled")
	}
	// An octave-up secondary leaves the fundamental in place.
	fundamental := analysis.EstimateFundamental(mono, 44100)
	if math.Abs(fundamental-220) > 2 {
		t.Fatalf("expected fundamental near 220 Hz, got %f", fundamental)
	}
}

func TestEngineConfigureSecondaryNormalizesInputs(t *testing.T) {
	e := newQuietEngine(44100)
	e.ConfigureSecondary(true, 7, -50, 9)
	if got := e.secondaryMix.Load(); got != 1 {
		t.Fatalf("mix must clamp to 1, got %f", got)
	}
	if got := e.secondaryDetuneCents.Load(); got != 0 {
		t.Fatalf("negative detune must clamp to 0, got %f", got)
	}
	if got := e.secondaryOctave.Load(); got != 2 {
		t.Fatalf("octave offset must clamp to +2, got %d", got)
	}
}

func TestEngineAddEffectDeduplicatesByIdentity(t *testing.T) {
	e := newQuietEngine(44100)
	fx := NewDefaultDelayEffect(44100)
	e.AddEffect(fx)
	e.AddEffect(fx)
	if e.EffectCount() != 1 {
		t.Fatalf("expected a single effect after duplicate add, got %d", e.EffectCount())
	}
	e.AddEffect(nil)
	if e.EffectCount() != 1 {
		t.Fatalf("nil effects must be ignored, got %d", e.EffectCount())
	}
}

func TestEngineLowPassCutoffBookkeeping(t *testing.T) {
	e := newQuietEngine(48000)
	if e.HasLowPassEffect() || e.LowPassCutoff() != 0 {
		t.Fatalf("expected no low-pass initially")
	}

	first := e.AddLowPass(1000, 0.9, 1)
	second := e.AddLowPass(2000, 0.9, 1)
	e.SetLowPassCutoff(500)

	if got := first.Cutoff(); got != 500 {
		t.Fatalf("first low-pass cutoff: got=%f want=500", got)
	}
	if got := second.Cutoff(); got != 500 {
		t.Fatalf("second low-pass cutoff: got=%f want=500", got)
	}
	if got := e.LowPassCutoff(); got != 500 {
		t.Fatalf("last cutoff: got=%f want=500", got)
	}

	e.ClearEffects()
	if e.HasLowPassEffect() || e.LowPassCutoff() != 0 {
		t.Fatalf("clearing effects must clear the low-pass bookkeeping")
	}

	e.SetLowPassCutoff(700)
	if e.HasLowPassEffect() || e.LowPassCutoff() != 0 {
		t.Fatalf("setting a cutoff with no low-pass present must clear bookkeeping")
	}
}

func TestEngineUpdateEffectParameters(t *testing.T) {
	e := newQuietEngine(44100)
	delay := e.AddDelay(0.3, 0.5, 0.5)
	octave := e.AddOctave(false, 0.3)

	if !e.UpdateEffectParameters("Echo", DelayParameters{DelayTime: 1.0, Feedback: 0.8, Mix: 0.25}) {
		t.Fatalf("expected delay update via synonym to succeed")
	}
	if delay.DelayTime() != 1.0 || delay.Feedback() != 0.8 || delay.Mix() != 0.25 {
		t.Fatalf("delay parameters not applied: %f %f %f", delay.DelayTime(), delay.Feedback(), delay.Mix())
	}

	if !e.UpdateEffectParameters("octave", OctaveParameters{OctaveShift: 2, Mix: 0.9}) {
		t.Fatalf("expected octave update to succeed")
	}
	if !octave.higher || octave.blend != 0.9 {
		t.Fatalf("octave parameters not applied: higher=%v blend=%f", octave.higher, octave.blend)
	}

	if e.UpdateEffectParameters("lowpass", LowPassParameters{CutoffFreq: 300, Resonance: 1}) {
		t.Fatalf("expected update for an absent effect kind to fail")
	}
	if e.UpdateEffectParameters("delay", LowPassParameters{CutoffFreq: 300, Resonance: 1}) {
		t.Fatalf("expected mismatched parameter type to fail")
	}
	if e.UpdateEffectParameters("flanger", DelayParameters{}) {
		t.Fatalf("expected unknown effect name to fail")
	}
}

func TestEngineResetEffectsKeepsChain(t *testing.T) {
	e := newQuietEngine(44100)
	e.AddDelay(0.1, 0.5, 1.0)
	e.ResetEffects()
	if e.EffectCount() != 1 {
		t.Fatalf("reset must keep the chain, got %d effects", e.EffectCount())
	}
}

func TestEngineConfigureBuildsChainFromNames(t *testing.T) {
	e := newQuietEngine(44100)
	cfg := NewDefaultConfig()
	cfg.Waveform = "Sawtooth"
	cfg.Effects = []string{"echo", "LPF", "wobble", "octave"}
	cfg.AttackTime = 0.02
	cfg.SustainLevel = 0.5
	e.Configure(cfg)

	if e.Waveform() != WaveSaw {
		t.Fatalf("expected saw waveform, got %v", e.Waveform())
	}
	if e.EffectCount() != 3 {
		t.Fatalf("expected 3 recognized effects, got %d", e.EffectCount())
	}
	if !e.HasLowPassEffect() {
		t.Fatalf("expected low-pass bookkeeping after configure")
	}
	if got := e.LowPassCutoff(); got != 1000 {
		t.Fatalf("expected stock 1000 Hz cutoff, got %f", got)
	}
}

func TestEngineConfigureUnknownWaveformFallsBackToSquare(t *testing.T) {
	e := newQuietEngine(44100)
	cfg := NewDefaultConfig()
	cfg.Waveform = "theremin"
	e.Configure(cfg)
	if e.Waveform() != WaveSquare {
		t.Fatalf("expected square fallback, got %v", e.Waveform())
	}
}

func TestEngineWaveformTapCapturesOutput(t *testing.T) {
	e := newQuietEngine(44100)
	e.SetWaveform(WaveSine)
	e.UpdateADSR(0.001, 0.01, 1.0, 0.1)
	tap := NewStereoSampleRingBuffer(512)
	e.SetWaveformTap(tap)

	e.TriggerNote(440)
	pullMono(e, 1000)

	recent := e.CopyRecentWaveform(256)
	if len(recent) != 512 {
		t.Fatalf("expected 256 interleaved frames, got %d floats", len(recent))
	}
	var nonZero bool
	for _, v := range recent {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatalf("expected the tap to capture audible output")
	}

	e.SetWaveformTap(nil)
	if got := e.CopyRecentWaveform(256); got != nil {
		t.Fatalf("expected nil with no tap attached")
	}
}

func TestEngineInvalidSampleRateFallsBack(t *testing.T) {
	e := NewEngine(0)
	if e.SampleRate() != 44100 {
		t.Fatalf("expected 44100 fallback, got %f", e.SampleRate())
	}
}

// Control-side setters and the audio pull must be safe to run concurrently.
func TestEngineConcurrentControlAndAudio(t *testing.T) {
	e := NewEngine(44100)
	e.SetWaveform(WaveSine)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200000; i++ {
			e.NextSample()
		}
		close(done)
	}()

	freqs := []float32{220, 330, 440, 660}
	i := 0
	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		f := freqs[i%len(freqs)]
		e.TriggerNote(f)
		e.SetPitchBend(i%16384 - 8192)
		e.SetDrift(0.5, 5, 2)
		e.UpdateADSR(0.01, 0.1, 0.7, 0.2)
		e.ConfigureSecondary(i%2 == 0, 0.4, 8, 1)
		e.TriggerNoteOff(f)
		i++
	}
}
