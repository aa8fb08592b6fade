package synth

import "strings"

// Effect processes one stereo sample at a time. Implementations keep their
// own state and must tolerate Process being called from the audio thread
// while setters run on the control thread.
type Effect interface {
	// Process applies the effect to one stereo sample pair.
	Process(left, right float32) (float32, float32)
	// Reset clears internal state (delay buffers, filter memories).
	Reset()
	// SetSampleRate informs the effect of the engine sample rate.
	SetSampleRate(sampleRate float32)
}

// canonicalEffectName folds the accepted effect-name synonyms onto one
// identifier: delay/echo, lowpass/lpf/filter, octave. Unknown names map to
// the empty string.
func canonicalEffectName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "delay", "echo":
		return "delay"
	case "lowpass", "lpf", "filter":
		return "lowpass"
	case "octave":
		return "octave"
	default:
		return ""
	}
}
