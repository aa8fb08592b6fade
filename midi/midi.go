// Package midi translates MIDI-style events into engine operations.
package midi

import (
	"math"

	"github.com/cwbudde/algo-synth/synth"
)

// EventType tags the MIDI message kinds the translator understands.
type EventType int

const (
	EventUnknown EventType = iota
	EventNoteOn
	EventNoteOff
	EventPitchBend
	EventControlChange
)

// Event is one byte-tagged MIDI-style message. Data1/Data2 carry the 7-bit
// payload bytes (note/velocity or controller/value); Value carries the
// signed 14-bit pitch-bend amount.
type Event struct {
	Type  EventType
	Data1 uint8
	Data2 uint8
	Value int
}

// noteFrequencies is the standard equal-temperament table with A4 = 440 Hz
// at note 69.
var noteFrequencies = buildNoteFrequencies()

func buildNoteFrequencies() [128]float32 {
	var table [128]float32
	for n := range table {
		table[n] = float32(440.0 * math.Pow(2, float64(n-69)/12.0))
	}
	return table
}

// NoteFrequency returns the frequency in Hz for a MIDI note number, or 0 for
// numbers outside [0, 127].
func NoteFrequency(note int) float32 {
	if note < 0 || note > 127 {
		return 0
	}
	return noteFrequencies[note]
}

// Volume CC (7) sweeps the low-pass cutoff exponentially over this range.
const (
	ccVolumeController = 7
	minCutoffSweepHz   = 80.0
	maxCutoffSweepHz   = 12000.0
)

// Translator maps incoming events onto engine calls. Events it does not
// recognize are ignored.
type Translator struct {
	engine *synth.Engine
}

// NewTranslator creates a translator for the given engine.
func NewTranslator(engine *synth.Engine) *Translator {
	return &Translator{engine: engine}
}

// Handle dispatches one event. Runs on the control (MIDI) thread.
func (t *Translator) Handle(event Event) {
	if t == nil || t.engine == nil {
		return
	}

	switch event.Type {
	case EventNoteOn:
		if event.Data2 == 0 {
			// Running-status convention: velocity 0 is a note off.
			t.noteOff(event.Data1)
			return
		}
		if freq := NoteFrequency(int(event.Data1)); freq > 0 {
			t.engine.TriggerNote(freq)
		}

	case EventNoteOff:
		t.noteOff(event.Data1)

	case EventPitchBend:
		t.engine.SetPitchBend(event.Value)

	case EventControlChange:
		if event.Data1 == ccVolumeController {
			t.engine.SetLowPassCutoff(ControlValueToCutoff(event.Data2))
		}
	}
}

func (t *Translator) noteOff(note uint8) {
	if int(note) > 127 {
		t.engine.TriggerAllNotesOff()
		return
	}
	t.engine.TriggerNoteOff(noteFrequencies[note])
}

// ControlValueToCutoff maps a 7-bit controller value onto the exponential
// cutoff sweep 80 Hz .. 12 kHz.
func ControlValueToCutoff(value uint8) float32 {
	if value > 127 {
		value = 127
	}
	normalized := float64(value) / 127.0
	cutoff := minCutoffSweepHz * math.Pow(maxCutoffSweepHz/minCutoffSweepHz, normalized)
	return float32(cutoff)
}
