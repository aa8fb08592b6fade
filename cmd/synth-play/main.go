package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/midi"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	waveform := flag.String("waveform", "", "Waveform name override")
	effects := flag.String("effects", "", "Comma-separated effect names override")
	inputMode := flag.String("input", "", "Input mode override: midi or sequencer")
	tempo := flag.Float64("tempo", 110, "Sequencer tempo in BPM")
	flag.Parse()

	cfg := synth.NewDefaultConfig()
	if *presetPath != "" {
		loaded, err := preset.Load(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *waveform != "" {
		cfg.Waveform = *waveform
	}
	if *effects != "" {
		cfg.Effects = splitNames(*effects)
	}
	if *inputMode != "" {
		cfg.InputMode = strings.ToLower(*inputMode)
	}

	engine := synth.NewEngine(cfg.SampleRate)
	engine.Configure(cfg)

	// Waveform tap for hosts that want to draw the output.
	tapFrames := int(cfg.SampleRate * 0.5)
	if tapFrames < 2048 {
		tapFrames = 2048
	}
	engine.SetWaveformTap(synth.NewStereoSampleRingBuffer(tapFrames))

	out, err := device.NewOutput(engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	out.Start()

	fmt.Printf("Playing %s at %.0f Hz, buffer %d frames\n", cfg.Waveform, cfg.SampleRate, cfg.BufferFrames)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var midiInput *midi.Input
	useSequencer := cfg.InputMode == "sequencer"
	if !useSequencer {
		translator := midi.NewTranslator(engine)
		midiInput, err = midi.OpenInput(translator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "No MIDI input (%v) - falling back to the demo sequencer\n", err)
			useSequencer = true
		} else {
			fmt.Printf("MIDI input connected: %s\n", midiInput.PortName)
			defer midiInput.Close()
		}
	}

	if useSequencer {
		done := make(chan struct{})
		defer close(done)
		go runSequencer(engine, cfg, *tempo, done)
	}

	<-stop
	fmt.Println("Stopping")
	engine.TriggerAllNotesOff()
	time.Sleep(200 * time.Millisecond)
}

// runSequencer drives the engine with a built-in pattern when no MIDI
// hardware is available.
func runSequencer(engine *synth.Engine, cfg synth.Config, tempo float64, done <-chan struct{}) {
	if tempo <= 0 {
		tempo = 110
	}
	stepDur := time.Duration(float64(time.Minute) / tempo / 2)

	notes := sequenceNotes(cfg)
	i := 0
	ticker := time.NewTicker(stepDur)
	defer ticker.Stop()

	var lastFreq float32
	for {
		select {
		case <-done:
			engine.TriggerAllNotesOff()
			return
		case <-ticker.C:
			if lastFreq > 0 {
				engine.TriggerNoteOff(lastFreq)
			}
			lastFreq = notes[i%len(notes)]
			engine.TriggerNote(lastFreq)
			i++
		}
	}
}

// sequenceNotes builds the note list for the configured sequence type. The
// "demo" sequence is a minor arpeggio that climbs to the octave and back
// down, starting at the first note at or above the default frequency.
func sequenceNotes(cfg synth.Config) []float32 {
	base := 57 // A3
	for n := 0; n < 128; n++ {
		if midi.NoteFrequency(n) >= cfg.DefaultFrequency {
			base = n
			break
		}
	}

	var offsets []int
	switch strings.ToLower(cfg.SequenceType) {
	case "scale":
		offsets = []int{0, 2, 4, 5, 7, 9, 11, 12}
	default: // demo
		offsets = []int{0, 3, 7, 12, 7, 3}
	}

	notes := make([]float32, 0, len(offsets))
	for _, off := range offsets {
		if f := midi.NoteFrequency(base + off); f > 0 {
			notes = append(notes, f)
		}
	}
	if len(notes) == 0 {
		notes = []float32{cfg.DefaultFrequency}
	}
	return notes
}

func splitNames(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
