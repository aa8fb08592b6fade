package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-synth/internal/renderutil"
	"github.com/cwbudde/algo-synth/midi"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	// Command-line flags
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz); ignored when -freq is set")
	freq := flag.Float64("freq", 0, "Note frequency in Hz (overrides -note)")
	duration := flag.Float64("duration", 2.0, "Total render duration in seconds")
	holdTime := flag.Float64("hold", 0.5, "Seconds to hold the note before release")
	sampleRate := flag.Int("sample-rate", 44100, "Render sample rate in Hz")
	waveform := flag.String("waveform", "", "Waveform name (sine, square, saw, triangle); overrides the preset")
	effects := flag.String("effects", "", "Comma-separated effect names (octave, delay, lowpass); overrides the preset")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	cutoff := flag.Float64("cutoff", 0, "Low-pass cutoff override in Hz (0 = preset default)")
	output := flag.String("output", "output.wav", "Output WAV file path")
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
	cfg.SampleRate = float32(*sampleRate)
	if *waveform != "" {
		cfg.Waveform = *waveform
	}
	if *effects != "" {
		cfg.Effects = splitNames(*effects)
	}

	frequency := float32(*freq)
	if frequency <= 0 {
		frequency = midi.NoteFrequency(*note)
	}
	if frequency <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid note/frequency\n")
		os.Exit(1)
	}

	engine := synth.NewEngine(cfg.SampleRate)
	engine.Configure(cfg)
	if *cutoff > 0 {
		engine.SetLowPassCutoff(float32(*cutoff))
	}

	totalFrames := int(float64(*sampleRate) * (*duration))
	if totalFrames < 1 {
		totalFrames = 1
	}
	releaseFrame := int(float64(*sampleRate) * (*holdTime))
	if releaseFrame > totalFrames {
		releaseFrame = totalFrames
	}

	fmt.Printf("Rendering %.2f Hz (%s) for %.2f s at %d Hz (effects: %s)...\n",
		frequency, cfg.Waveform, *duration, *sampleRate, strings.Join(cfg.Effects, ","))

	engine.TriggerNote(frequency)

	samples := make([]float32, 0, totalFrames*2)
	for i := 0; i < totalFrames; i++ {
		if i == releaseFrame {
			engine.TriggerNoteOff(frequency)
		}
		left, right := engine.NextSample()
		samples = append(samples, left, right)
	}

	if err := renderutil.WriteStereoWAV(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, totalFrames)
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
