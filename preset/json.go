// Package preset loads engine configurations from JSON files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-synth/synth"
)

// File is the JSON schema for synth configuration presets. Pointer fields
// are optional overrides on top of the default configuration.
type File struct {
	Waveform string   `json:"waveform"`
	Effects  []string `json:"effects"`

	SampleRate   *float32 `json:"sample_rate"`
	BufferFrames *uint    `json:"buffer_frames"`

	MidiPort         *int     `json:"midi_port"`
	DefaultFrequency *float32 `json:"default_frequency"`
	InputMode        string   `json:"input_mode"`
	SequenceType     string   `json:"sequence_type"`

	AttackTime   *float32 `json:"attack_time"`
	DecayTime    *float32 `json:"decay_time"`
	SustainLevel *float32 `json:"sustain_level"`
	ReleaseTime  *float32 `json:"release_time"`
}

// Load reads a preset JSON file and applies it on top of the default
// configuration.
func Load(path string) (synth.Config, error) {
	cfg := synth.NewDefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return cfg, err
	}

	if err := Apply(&cfg, &f); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Apply applies a parsed preset file onto an existing configuration.
func Apply(dst *synth.Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}

	if f.Waveform != "" {
		dst.Waveform = strings.TrimSpace(f.Waveform)
	}
	if f.Effects != nil {
		dst.Effects = append([]string(nil), f.Effects...)
	}

	if f.SampleRate != nil {
		if *f.SampleRate < 100 {
			return fmt.Errorf("sample_rate must be >= 100")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.BufferFrames != nil {
		if *f.BufferFrames == 0 {
			return fmt.Errorf("buffer_frames must be > 0")
		}
		dst.BufferFrames = *f.BufferFrames
	}
	if f.MidiPort != nil {
		if *f.MidiPort < 0 {
			return fmt.Errorf("midi_port must be >= 0")
		}
		dst.MidiPort = *f.MidiPort
	}
	if f.DefaultFrequency != nil {
		if *f.DefaultFrequency <= 0 || *f.DefaultFrequency > 20000 {
			return fmt.Errorf("default_frequency must be in (0, 20000]")
		}
		dst.DefaultFrequency = *f.DefaultFrequency
	}
	if f.InputMode != "" {
		mode := strings.ToLower(strings.TrimSpace(f.InputMode))
		if mode != "midi" && mode != "sequencer" {
			return fmt.Errorf("input_mode must be %q or %q", "midi", "sequencer")
		}
		dst.InputMode = mode
	}
	if f.SequenceType != "" {
		dst.SequenceType = strings.TrimSpace(f.SequenceType)
	}

	if f.AttackTime != nil {
		if *f.AttackTime < 0 {
			return fmt.Errorf("attack_time must be >= 0")
		}
		dst.AttackTime = *f.AttackTime
	}
	if f.DecayTime != nil {
		if *f.DecayTime < 0 {
			return fmt.Errorf("decay_time must be >= 0")
		}
		dst.DecayTime = *f.DecayTime
	}
	if f.SustainLevel != nil {
		if *f.SustainLevel < 0 || *f.SustainLevel > 1 {
			return fmt.Errorf("sustain_level must be in [0, 1]")
		}
		dst.SustainLevel = *f.SustainLevel
	}
	if f.ReleaseTime != nil {
		if *f.ReleaseTime < 0 {
			return fmt.Errorf("release_time must be >= 0")
		}
		dst.ReleaseTime = *f.ReleaseTime
	}

	return nil
}
