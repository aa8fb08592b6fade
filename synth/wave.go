package synth

import (
	"math"
	"strings"
)

// Waveform identifies one of the fixed oscillator shapes.
type Waveform int

const (
	WaveSquare Waveform = iota
	WaveSine
	WaveSaw
	WaveTriangle
)

// String returns the canonical lowercase name of the waveform.
func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSaw:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	default:
		return "square"
	}
}

// ParseWaveform maps a case-insensitive name to a waveform. Unrecognized or
// empty names fall back to square.
func ParseWaveform(name string) Waveform {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine":
		return WaveSine
	case "saw", "sawtooth":
		return WaveSaw
	case "tri", "triangle":
		return WaveTriangle
	default:
		return WaveSquare
	}
}

// Generate produces one sample in [-1, 1] for the given frequency and
// advances phase by freq/sampleRate, wrapping into [0, 1). No band-limiting
// is applied; the aliasing above Nyquist is part of the engine's character.
func (w Waveform) Generate(freq, sampleRate float32, phase *float32) float32 {
	p := *phase

	var sample float32
	switch w {
	case WaveSine:
		sample = float32(math.Sin(2 * math.Pi * float64(p)))
	case WaveSaw:
		sample = 2*p - 1
	case WaveTriangle:
		sample = 4*float32(math.Abs(float64(p-0.5))) - 1
	default:
		if p < 0.5 {
			sample = 1
		} else {
			sample = -1
		}
	}

	p += freq / sampleRate
	if p >= 1 || p < 0 {
		p -= float32(math.Floor(float64(p)))
	}
	*phase = p

	return sample
}
