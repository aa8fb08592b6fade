// Package device adapts the engine to the operating-system audio output via
// oto. The oto mixer thread pulls interleaved little-endian float32 frames
// from a reader that calls Engine.NextSample once per frame.
package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-synth/synth"
)

// Output owns the oto context and player for one engine.
type Output struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
}

// engineReader is the oto pull side. Read runs on oto's mixer thread and is
// the engine's audio callback: it must not block or allocate.
type engineReader struct {
	engine *synth.Engine
}

func (r *engineReader) Read(p []byte) (int, error) {
	const frameBytes = 8 // two float32 samples
	frames := len(p) / frameBytes
	for i := 0; i < frames; i++ {
		left, right := r.engine.NextSample()
		binary.LittleEndian.PutUint32(p[i*frameBytes:], math.Float32bits(left))
		binary.LittleEndian.PutUint32(p[i*frameBytes+4:], math.Float32bits(right))
	}
	return frames * frameBytes, nil
}

// NewOutput opens the default audio device for stereo float32 output at the
// engine's sample rate. The returned output is stopped; call Start to begin
// pulling samples.
func NewOutput(engine *synth.Engine) (*Output, error) {
	if engine == nil {
		return nil, fmt.Errorf("nil engine")
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(engine.SampleRate()),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	out := &Output{ctx: ctx}
	out.player = ctx.NewPlayer(&engineReader{engine: engine})
	return out, nil
}

// Start begins audio playback.
func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

// Stop pauses playback; Start resumes it.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started && o.player != nil {
		o.player.Pause()
		o.started = false
	}
}

// Close stops playback and releases the device.
func (o *Output) Close() error {
	o.Stop()
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			return err
		}
		o.player = nil
	}
	return nil
}
