package synth

import (
	"math"
	"sync/atomic"
)

// atomicFloat32 is a lock-free scalar parameter cell. Control-side writers
// store new values; the audio thread loads without ever acquiring a lock.
// Readers may observe a value one frame stale, which is inaudible.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func newAtomicFloat32(v float32) *atomicFloat32 {
	a := &atomicFloat32{}
	a.Store(v)
	return a
}

func (a *atomicFloat32) Load() float32 {
	return math.Float32frombits(a.bits.Load())
}

func (a *atomicFloat32) Store(v float32) {
	a.bits.Store(math.Float32bits(v))
}

// atomicInt32 holds small integer parameters (octave offsets and the like).
type atomicInt32 struct {
	v atomic.Int32
}

func (a *atomicInt32) Load() int32   { return a.v.Load() }
func (a *atomicInt32) Store(v int32) { a.v.Store(v) }

// atomicBool holds boolean parameters shared with the audio thread.
type atomicBool struct {
	v atomic.Bool
}

func (a *atomicBool) Load() bool   { return a.v.Load() }
func (a *atomicBool) Store(v bool) { a.v.Store(v) }
