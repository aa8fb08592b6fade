package synth

import "sync/atomic"

// StereoSampleRingBuffer captures recent stereo samples for visualization.
//
// Single producer (the audio callback pushing frames), single consumer (a UI
// reader copying the most recent frames). There is no mutual exclusion, only
// memory ordering: the producer releases the new write position after storing
// both samples, the consumer acquires it before copying. The reader may
// observe one torn frame on wrap, which is acceptable for display.
type StereoSampleRingBuffer struct {
	capacityFrames     uint64
	buffer             []float32
	writeIndex         atomic.Uint64
	totalFramesWritten atomic.Uint64
}

// NewStereoSampleRingBuffer creates a ring buffer holding capacityFrames
// interleaved stereo frames. Capacities below one frame are raised to one.
func NewStereoSampleRingBuffer(capacityFrames int) *StereoSampleRingBuffer {
	if capacityFrames < 1 {
		capacityFrames = 1
	}
	return &StereoSampleRingBuffer{
		capacityFrames: uint64(capacityFrames),
		buffer:         make([]float32, capacityFrames*2),
	}
}

// CapacityFrames returns the maximum number of frames the buffer stores.
func (rb *StereoSampleRingBuffer) CapacityFrames() int {
	return int(rb.capacityFrames)
}

// Push appends one stereo frame. Producer side only; never call from more
// than one goroutine.
func (rb *StereoSampleRingBuffer) Push(left, right float32) {
	frameIndex := rb.writeIndex.Load()
	sampleIndex := frameIndex * 2
	rb.buffer[sampleIndex] = left
	rb.buffer[sampleIndex+1] = right

	frameIndex++
	if frameIndex >= rb.capacityFrames {
		frameIndex = 0
	}

	// atomic stores publish the samples written above (release semantics).
	rb.writeIndex.Store(frameIndex)
	rb.totalFramesWritten.Add(1)
}

// AvailableFrames returns the number of frames currently available to copy.
func (rb *StereoSampleRingBuffer) AvailableFrames() int {
	written := rb.totalFramesWritten.Load()
	if written > rb.capacityFrames {
		written = rb.capacityFrames
	}
	return int(written)
}

// CopyLatestInterleaved copies the most recent frames into dest as
// interleaved L/R pairs and returns the number of frames copied, at most
// min(maxFrames, len(dest)/2, available). Consumer side only.
func (rb *StereoSampleRingBuffer) CopyLatestInterleaved(dest []float32, maxFrames int) int {
	if len(dest) == 0 || maxFrames <= 0 {
		return 0
	}
	if maxFrames > len(dest)/2 {
		maxFrames = len(dest) / 2
	}

	framesToCopy := uint64(maxFrames)
	if available := uint64(rb.AvailableFrames()); framesToCopy > available {
		framesToCopy = available
	}
	if framesToCopy == 0 {
		return 0
	}

	writeIndex := rb.writeIndex.Load()
	startFrame := (writeIndex + rb.capacityFrames - framesToCopy) % rb.capacityFrames

	for i := uint64(0); i < framesToCopy; i++ {
		frameIndex := startFrame + i
		if frameIndex >= rb.capacityFrames {
			frameIndex -= rb.capacityFrames
		}
		sampleIndex := frameIndex * 2
		dest[i*2] = rb.buffer[sampleIndex]
		dest[i*2+1] = rb.buffer[sampleIndex+1]
	}

	return int(framesToCopy)
}
