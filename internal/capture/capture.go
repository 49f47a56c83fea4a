// Package capture reads fixed-size frames from an audio input device and
// reassembles them into fixed-duration chunks for the pipeline.
//
// Capture runs independently of chunk processing: the [Loop] producer
// pushes whole chunks into an unbounded [Queue] and never blocks on the
// consumer, so processing lag shows up as growing queue depth rather than
// dropped audio. Frame remainders that don't fill a chunk are carried over
// to the next chunk; no samples are lost at chunk boundaries.
package capture

import (
	"context"
	"fmt"
	"sync"
)

// FrameSamples is the number of samples read from the device per call.
const FrameSamples = 1024

// Device is the narrow interface over an audio input source.
type Device interface {
	// Read fills frame completely with the next captured samples,
	// blocking until enough audio is available.
	Read(frame []int16) error

	// Close releases the device. Safe to call more than once.
	Close() error
}

// Queue is the unbounded hand-off buffer between capture and processing.
// Push never blocks; depth is observable for monitoring.
//
// All methods are safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	chunks [][]int16
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a chunk to the queue.
func (q *Queue) Push(chunk []int16) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.chunks = append(q.chunks, chunk)
}

// Poll removes and returns the oldest chunk, or ok=false when the queue is
// empty. It never blocks.
func (q *Queue) Poll() ([]int16, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return nil, false
	}
	chunk := q.chunks[0]
	q.chunks = q.chunks[1:]
	if len(q.chunks) == 0 {
		q.chunks = nil // release the drained backing array
	}
	return chunk, true
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks)
}

// Loop is the capture producer: it reads device frames and emits
// chunk-sized sample slices into a queue.
type Loop struct {
	dev          Device
	queue        *Queue
	chunkSamples int
	frameSamples int
}

// NewLoop creates a capture loop that emits chunks of chunkSamples samples
// into queue.
func NewLoop(dev Device, queue *Queue, chunkSamples int) (*Loop, error) {
	if chunkSamples <= 0 {
		return nil, fmt.Errorf("capture: chunkSamples must be positive, got %d", chunkSamples)
	}
	return &Loop{
		dev:          dev,
		queue:        queue,
		chunkSamples: chunkSamples,
		frameSamples: FrameSamples,
	}, nil
}

// Run reads frames until ctx is cancelled or the device fails. Whenever
// the accumulated samples reach one chunk, exactly chunkSamples are
// emitted and the remainder is retained for the next chunk.
func (l *Loop) Run(ctx context.Context) error {
	var acc []int16
	frame := make([]int16, l.frameSamples)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.dev.Read(frame); err != nil {
			// A cancelled context often surfaces as a device error first.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("capture: device read: %w", err)
		}
		acc = append(acc, frame...)

		for len(acc) >= l.chunkSamples {
			chunk := make([]int16, l.chunkSamples)
			copy(chunk, acc)
			l.queue.Push(chunk)

			rest := make([]int16, len(acc)-l.chunkSamples)
			copy(rest, acc[l.chunkSamples:])
			acc = rest
		}
	}
}
