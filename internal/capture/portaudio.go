package capture

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Compile-time assertion that PortAudioDevice implements Device.
var _ Device = (*PortAudioDevice)(nil)

// PortAudioDevice captures mono 16-bit audio from the default input
// device via PortAudio.
type PortAudioDevice struct {
	stream *portaudio.Stream
	buf    []int16

	closeOnce sync.Once
	closeErr  error
}

// OpenDefaultDevice initialises PortAudio and opens the default input
// device at the given sample rate, reading FrameSamples samples per call.
func OpenDefaultDevice(sampleRate int) (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: initialize portaudio: %w", err)
	}

	d := &PortAudioDevice{buf: make([]int16, FrameSamples)}
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), FrameSamples, d.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: start stream: %w", err)
	}
	d.stream = stream
	return d, nil
}

// Read blocks until the next frame of samples is available and copies it
// into frame. frame must hold exactly FrameSamples samples.
func (d *PortAudioDevice) Read(frame []int16) error {
	if len(frame) != len(d.buf) {
		return fmt.Errorf("capture: frame size %d, want %d", len(frame), len(d.buf))
	}
	if err := d.stream.Read(); err != nil {
		return fmt.Errorf("capture: stream read: %w", err)
	}
	copy(frame, d.buf)
	return nil
}

// Close stops the stream and shuts PortAudio down.
func (d *PortAudioDevice) Close() error {
	d.closeOnce.Do(func() {
		if d.stream != nil {
			d.stream.Stop()
			d.closeErr = d.stream.Close()
		}
		portaudio.Terminate()
	})
	return d.closeErr
}
