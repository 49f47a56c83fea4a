// Package wav provides minimal encoding of 16-bit signed PCM audio into the
// RIFF/WAVE container format.
//
// Several pipeline collaborators (whisper-cli subprocesses, embedding
// extraction servers, the OpenAI transcription API) consume whole audio
// chunks as WAV files rather than raw PCM. This package covers exactly that
// need: mono, 16-bit little-endian samples at an arbitrary sample rate.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	headerSize    = 44
	bitsPerSample = 16
)

// Encode writes pcm as a mono 16-bit WAV stream to w.
func Encode(w io.Writer, pcm []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wav: invalid sample rate %d", sampleRate)
	}

	dataSize := len(pcm) * 2
	byteRate := sampleRate * bitsPerSample / 8

	var header [headerSize]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format tag
	binary.LittleEndian.PutUint16(header[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], 2) // block align
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}

	buf := make([]byte, dataSize)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	return nil
}

// Bytes encodes pcm as a mono 16-bit WAV and returns the resulting buffer.
func Bytes(pcm []int16, sampleRate int) ([]byte, error) {
	buf := make([]byte, 0, headerSize+len(pcm)*2)
	w := &appendWriter{buf: buf}
	if err := Encode(w, pcm, sampleRate); err != nil {
		return nil, err
	}
	return w.buf, nil
}

type appendWriter struct {
	buf []byte
}

func (w *appendWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
