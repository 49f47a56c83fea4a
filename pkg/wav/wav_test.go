package wav

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncode_Header(t *testing.T) {
	pcm := []int16{0, 100, -100, 32767}
	var buf bytes.Buffer
	if err := Encode(&buf, pcm, 16000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := buf.Bytes()
	if len(b) != headerSize+len(pcm)*2 {
		t.Fatalf("encoded length = %d, want %d", len(b), headerSize+len(pcm)*2)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Errorf("missing RIFF/WAVE markers: %q %q", b[0:4], b[8:12])
	}
	if rate := binary.LittleEndian.Uint32(b[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if dataSize := binary.LittleEndian.Uint32(b[40:44]); dataSize != uint32(len(pcm)*2) {
		t.Errorf("data size = %d, want %d", dataSize, len(pcm)*2)
	}
	// First sample after the header should round-trip.
	if got := int16(binary.LittleEndian.Uint16(b[headerSize+2:])); got != 100 {
		t.Errorf("second sample = %d, want 100", got)
	}
}

func TestEncode_InvalidRate(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestBytes_MatchesEncode(t *testing.T) {
	pcm := []int16{1, 2, 3}
	var buf bytes.Buffer
	if err := Encode(&buf, pcm, 8000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Bytes(pcm, 8000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(b, buf.Bytes()) {
		t.Error("Bytes output differs from Encode output")
	}
}
