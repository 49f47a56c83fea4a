package diarize

import (
	"context"
	"errors"
	"testing"

	embmock "github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding/mock"
)

func TestDominantSpeaker(t *testing.T) {
	tests := []struct {
		name string
		att  Attribution
		want string
	}{
		{
			name: "empty",
			att:  nil,
			want: "",
		},
		{
			name: "single segment",
			att:  Attribution{{Start: 0, End: 4, Speaker: "A"}},
			want: "A",
		},
		{
			name: "majority duration wins",
			att: Attribution{
				{Start: 0, End: 1, Speaker: "A"},
				{Start: 1, End: 4, Speaker: "B"},
				{Start: 4, End: 5, Speaker: "A"},
			},
			want: "B",
		},
		{
			name: "tie keeps first encountered",
			att: Attribution{
				{Start: 0, End: 2, Speaker: "A"},
				{Start: 2, End: 4, Speaker: "B"},
			},
			want: "A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.att.DominantSpeaker(); got != tt.want {
				t.Errorf("DominantSpeaker() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNone_Diarize(t *testing.T) {
	att, err := None{}.Diarize(context.Background(), make([]int16, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(att) != 0 {
		t.Errorf("attribution = %v, want empty", att)
	}
}

func TestClustering_Diarize(t *testing.T) {
	ext := &embmock.Extractor{Vector: unit(8, 0)}
	ident := NewIdentifier(IdentifierConfig{})
	d := NewClustering(ext, ident, 16000)

	att, err := d.Diarize(context.Background(), make([]int16, 64000)) // 4s at 16kHz
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(att) != 1 {
		t.Fatalf("attribution = %v, want one segment", att)
	}
	if att[0].Speaker != "SPEAKER_00" {
		t.Errorf("speaker = %q, want SPEAKER_00", att[0].Speaker)
	}
	if att[0].Start != 0 || att[0].End != 4 {
		t.Errorf("segment = [%v, %v], want [0, 4]", att[0].Start, att[0].End)
	}
}

func TestClustering_PendingIsUnattributed(t *testing.T) {
	ident := NewIdentifier(IdentifierConfig{})
	ext := &embmock.Extractor{Vectors: [][]float32{
		unit(8, 0),
		// ~0.5 similarity to the first: parked as pending.
		rotated(8, 0, 1, 1.0471975511965976), // 60°
	}}
	d := NewClustering(ext, ident, 16000)

	if _, err := d.Diarize(context.Background(), make([]int16, 1600)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	att, err := d.Diarize(context.Background(), make([]int16, 1600))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(att) != 0 {
		t.Errorf("attribution = %v, want empty for pending speaker", att)
	}
}

func TestClustering_NilEmbedding(t *testing.T) {
	d := NewClustering(&embmock.Extractor{Vector: nil}, NewIdentifier(IdentifierConfig{}), 16000)
	att, err := d.Diarize(context.Background(), make([]int16, 1600))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(att) != 0 {
		t.Errorf("attribution = %v, want empty", att)
	}
}

func TestClustering_ExtractorError(t *testing.T) {
	d := NewClustering(&embmock.Extractor{Err: errors.New("boom")}, NewIdentifier(IdentifierConfig{}), 16000)
	if _, err := d.Diarize(context.Background(), make([]int16, 1600)); err == nil {
		t.Fatal("expected error from failing extractor")
	}
}
