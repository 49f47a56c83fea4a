package pipeline

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestSpeakerBuffer_Accumulation(t *testing.T) {
	b := NewSpeakerBuffer("SPEAKER_00", t0)
	if b.ChunkCount() != 0 || b.FullText() != "" || b.CharCount() != 0 {
		t.Fatalf("fresh buffer not empty: %d chunks, %q", b.ChunkCount(), b.FullText())
	}

	b.Add("hello", t0.Add(time.Second))
	b.Add("world", t0.Add(2*time.Second))

	if b.ChunkCount() != 2 {
		t.Errorf("ChunkCount = %d, want 2", b.ChunkCount())
	}
	if got := b.FullText(); got != "hello world" {
		t.Errorf("FullText = %q, want %q", got, "hello world")
	}
	if got := b.CharCount(); got != len("hello world") {
		t.Errorf("CharCount = %d, want %d", got, len("hello world"))
	}
	if got := b.Age(t0.Add(5 * time.Second)); got != 5*time.Second {
		t.Errorf("Age = %v, want 5s", got)
	}
	if got := b.Idle(t0.Add(5 * time.Second)); got != 3*time.Second {
		t.Errorf("Idle = %v, want 3s", got)
	}
}

func TestFlushPolicy_Reasons(t *testing.T) {
	policy := FlushPolicy{MaxAge: 60 * time.Second, MaxChars: 20, MaxIdle: 5 * time.Second}

	tests := []struct {
		name  string
		setup func() (*SpeakerBuffer, time.Time)
		want  []string
	}{
		{
			name: "nothing breached",
			setup: func() (*SpeakerBuffer, time.Time) {
				b := NewSpeakerBuffer("A", t0)
				b.Add("hi", t0)
				return b, t0.Add(time.Second)
			},
			want: nil,
		},
		{
			name: "age only",
			setup: func() (*SpeakerBuffer, time.Time) {
				b := NewSpeakerBuffer("A", t0)
				b.Add("hi", t0.Add(59*time.Second))
				return b, t0.Add(61 * time.Second)
			},
			want: []string{"age"},
		},
		{
			name: "size only",
			setup: func() (*SpeakerBuffer, time.Time) {
				b := NewSpeakerBuffer("A", t0)
				b.Add(strings.Repeat("x", 25), t0)
				return b, t0.Add(time.Second)
			},
			want: []string{"size"},
		},
		{
			name: "idle only",
			setup: func() (*SpeakerBuffer, time.Time) {
				b := NewSpeakerBuffer("A", t0)
				b.Add("hi", t0)
				return b, t0.Add(6 * time.Second)
			},
			want: []string{"idle"},
		},
		{
			name: "age and size and idle",
			setup: func() (*SpeakerBuffer, time.Time) {
				b := NewSpeakerBuffer("A", t0)
				b.Add(strings.Repeat("x", 25), t0)
				return b, t0.Add(90 * time.Second)
			},
			want: []string{"age", "size", "idle"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, now := tt.setup()
			got := policy.Reasons(b, now)
			if len(got) != len(tt.want) {
				t.Fatalf("Reasons = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Reasons = %v, want %v", got, tt.want)
				}
			}
			if policy.ShouldFlush(b, now) != (len(tt.want) > 0) {
				t.Errorf("ShouldFlush disagrees with Reasons")
			}
		})
	}
}

func TestFlushPolicy_ThresholdsAreInclusive(t *testing.T) {
	policy := FlushPolicy{MaxAge: 60 * time.Second, MaxChars: 10, MaxIdle: 5 * time.Second}

	b := NewSpeakerBuffer("A", t0)
	b.Add(strings.Repeat("x", 10), t0)
	if !policy.ShouldFlush(b, t0) {
		t.Error("char count equal to MaxChars should flush")
	}

	b2 := NewSpeakerBuffer("A", t0)
	b2.Add("x", t0.Add(60*time.Second))
	if !policy.ShouldFlush(b2, t0.Add(60*time.Second)) {
		t.Error("age equal to MaxAge should flush")
	}
}

// TestFlushPolicy_MatchesDisjunction cross-checks ShouldFlush against the
// three predicates independently over randomised buffer states.
func TestFlushPolicy_MatchesDisjunction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	policy := FlushPolicy{MaxAge: 60 * time.Second, MaxChars: 100, MaxIdle: 5 * time.Second}

	for i := 0; i < 500; i++ {
		age := time.Duration(rng.Intn(120)) * time.Second
		idle := time.Duration(rng.Intn(int(age.Seconds())+1)) * time.Second
		chars := rng.Intn(200)

		b := NewSpeakerBuffer("A", t0)
		b.Add(strings.Repeat("x", chars), t0.Add(age-idle))
		now := t0.Add(age)

		want := age >= policy.MaxAge || chars >= policy.MaxChars || idle >= policy.MaxIdle
		if got := policy.ShouldFlush(b, now); got != want {
			t.Fatalf("age=%v idle=%v chars=%d: ShouldFlush = %v, want %v",
				age, idle, chars, got, want)
		}
	}
}
