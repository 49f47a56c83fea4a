package energy

import "testing"

func constWindow(v int16, n int) []int16 {
	w := make([]int16, n)
	for i := range w {
		w[i] = v
	}
	return w
}

func TestSpeechProbability_Silence(t *testing.T) {
	m := New()
	p, err := m.SpeechProbability(constWindow(0, 512))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 0 {
		t.Errorf("probability = %v, want 0 for silence", p)
	}
}

func TestSpeechProbability_LoudSignal(t *testing.T) {
	m := New()
	p, err := m.SpeechProbability(constWindow(10000, 512))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 1 {
		t.Errorf("probability = %v, want 1 for loud signal", p)
	}
}

func TestSpeechProbability_Midrange(t *testing.T) {
	m := New(WithNoiseFloor(100), WithSpeechRMS(1100))
	// Constant amplitude 600 gives RMS 600 → (600-100)/1000 = 0.5.
	p, err := m.SpeechProbability(constWindow(600, 512))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p < 0.49 || p > 0.51 {
		t.Errorf("probability = %v, want ≈0.5", p)
	}
}

func TestSpeechProbability_EmptyWindow(t *testing.T) {
	m := New()
	if _, err := m.SpeechProbability(nil); err == nil {
		t.Fatal("expected error for empty window")
	}
}
