package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/b00ls0ck3t/Polyglot/internal/config"
	"github.com/b00ls0ck3t/Polyglot/internal/pipeline"
	"github.com/b00ls0ck3t/Polyglot/internal/transport"
	embeddingmock "github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding/mock"
	sttmock "github.com/b00ls0ck3t/Polyglot/pkg/provider/stt/mock"
	vadmock "github.com/b00ls0ck3t/Polyglot/pkg/provider/vad/mock"
)

// memChannel records every event in memory.
type memChannel struct {
	mu     sync.Mutex
	events []transport.Event
}

func (c *memChannel) Send(_ context.Context, ev transport.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *memChannel) Close() error { return nil }

func (c *memChannel) snapshot() []transport.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]transport.Event(nil), c.events...)
}

// toneDevice produces endless non-silent frames.
type toneDevice struct{ closed bool }

func (d *toneDevice) Read(frame []int16) error {
	time.Sleep(time.Millisecond)
	for i := range frame {
		frame[i] = 5000
	}
	return nil
}

func (d *toneDevice) Close() error {
	d.closed = true
	return nil
}

// testConfig returns a config sized so one capture frame is one chunk.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.SampleRate = 1024
	cfg.Audio.ChunkSeconds = 1
	cfg.Transport.URL = ""
	cfg.Server.MetricsAddr = ""
	return cfg
}

func TestNew_RequiresTranscriber(t *testing.T) {
	_, err := New(context.Background(), testConfig(), &Providers{})
	if !errors.Is(err, ErrNoTranscriber) {
		t.Fatalf("error = %v, want ErrNoTranscriber", err)
	}
	_, err = New(context.Background(), testConfig(), nil)
	if !errors.Is(err, ErrNoTranscriber) {
		t.Fatalf("error = %v, want ErrNoTranscriber", err)
	}
}

func TestNew_ClusteringWithoutEmbeddingDegrades(t *testing.T) {
	cfg := testConfig()
	cfg.Diarization.Method = config.DiarizationClustering

	a, err := New(context.Background(), cfg, &Providers{STT: &sttmock.Transcriber{}},
		WithDevice(&toneDevice{}),
		WithSink(pipeline.NopSink{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Shutdown(context.Background())
	if a.identifier != nil {
		t.Error("identifier should not be built without an embedding provider")
	}
}

func TestNew_PretrainedNeedsInjectedDiarizer(t *testing.T) {
	cfg := testConfig()
	cfg.Diarization.Method = config.DiarizationPretrained

	_, err := New(context.Background(), cfg, &Providers{STT: &sttmock.Transcriber{}},
		WithDevice(&toneDevice{}))
	if err == nil {
		t.Fatal("expected error for pretrained method without WithDiarizer")
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Diarization.Method = config.DiarizationClustering

	sttP := &sttmock.Transcriber{Result: "hello there"}
	vadP := &vadmock.Model{Probability: 0.9}
	embP := &embeddingmock.Extractor{Vector: []float32{1, 0, 0}}
	ch := &memChannel{}
	dev := &toneDevice{}

	a, err := New(context.Background(), cfg,
		&Providers{STT: sttP, VAD: vadP, Embedding: embP},
		WithChannel(ch),
		WithDevice(dev),
		WithSink(pipeline.NopSink{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Wait until at least one live event got through.
	deadline := time.Now().Add(5 * time.Second)
	for len(ch.snapshot()) == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("no events observed before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !dev.closed {
		t.Error("device was not closed on shutdown")
	}

	events := ch.snapshot()
	var sawLive, sawTranslate bool
	for _, ev := range events {
		switch ev.Type {
		case transport.EventTranscription:
			sawLive = true
			if ev.Text != "hello there" {
				t.Errorf("live text = %q", ev.Text)
			}
			if ev.Speaker != "SPEAKER_00" {
				t.Errorf("live speaker = %q, want SPEAKER_00", ev.Speaker)
			}
		case transport.EventTranslate:
			sawTranslate = true
		}
	}
	if !sawLive {
		t.Error("no live transcription event observed")
	}
	// The shutdown flush sends the batched translation request.
	if !sawTranslate {
		t.Error("no translation event observed after shutdown flush")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	a, err := New(context.Background(), testConfig(),
		&Providers{STT: &sttmock.Transcriber{}},
		WithDevice(&toneDevice{}),
		WithSink(pipeline.NopSink{}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
