// Package pipeline implements the per-chunk processing state machine that
// turns captured audio into speaker-attributed, buffered text.
//
// One Pipeline instance is driven by a single consumer goroutine ([Run]):
// it pops one chunk at a time, gates it through VAD, dispatches
// transcription and diarization concurrently, attributes the chunk to a
// speaker, and accumulates text into the current [SpeakerBuffer] until a
// flush condition fires. Chunk processing is strictly sequential across
// chunks (at most one chunk is in flight), but the transcription and
// diarization calls for that chunk run in parallel.
//
// All mutable pipeline state (current buffer, silence tracking, speaker
// profiles reachable through the diarizer) is owned by the consumer
// goroutine, so none of it is locked.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/b00ls0ck3t/Polyglot/internal/diarize"
	"github.com/b00ls0ck3t/Polyglot/internal/transport"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
)

// DefaultTranscribeTimeout bounds the external transcription call per
// chunk. A timed-out chunk is treated as empty text, not as a failure.
const DefaultTranscribeTimeout = 30 * time.Second

// pollInterval is how long the consumer sleeps when the chunk queue is
// empty.
const pollInterval = 100 * time.Millisecond

// ChunkSource supplies captured audio chunks to the consumer loop.
type ChunkSource interface {
	// Poll returns the next chunk, or ok=false when none is queued.
	// It must never block.
	Poll() (chunk []int16, ok bool)
}

// Config holds the pipeline tuning parameters.
type Config struct {
	// Policy holds the buffer flush thresholds.
	Policy FlushPolicy

	// SilenceFlush is how much continuous non-speech audio forces a
	// buffer flush. Zero selects the policy's MaxIdle.
	SilenceFlush time.Duration

	// TranscribeTimeout bounds each transcription call. Zero selects
	// DefaultTranscribeTimeout.
	TranscribeTimeout time.Duration
}

// Pipeline is the per-chunk orchestrator.
type Pipeline struct {
	cfg         Config
	gate        *Gate
	transcriber stt.Transcriber
	diarizer    diarize.Diarizer
	channel     transport.Channel
	sink        Sink

	now func() time.Time

	// Consumer-loop state. Touched only by the goroutine running Run (or
	// by ProcessChunk in tests).
	current      *SpeakerBuffer
	lastSpeechAt time.Time
}

// Option is a functional option for New. Use these to inject test hooks.
type Option func(*Pipeline)

// WithClock replaces the wall clock, making age/idle predicates
// deterministic in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithSink registers a state-transition sink. Defaults to LogSink.
func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// New creates a Pipeline. transcriber must be non-nil; gate, diarizer and
// channel degrade gracefully (fail-open gate, no attribution, dropped
// events) when their backends are absent, per the configured values.
func New(cfg Config, gate *Gate, transcriber stt.Transcriber, diarizer diarize.Diarizer, channel transport.Channel, opts ...Option) *Pipeline {
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = DefaultTranscribeTimeout
	}
	if cfg.SilenceFlush <= 0 {
		cfg.SilenceFlush = cfg.Policy.MaxIdle
	}
	p := &Pipeline{
		cfg:         cfg,
		gate:        gate,
		transcriber: transcriber,
		diarizer:    diarizer,
		channel:     channel,
		sink:        LogSink{},
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.lastSpeechAt = p.now()
	return p
}

// Run drives the consumer loop until ctx is cancelled: pop one chunk from
// src, process it to completion, repeat. An empty queue is polled with a
// short sleep rather than a busy-wait. On cancellation any chunk already
// in flight finishes, a non-empty buffer is force-flushed with reason
// "shutdown", and Run returns.
func (p *Pipeline) Run(ctx context.Context, src ChunkSource) error {
	for {
		select {
		case <-ctx.Done():
			p.Flush(context.Background(), "shutdown")
			return ctx.Err()
		default:
		}

		chunk, ok := src.Poll()
		if !ok {
			select {
			case <-time.After(pollInterval):
			case <-ctx.Done():
			}
			continue
		}
		p.safeProcess(ctx, chunk)
	}
}

// safeProcess runs ProcessChunk with a panic guard so that a single bad
// chunk can never take down the consumer loop.
func (p *Pipeline) safeProcess(ctx context.Context, chunk []int16) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("chunk processing panicked, chunk abandoned", "panic", r)
		}
	}()
	p.ProcessChunk(ctx, chunk)
}

// ProcessChunk runs one chunk through the full state machine. It never
// returns an error: every per-chunk failure is logged and recovered
// locally so the stream keeps flowing.
func (p *Pipeline) ProcessChunk(ctx context.Context, chunk []int16) {
	now := p.now()

	// 1. Gate.
	gateStart := time.Now()
	speech := p.gate.ContainsSpeech(chunk)
	p.sink.StageCompleted("vad", time.Since(gateStart))
	p.sink.ChunkGated(speech)
	if !speech {
		// Only the continuous-silence counter matters here; the buffer
		// thresholds are re-evaluated when speech resumes.
		if now.Sub(p.lastSpeechAt) >= p.cfg.SilenceFlush {
			p.Flush(ctx, "silence timeout")
			p.lastSpeechAt = now
		}
		return
	}

	// 2. Speech detected: reset silence tracking.
	p.lastSpeechAt = now

	// 3. Dispatch transcription and diarization concurrently. Neither may
	// block the other, and a failure on one side must not cancel the
	// other, so errors are captured rather than returned to the group.
	// The work context is detached from run-loop cancellation: a chunk
	// already dispatched finishes and its text reaches the shutdown flush.
	work := context.WithoutCancel(ctx)
	var (
		text string
		att  diarize.Attribution

		transcribeTime, diarizeTime time.Duration
	)
	var eg errgroup.Group
	eg.Go(func() error {
		tctx, cancel := context.WithTimeout(work, p.cfg.TranscribeTimeout)
		defer cancel()
		start := time.Now()
		t, err := p.transcriber.Transcribe(tctx, chunk)
		transcribeTime = time.Since(start)
		if err != nil {
			slog.Warn("transcription failed, treating chunk as empty", "error", err)
			return nil
		}
		text = t
		return nil
	})
	eg.Go(func() error {
		start := time.Now()
		a, err := p.diarizer.Diarize(work, chunk)
		diarizeTime = time.Since(start)
		if err != nil {
			slog.Warn("diarization failed, chunk left unattributed", "error", err)
			return nil
		}
		att = a
		return nil
	})
	_ = eg.Wait()
	p.sink.StageCompleted("transcribe", transcribeTime)
	p.sink.StageCompleted("diarize", diarizeTime)

	// 4. Nothing recognised: no buffer mutation, no downstream event.
	if strings.TrimSpace(text) == "" {
		p.sink.ChunkDiscarded("empty transcription")
		return
	}

	// 5. Speaker assignment by cumulative spoken duration.
	speaker := att.DominantSpeaker()

	// 6. Live transcription event, fire-and-forget.
	p.send(work, transport.Event{
		Type:    transport.EventTranscription,
		Text:    text,
		Speaker: speaker,
	})

	// 7. Continuity: a speaker change closes the current buffer.
	if p.current == nil || p.current.Speaker != speaker {
		p.Flush(work, "speaker change")
		p.current = NewSpeakerBuffer(speaker, now)
		p.sink.BufferStarted(speaker)
	}

	// 8. Accumulate.
	p.current.Add(text, now)

	// 9. Threshold check; the reason lists every breached condition.
	if reasons := p.cfg.Policy.Reasons(p.current, now); len(reasons) > 0 {
		p.Flush(work, strings.Join(reasons, " | "))
	}
}

// Flush finalises the current buffer: the accumulated text is sent
// downstream as one batched translation request and the buffer is
// discarded. Flushing an absent or empty buffer is a no-op.
func (p *Pipeline) Flush(ctx context.Context, reason string) {
	if p.current == nil || p.current.ChunkCount() == 0 {
		p.current = nil
		return
	}

	buf := p.current
	p.current = nil

	p.send(ctx, transport.Event{
		Type:    transport.EventTranslate,
		Text:    buf.FullText(),
		Speaker: buf.Speaker,
	})
	p.sink.BufferFlushed(buf.Speaker, reason, buf.ChunkCount(), buf.CharCount())
}

// CurrentBuffer exposes the open buffer for tests and debugging; nil when
// no buffer is open.
func (p *Pipeline) CurrentBuffer() *SpeakerBuffer { return p.current }

// send delivers ev downstream, logging and swallowing any failure; event
// delivery is always best-effort from the pipeline's point of view.
func (p *Pipeline) send(ctx context.Context, ev transport.Event) {
	if p.channel == nil {
		return
	}
	err := p.channel.Send(ctx, ev)
	if err != nil {
		slog.Warn("downstream event dropped", "type", ev.Type, "error", err)
	}
	p.sink.EventSent(string(ev.Type), err == nil)
}
