// Package app wires all Polyglot subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the capture and processing loops, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithChannel,
// WithDevice, WithDiarizer, WithSink). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/b00ls0ck3t/Polyglot/internal/capture"
	"github.com/b00ls0ck3t/Polyglot/internal/config"
	"github.com/b00ls0ck3t/Polyglot/internal/diarize"
	"github.com/b00ls0ck3t/Polyglot/internal/health"
	"github.com/b00ls0ck3t/Polyglot/internal/observe"
	"github.com/b00ls0ck3t/Polyglot/internal/pipeline"
	"github.com/b00ls0ck3t/Polyglot/internal/transport"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/vad"
)

// ErrNoTranscriber is returned by New when no transcription provider is
// available. Without one the pipeline has nothing to do, so startup is
// refused rather than degraded.
var ErrNoTranscriber = errors.New("app: a transcription provider is required")

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	STT       stt.Transcriber
	VAD       vad.Model
	Embedding embedding.Extractor
}

// App owns all subsystem lifetimes and orchestrates the translation pipeline.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New and torn down in Shutdown.
	queue      *capture.Queue
	device     capture.Device
	loop       *capture.Loop
	channel    transport.Channel
	diarizer   diarize.Diarizer
	identifier *diarize.Identifier
	pipeline   *pipeline.Pipeline
	sink       pipeline.Sink
	metricsSrv *http.Server

	// closers are called in reverse order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
	stopErr  error
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithChannel injects a downstream event channel instead of dialling the
// configured websocket endpoint.
func WithChannel(ch transport.Channel) Option {
	return func(a *App) { a.channel = ch }
}

// WithDevice injects an audio input device instead of opening the default
// PortAudio input.
func WithDevice(d capture.Device) Option {
	return func(a *App) { a.device = d }
}

// WithDiarizer injects a diarizer instead of building one from the config.
// Required when diarization.method is "pretrained".
func WithDiarizer(d diarize.Diarizer) Option {
	return func(a *App) { a.diarizer = d }
}

// WithSink injects a pipeline sink instead of the default log+metrics pair.
func WithSink(s pipeline.Sink) Option {
	return func(a *App) { a.sink = s }
}

// New creates an App by wiring all subsystems together. The providers
// struct comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.STT == nil {
		return nil, ErrNoTranscriber
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
		queue:     capture.NewQueue(),
	}
	for _, o := range opts {
		o(a)
	}

	if a.sink == nil {
		a.sink = pipeline.MultiSink{pipeline.LogSink{}, observe.NewMetricsSink(nil)}
	}

	if err := a.initDiarizer(); err != nil {
		return nil, fmt.Errorf("app: init diarizer: %w", err)
	}
	if err := a.initChannel(ctx); err != nil {
		return nil, fmt.Errorf("app: init transport: %w", err)
	}
	if err := a.initCapture(); err != nil {
		return nil, fmt.Errorf("app: init capture: %w", err)
	}
	a.initPipeline()

	return a, nil
}

// initDiarizer builds the speaker-attribution stage from the configured
// method, unless one was injected.
func (a *App) initDiarizer() error {
	if a.diarizer != nil {
		return nil
	}

	switch method := a.cfg.Diarization.Method; method {
	case config.DiarizationNone, "":
		a.diarizer = diarize.None{}

	case config.DiarizationClustering:
		if a.providers.Embedding == nil {
			slog.Warn("clustering diarization needs an embedding provider, chunks will stay unattributed")
			a.diarizer = diarize.None{}
			return nil
		}
		a.identifier = diarize.NewIdentifier(diarize.IdentifierConfig{
			HighConfidence:    a.cfg.Clustering.HighConfidence,
			PendingThreshold:  a.cfg.Clustering.Pending,
			MinPendingSamples: a.cfg.Clustering.MinPendingSamples,
			DistanceThreshold: a.cfg.Clustering.DistanceThreshold,
			ProfileCap:        a.cfg.Clustering.ProfileCap,
		}, diarize.WithOnSpeakerCreated(a.sink.SpeakerPromoted))
		a.diarizer = diarize.NewClustering(a.providers.Embedding, a.identifier, a.cfg.Audio.SampleRate)

	case config.DiarizationPretrained:
		return errors.New("pretrained diarization requires an injected diarizer (WithDiarizer)")

	default:
		return fmt.Errorf("unknown diarization method %q", method)
	}
	return nil
}

// initChannel dials the downstream websocket unless a channel was injected.
// A failed dial leaves the channel in disconnected no-op mode; the pipeline
// still runs and logs locally.
func (a *App) initChannel(ctx context.Context) error {
	if a.channel != nil {
		return nil
	}
	if a.cfg.Transport.URL == "" {
		return nil
	}

	ws := transport.NewWSChannel(a.cfg.Transport.URL,
		transport.WithMaxRetries(a.cfg.Transport.MaxRetries),
		transport.WithRetryDelay(a.cfg.Transport.RetryDelay()),
	)
	if err := ws.Connect(ctx); err != nil {
		slog.Warn("downstream service unavailable, events will be dropped", "error", err)
	}
	a.channel = ws
	a.closers = append(a.closers, ws.Close)
	return nil
}

// initCapture opens the input device (unless injected) and builds the
// capture loop feeding the chunk queue.
func (a *App) initCapture() error {
	if a.device == nil {
		dev, err := capture.OpenDefaultDevice(a.cfg.Audio.SampleRate)
		if err != nil {
			return err
		}
		a.device = dev
	}
	a.closers = append(a.closers, a.device.Close)

	loop, err := capture.NewLoop(a.device, a.queue, a.cfg.Audio.ChunkSamples())
	if err != nil {
		return err
	}
	a.loop = loop
	return nil
}

// initPipeline assembles the per-chunk state machine.
func (a *App) initPipeline() {
	gate := pipeline.NewGate(a.providers.VAD, a.cfg.VAD.Threshold)
	a.pipeline = pipeline.New(
		pipeline.Config{
			Policy: pipeline.FlushPolicy{
				MaxAge:   a.cfg.Buffer.MaxAge(),
				MaxChars: a.cfg.Buffer.MaxChars,
				MaxIdle:  a.cfg.Buffer.MaxIdle(),
			},
		},
		gate,
		a.providers.STT,
		a.diarizer,
		a.channel,
		pipeline.WithSink(a.sink),
	)
}

// Run starts the capture producer and the processing consumer and blocks
// until ctx is cancelled or the capture device fails. The queue depth gauge
// and the optional metrics endpoint are live for the duration.
func (a *App) Run(ctx context.Context) error {
	slog.Info("polyglot running",
		"chunk_seconds", a.cfg.Audio.ChunkSeconds,
		"sample_rate", a.cfg.Audio.SampleRate,
		"diarization", a.cfg.Diarization.Method,
		"model", a.cfg.Providers.STT.Model,
	)

	reg, err := observe.DefaultMetrics().ObserveQueueDepth(a.queue.Len)
	if err != nil {
		slog.Warn("queue-depth gauge not registered", "error", err)
	} else {
		defer reg.Unregister()
	}

	a.startMetricsServer()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.loop.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("app: capture stopped: %w", err)
	})
	g.Go(func() error {
		return a.pipeline.Run(ctx, a.queue)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// maxQueueBacklog is the chunk backlog beyond which the readiness probe
// reports the pipeline as falling behind capture.
const maxQueueBacklog = 30

// startMetricsServer serves the Prometheus scrape endpoint and the health
// probes when configured.
func (a *App) startMetricsServer() {
	addr := a.cfg.Server.MetricsAddr
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observe.MetricsHandler())

	checkers := []health.Checker{
		health.QueueBacklog(a.queue.Len, maxQueueBacklog),
	}
	if hc, ok := a.channel.(interface{ Connected() bool }); ok {
		checkers = append(checkers, health.Downstream(hc))
	}
	health.New(checkers...).Register(mux)
	srv := &http.Server{Addr: addr, Handler: mux}
	a.metricsSrv = srv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics endpoint failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("metrics endpoint listening", "addr", addr)
}

// Shutdown releases all resources in reverse initialisation order. Safe to
// call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		var errs []error
		if a.metricsSrv != nil {
			sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := a.metricsSrv.Shutdown(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		a.stopErr = errors.Join(errs...)
	})
	return a.stopErr
}

// Queue exposes the chunk queue for tests.
func (a *App) Queue() *capture.Queue { return a.queue }

// Pipeline exposes the chunk pipeline for tests.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }
