// Command polyglot is the main entry point for the Polyglot real-time
// speech translation pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/b00ls0ck3t/Polyglot/internal/app"
	"github.com/b00ls0ck3t/Polyglot/internal/config"
	"github.com/b00ls0ck3t/Polyglot/internal/observe"
	"github.com/b00ls0ck3t/Polyglot/internal/resilience"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding/ecapa"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
	sttnative "github.com/b00ls0ck3t/Polyglot/pkg/provider/stt/native"
	sttopenai "github.com/b00ls0ck3t/Polyglot/pkg/provider/stt/openai"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt/whispercli"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/vad"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/vad/energy"
)

func main() {
	os.Exit(run())
}

func run() int {
	// CLI flags.
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	profileName := flag.String("profile", "", "preset overriding model, chunking, and diarization (speed|accuracy)")
	diarization := flag.String("diarization", "", "override the diarization method (none|pretrained|clustering)")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "polyglot: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "polyglot: %v\n", err)
		}
		return 1
	}

	// Flag overrides, applied on top of the file.
	if *profileName != "" {
		p := config.Profile(*profileName)
		if !p.IsValid() {
			fmt.Fprintf(os.Stderr, "polyglot: unknown profile %q (valid: speed, accuracy)\n", *profileName)
			return 1
		}
		cfg.ApplyProfile(p)
	}
	if *diarization != "" {
		m := config.DiarizationMethod(*diarization)
		if !m.IsValid() {
			fmt.Fprintf(os.Stderr, "polyglot: unknown diarization method %q (valid: none, pretrained, clustering)\n", *diarization)
			return 1
		}
		cfg.Diarization.Method = m
	}

	// Logger.
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	slog.Info("polyglot starting",
		"config", *configPath,
		"profile", *profileName,
		"log_level", cfg.Server.LogLevel,
	)

	// Signal context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics provider.
	metricsShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "polyglot"})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(sctx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// Provider registry.
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("pipeline ready, press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		application.Shutdown(context.Background())
		return 1
	}

	// Graceful shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	sampleRate := cfg.Audio.SampleRate

	// STT.

	reg.RegisterSTT("whispercli", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []whispercli.Option
		if path := optString(entry.Options, "binary_path"); path != "" {
			opts = append(opts, whispercli.WithBinaryPath(path))
		}
		if path := optString(entry.Options, "model_path"); path != "" {
			opts = append(opts, whispercli.WithModelPath(path))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whispercli.WithLanguage(lang))
		}
		opts = append(opts, whispercli.WithSampleRate(sampleRate))
		return whispercli.New(entry.Model, opts...)
	})

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []sttopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, sttopenai.WithLanguage(lang))
		}
		opts = append(opts, sttopenai.WithSampleRate(sampleRate))
		return sttopenai.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterSTT("native", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		modelPath := optString(entry.Options, "model_path")
		if modelPath == "" {
			modelPath = entry.Model
		}
		var opts []sttnative.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, sttnative.WithLanguage(lang))
		}
		return sttnative.New(modelPath, opts...)
	})

	// VAD.

	reg.RegisterVAD("energy", func(entry config.ProviderEntry) (vad.Model, error) {
		var opts []energy.Option
		if f := optFloat(entry.Options, "noise_floor"); f > 0 {
			opts = append(opts, energy.WithNoiseFloor(f))
		}
		if f := optFloat(entry.Options, "speech_rms"); f > 0 {
			opts = append(opts, energy.WithSpeechRMS(f))
		}
		return energy.New(opts...), nil
	})

	// Embedding.

	reg.RegisterEmbedding("ecapa", func(entry config.ProviderEntry) (embedding.Extractor, error) {
		return ecapa.New(entry.BaseURL, ecapa.WithSampleRate(sampleRate))
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		}
		ps.STT = p
		slog.Info("provider created", "kind", "stt", "name", name, "model", cfg.Providers.STT.Model)
	}

	if name := cfg.Providers.STTFallback.Name; name != "" && ps.STT != nil {
		fb, err := reg.CreateSTT(cfg.Providers.STTFallback)
		if err != nil {
			return nil, fmt.Errorf("create stt fallback provider %q: %w", name, err)
		}
		ft := resilience.NewFallbackTranscriber(ps.STT, cfg.Providers.STT.Name, resilience.BreakerConfig{})
		ft.AddFallback(name, fb)
		ps.STT = ft
		slog.Info("provider created", "kind", "stt_fallback", "name", name, "model", cfg.Providers.STTFallback.Model)
	}

	if name := cfg.Providers.VAD.Name; name != "" {
		p, err := reg.CreateVAD(cfg.Providers.VAD)
		if err != nil {
			return nil, fmt.Errorf("create vad provider %q: %w", name, err)
		}
		ps.VAD = p
		slog.Info("provider created", "kind", "vad", "name", name)
	}

	if name := cfg.Providers.Embedding.Name; name != "" {
		p, err := reg.CreateEmbedding(cfg.Providers.Embedding)
		if err != nil {
			return nil, fmt.Errorf("create embedding provider %q: %w", name, err)
		}
		ps.Embedding = p
		slog.Info("provider created", "kind", "embedding", "name", name)
	}

	return ps, nil
}

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Polyglot startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("VAD", cfg.Providers.VAD.Name, "")
	printProvider("Embedding", cfg.Providers.Embedding.Name, "")
	fmt.Printf("║  Chunk duration  : %-19s ║\n", fmt.Sprintf("%.1fs", cfg.Audio.ChunkSeconds))
	fmt.Printf("║  Sample rate     : %-19d ║\n", cfg.Audio.SampleRate)
	fmt.Printf("║  Diarization     : %-19s ║\n", cfg.Diarization.Method)
	if cfg.Transport.URL != "" {
		fmt.Printf("║  Downstream      : %-19s ║\n", trim(cfg.Transport.URL, 19))
	} else {
		fmt.Printf("║  Downstream      : %-19s ║\n", "(disabled)")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, trim(value, 19))
}

func trim(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "…"
	}
	return s
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map.
// Returns "" if the map is nil, the key is absent, or the value is not a
// string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optFloat extracts a numeric value from a provider Options map. YAML
// decodes whole numbers as int, so both forms are accepted.
func optFloat(opts map[string]any, key string) float64 {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
