package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
	"github.com/b00ls0ck3t/Polyglot/pkg/provider/vad"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	stt       map[string]func(ProviderEntry) (stt.Transcriber, error)
	vad       map[string]func(ProviderEntry) (vad.Model, error)
	embedding map[string]func(ProviderEntry) (embedding.Extractor, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		stt:       make(map[string]func(ProviderEntry) (stt.Transcriber, error)),
		vad:       make(map[string]func(ProviderEntry) (vad.Model, error)),
		embedding: make(map[string]func(ProviderEntry) (embedding.Extractor, error)),
	}
}

// RegisterSTT registers a transcriber factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Transcriber, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterVAD registers a speech-probability model factory under name.
func (r *Registry) RegisterVAD(name string, factory func(ProviderEntry) (vad.Model, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vad[name] = factory
}

// RegisterEmbedding registers a voice-embedding extractor factory under name.
func (r *Registry) RegisterEmbedding(name string, factory func(ProviderEntry) (embedding.Extractor, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedding[name] = factory
}

// CreateSTT instantiates a transcriber using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateVAD instantiates a speech-probability model using the factory
// registered under entry.Name.
func (r *Registry) CreateVAD(entry ProviderEntry) (vad.Model, error) {
	r.mu.RLock()
	factory, ok := r.vad[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: vad/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateEmbedding instantiates a voice-embedding extractor using the
// factory registered under entry.Name.
func (r *Registry) CreateEmbedding(entry ProviderEntry) (embedding.Extractor, error) {
	r.mu.RLock()
	factory, ok := r.embedding[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: embedding/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
