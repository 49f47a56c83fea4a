// Package ecapa provides an embedding.Extractor backed by an ECAPA-TDNN
// embedding server.
//
// The server (typically a small SpeechBrain wrapper) exposes POST /embed,
// accepts a WAV file as multipart/form-data, and responds with a JSON body
// of the form {"embedding": [..]}. The extractor normalizes the returned
// vector to unit length so that cosine similarity reduces to a dot product
// downstream.
package ecapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding"
	"github.com/b00ls0ck3t/Polyglot/pkg/wav"
)

// DefaultTimeout bounds a single embedding request.
const DefaultTimeout = 10 * time.Second

// Compile-time assertion that Extractor implements embedding.Extractor.
var _ embedding.Extractor = (*Extractor)(nil)

// Extractor implements embedding.Extractor against an ECAPA embedding
// server.
type Extractor struct {
	serverURL  string
	sampleRate int
	httpClient *http.Client
}

// Option is a functional option for configuring an Extractor.
type Option func(*Extractor)

// WithSampleRate sets the sample rate of chunks passed to Extract.
// Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(e *Extractor) { e.sampleRate = rate }
}

// WithHTTPClient replaces the default HTTP client. Useful for tests and for
// custom timeout or transport settings.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.httpClient = c }
}

// New creates an Extractor that talks to the embedding server at serverURL
// (e.g., "http://localhost:8091").
func New(serverURL string, opts ...Option) (*Extractor, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ecapa: serverURL must not be empty")
	}
	e := &Extractor{
		serverURL:  serverURL,
		sampleRate: 16000,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Extract encodes pcm as a WAV file, POSTs it to the /embed endpoint as
// multipart/form-data, and returns the unit-normalized embedding vector.
func (e *Extractor) Extract(ctx context.Context, pcm []int16) ([]float32, error) {
	wavData, err := wav.Bytes(pcm, e.sampleRate)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return nil, fmt.Errorf("ecapa: create form file: %w", err)
	}
	if _, err := fw.Write(wavData); err != nil {
		return nil, fmt.Errorf("ecapa: write wav data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("ecapa: close multipart writer: %w", err)
	}

	endpoint := e.serverURL + "/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("ecapa: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ecapa: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ecapa: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ecapa: read response body: %w", err)
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("ecapa: parse JSON response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, nil
	}
	return normalize(result.Embedding), nil
}

// normalize scales v to unit length. A zero vector is returned unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
