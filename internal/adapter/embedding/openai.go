package embedding

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"photomatch/internal/domain"
	"photomatch/internal/port"
)

// HTTPEmbedder talks to an OpenAI-compatible /embeddings endpoint served
// by a CLIP-style image model (a local clip-server, Ollama, or a hosted
// provider). Images are sent base64-encoded as PNG.
//
// Readiness is process-wide and lazy: the first Ready call probes the
// endpoint once, every caller that arrives during the probe waits on the
// same attempt, and a successful probe is never repeated.
type HTTPEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	client    *http.Client

	mu    sync.Mutex
	state port.ProviderState
	init  *initAttempt
}

type initAttempt struct {
	done chan struct{}
	err  error
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewHTTPEmbedder creates an embedder against baseURL. apiKeyEnv may be
// empty for unauthenticated local servers; otherwise the key is read
// from that environment variable.
func NewHTTPEmbedder(baseURL, model, apiKeyEnv string, dimension int) (*HTTPEmbedder, error) {
	var apiKey string
	if apiKeyEnv != "" {
		apiKey = os.Getenv(apiKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
		}
	}

	return &HTTPEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Ready performs the one-time readiness transition. A failed attempt
// resets the provider to NotReady so a later call can retry.
func (e *HTTPEmbedder) Ready() error {
	e.mu.Lock()
	if e.state == port.ProviderReady {
		e.mu.Unlock()
		return nil
	}
	if a := e.init; a != nil {
		e.mu.Unlock()
		<-a.done
		return a.err
	}
	a := &initAttempt{done: make(chan struct{})}
	e.init = a
	e.state = port.ProviderInitializing
	e.mu.Unlock()

	err := e.probe()

	e.mu.Lock()
	e.init = nil
	if err == nil {
		e.state = port.ProviderReady
	} else {
		e.state = port.ProviderNotReady
		a.err = fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	e.mu.Unlock()

	close(a.done)
	return a.err
}

// probe checks that the endpoint answers at all. Auth and model errors
// surface on the first Embed; a 5xx or connection failure fails here.
func (e *HTTPEmbedder) probe() error {
	req, err := http.NewRequest("GET", e.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (e *HTTPEmbedder) Embed(img domain.Image) ([]float32, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}

	encoded, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	reqBody := embeddingRequest{
		Input: []string{base64.StdEncoding.EncodeToString(encoded)},
		Model: e.model,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrEmbeddingUnavailable, err)
	}

	var result embeddingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("%w: API error: %s", domain.ErrEmbeddingUnavailable, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrEmbeddingUnavailable, resp.StatusCode)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", domain.ErrEmbeddingUnavailable)
	}

	vec := result.Data[0].Embedding
	if e.dimension > 0 && len(vec) != e.dimension {
		return nil, fmt.Errorf("%w: provider returned %d-dim vector, expected %d",
			domain.ErrEmbeddingUnavailable, len(vec), e.dimension)
	}
	return vec, nil
}

func (e *HTTPEmbedder) Dimension() int {
	return e.dimension
}

func (e *HTTPEmbedder) ModelName() string {
	return e.model
}

func (e *HTTPEmbedder) State() port.ProviderState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func encodePNG(img domain.Image) ([]byte, error) {
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) < 4*img.Width*img.Height {
		return nil, fmt.Errorf("invalid image: %dx%d with %d pixel bytes", img.Width, img.Height, len(img.Pix))
	}
	nrgba := &image.NRGBA{
		Pix:    img.Pix,
		Stride: 4 * img.Width,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
