package embedpool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvider calls an already-running embedding HTTP endpoint, the JSON
// request/response shape adapted from the teacher's embed/client package
// but without that package's binary-download-and-supervise lifecycle: this
// provider expects the endpoint to already be reachable, leaving process
// management to whatever deploys it.
type HTTPProvider struct {
	endpoint string
	dims     int
	client   *http.Client
}

// NewHTTPProvider returns a Provider backed by endpoint, which must accept
// POST requests at /embed and return {"embeddings": [[...]]}.
func NewHTTPProvider(endpoint string, dims int) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		dims:     dims,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed implements Provider.
func (p *HTTPProvider) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts, Mode: string(mode)})
	if err != nil {
		return nil, fmt.Errorf("embedpool: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedpool: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedpool: embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedpool: embed endpoint returned %d: %s", resp.StatusCode, msg)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedpool: decode response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedpool: expected %d embeddings, got %d", len(texts), len(out.Embeddings))
	}
	return out.Embeddings, nil
}

// Dimensions implements Provider.
func (p *HTTPProvider) Dimensions() int { return p.dims }

// Close implements Provider. The HTTP client owns no resources that need
// releasing.
func (p *HTTPProvider) Close() error { return nil }
