package embeddings

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type httpProvider struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	dim     int
}

// NewHTTP constructs a provider backed by a remote feature extractor
// (for example a ResNet50 sidecar).
//
// It uses the REST endpoint:
//
//	POST {baseURL}/embed
//
// with JSON body:
//
//	{"model": "...", "image": "<base64 PNG, 224x224>"}
//
// and accepts either {"embedding": [...]} or {"data": [{"embedding": [...]}]}.
func NewHTTP(cfg *Config) Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &httpProvider{
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
		dim:     0,
	}
}

func (p *httpProvider) ModelID() string {
	if p.model == "" {
		return "http:default"
	}
	return "http:" + p.model
}

func (p *httpProvider) Dim() int {
	return p.dim
}

func (p *httpProvider) Embed(ctx context.Context, img image.Image) ([]float32, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("embeddings base URL is not configured (set PRICEMATCH_EMBEDDINGS_BASE_URL)")
	}
	if img == nil {
		return nil, fmt.Errorf("cannot embed nil image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Prepare(img)); err != nil {
		return nil, fmt.Errorf("cannot encode image: %w", err)
	}
	reqBody := map[string]any{
		"model": p.model,
		"image": base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Embedding []float64 `json:"embedding"`
		Data      []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse embeddings response: %w", err)
	}
	emb64 := parsed.Embedding
	if len(emb64) == 0 && len(parsed.Data) > 0 {
		emb64 = parsed.Data[0].Embedding
	}
	if len(emb64) == 0 {
		return nil, fmt.Errorf("embeddings response missing embedding")
	}

	out := make([]float32, len(emb64))
	for i, v := range emb64 {
		out[i] = float32(v)
	}
	p.dim = len(out)
	return out, nil
}
