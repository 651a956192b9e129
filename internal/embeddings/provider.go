package embeddings

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"github.com/kamusis/pricematch/internal/config"
)

// Provider embeds an image into a fixed-length float vector.
//
// Implementations must be deterministic for the same image and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, img image.Image) ([]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	RPS      float64 // requests per second for remote providers, 0 = unlimited
}

// LoadConfig resolves embeddings config from environment variables first, then ~/.pricematch/.env.
func LoadConfig() (*Config, error) {
	provider, err := config.GetConfigValue("PRICEMATCH_EMBEDDINGS_PROVIDER")
	if err != nil {
		return nil, err
	}
	model, err := config.GetConfigValue("PRICEMATCH_EMBEDDINGS_MODEL")
	if err != nil {
		return nil, err
	}
	apiKey, err := config.GetConfigValue("PRICEMATCH_EMBEDDINGS_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL, err := config.GetConfigValue("PRICEMATCH_EMBEDDINGS_BASE_URL")
	if err != nil {
		return nil, err
	}
	rpsRaw, err := config.GetConfigValue("PRICEMATCH_EMBEDDINGS_RPS")
	if err != nil {
		return nil, err
	}

	if provider == "" {
		provider = "pixel"
	}
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8500"
	}
	var rps float64
	if rpsRaw != "" {
		rps, err = strconv.ParseFloat(rpsRaw, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("invalid PRICEMATCH_EMBEDDINGS_RPS %q", rpsRaw)
		}
	}

	return &Config{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
		RPS:      rps,
	}, nil
}

// NewFromConfig returns an embeddings provider.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	switch cfg.Provider {
	case "pixel":
		return NewPixel(), nil
	case "http":
		return NewHTTP(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}
