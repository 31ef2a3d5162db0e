package ai

import (
	"errors"

	"github.com/hrygo/mailsense/internal/profile"
)

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string // openai, siliconflow, ollama
	Model      string // all-mpnet-base-v2
	Dimensions int    // 768
	APIKey     string
	BaseURL    string
	// RequestsPerMinute caps outgoing embedding calls; 0 disables limiting.
	RequestsPerMinute int
}

// NewEmbeddingConfigFromProfile creates embedding config from profile.
func NewEmbeddingConfigFromProfile(p *profile.Profile) *EmbeddingConfig {
	return &EmbeddingConfig{
		Provider:          p.EmbeddingProvider,
		Model:             p.EmbeddingModel,
		Dimensions:        p.EmbeddingDimensions,
		APIKey:            p.EmbeddingAPIKey,
		BaseURL:           p.EmbeddingBaseURL,
		RequestsPerMinute: p.EmbeddingRPM,
	}
}

// Validate checks the embedding configuration.
func (c *EmbeddingConfig) Validate() error {
	if c.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	switch c.Provider {
	case "openai", "siliconflow":
		if c.APIKey == "" {
			return errors.New("embedding API key is required")
		}
	case "ollama":
		if c.BaseURL == "" {
			return errors.New("ollama base URL is required")
		}
	default:
		return errors.New("unsupported embedding provider: " + c.Provider)
	}
	return nil
}
