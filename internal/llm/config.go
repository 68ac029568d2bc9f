package llm

import (
	"fmt"
	"time"

	"github.com/onehub-labs/onehub/internal/store"
)

// Config is a typed view of a stored provider row.
type Config struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        ProviderType `json:"provider_type"`
	APIKey      *string      `json:"api_key,omitempty"`
	APIBase     *string      `json:"api_base,omitempty"`
	Model       string       `json:"model"`
	MaxTokens   *int         `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	Enabled     bool         `json:"enabled"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ConfigFromRecord converts a stored provider row into a typed config.
func ConfigFromRecord(rec *store.Provider) (Config, error) {
	t, err := ParseProviderType(rec.ProviderType)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ID:          rec.ID,
		Name:        rec.Name,
		Type:        t,
		APIKey:      rec.APIKey,
		APIBase:     rec.APIBase,
		Model:       rec.Model,
		MaxTokens:   rec.MaxTokens,
		Temperature: rec.Temperature,
		Enabled:     rec.Enabled,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

// Validate checks the config against the provider type's requirements.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if _, err := ParseProviderType(string(c.Type)); err != nil {
		return err
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.Type.RequiresAPIKey() && (c.APIKey == nil || *c.APIKey == "") {
		return fmt.Errorf("an API key is required for %s", c.Type.DisplayName())
	}

	// Custom providers have no stock endpoint to fall back to.
	if c.Type == ProviderCustom && c.EffectiveAPIBase() == "" {
		return fmt.Errorf("an API base URL is required for custom providers")
	}

	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *c.Temperature)
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", *c.MaxTokens)
	}

	return nil
}

// EffectiveAPIBase returns the configured endpoint, falling back to the
// provider type's default.
func (c Config) EffectiveAPIBase() string {
	if c.APIBase != nil && *c.APIBase != "" {
		return *c.APIBase
	}
	return c.Type.DefaultAPIBase()
}
