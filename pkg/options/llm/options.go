// Package llm provides AI gateway provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/campus-io/study-buddy/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions configures the embedding/completion provider.
type ProviderOptions struct {
	// Provider is the registered provider name.
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the gateway base address.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey authenticates against the gateway. Prefer the
	// GATEWAY_API_KEY environment variable over the flag.
	APIKey string `json:"-" mapstructure:"api-key"`

	// EmbedModel is the embeddings model name.
	EmbedModel string `json:"embed-model" mapstructure:"embed-model"`

	// ChatModel is the completion model name.
	ChatModel string `json:"chat-model" mapstructure:"chat-model"`

	// EmbedDimensions is the requested embedding dimensionality.
	EmbedDimensions int `json:"embed-dimensions" mapstructure:"embed-dimensions"`

	// Timeout bounds embeddings calls and the primary stream transport.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// FallbackTimeout bounds the raw fallback stream transport.
	FallbackTimeout time.Duration `json:"fallback-timeout" mapstructure:"fallback-timeout"`
}

// NewProviderOptions creates default provider options.
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:        "gateway",
		BaseURL:         "https://api.openai.com/v1",
		EmbedModel:      "text-embedding-3-small",
		ChatModel:       "gpt-4o-mini",
		EmbedDimensions: 1536,
		Timeout:         120 * time.Second,
		FallbackTimeout: 90 * time.Second,
	}
}

// ToConfigMap converts the options into a provider-factory config map.
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":         o.BaseURL,
		"api_key":          o.APIKey,
		"embed_model":      o.EmbedModel,
		"chat_model":       o.ChatModel,
		"embed_dimensions": o.EmbedDimensions,
		"timeout":          o.Timeout,
		"fallback_timeout": o.FallbackTimeout,
	}
}

// AddFlags adds flags for provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Provider, options.Join(prefixes...)+"llm.provider", o.Provider, "LLM provider name.")
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"llm.base-url", o.BaseURL, "AI gateway base URL.")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"llm.api-key", o.APIKey, "AI gateway API key (DEPRECATED: use GATEWAY_API_KEY env var instead).")
	fs.StringVar(&o.EmbedModel, options.Join(prefixes...)+"llm.embed-model", o.EmbedModel, "Embeddings model name.")
	fs.StringVar(&o.ChatModel, options.Join(prefixes...)+"llm.chat-model", o.ChatModel, "Completion model name.")
	fs.IntVar(&o.EmbedDimensions, options.Join(prefixes...)+"llm.embed-dimensions", o.EmbedDimensions, "Requested embedding dimensionality.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"llm.timeout", o.Timeout, "Request timeout for embeddings and the primary stream transport.")
	fs.DurationVar(&o.FallbackTimeout, options.Join(prefixes...)+"llm.fallback-timeout", o.FallbackTimeout, "Request timeout for the raw fallback stream transport.")
}

// Validate validates the provider options. The API key is deliberately
// not required here; providers check it lazily so the service can boot
// without credentials.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	if o.APIKey == "" {
		o.APIKey = os.Getenv("GATEWAY_API_KEY")
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("llm provider is required"))
	}
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("llm base-url is required"))
	}
	if o.EmbedDimensions <= 0 {
		errs = append(errs, fmt.Errorf("llm embed-dimensions must be positive"))
	}
	return errs
}
