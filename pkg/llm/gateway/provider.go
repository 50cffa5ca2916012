// Package gateway implements an OpenAI-compatible AI gateway provider.
// It serves both embeddings and streaming chat completions, and carries
// a raw-HTTP fallback transport for deployments where the gateway sits
// behind a campus network boundary.
package gateway

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campus-io/study-buddy/pkg/llm"
	"github.com/campus-io/study-buddy/pkg/utils/json"
)

// ProviderName identifies this provider in the registry.
const ProviderName = "gateway"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// embedBatchSize is the maximum number of inputs per embeddings call.
const embedBatchSize = 100

// upstreamBodyLimit bounds how much of an error body is kept.
const upstreamBodyLimit = 300

// noResponseMessage is emitted when a stream completes without content.
const noResponseMessage = "No response from AI. Please try again."

// networkGuidance replaces raw connectivity errors with actionable text.
const networkGuidance = "Cannot connect to the AI gateway.\n\n" +
	"The gateway is only reachable from the campus network. To use the chat:\n\n" +
	"1. Connect to the campus VPN (if off-campus)\n" +
	"2. Or use the app while on the campus network\n\n" +
	"If you are already connected, please check your VPN connection and try again."

// Config configures the gateway provider.
type Config struct {
	// BaseURL is the gateway base address, OpenAI-compatible.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey authenticates against the gateway. Checked lazily on the
	// first call so the service can boot without credentials.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// EmbedModel is the embeddings model.
	EmbedModel string `json:"embed_model" mapstructure:"embed_model"`

	// ChatModel is the default chat model.
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`

	// EmbedDimensions is the requested embedding dimensionality.
	EmbedDimensions int `json:"embed_dimensions" mapstructure:"embed_dimensions"`

	// Timeout bounds embeddings calls and the primary stream transport.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// FallbackTimeout bounds the raw fallback stream transport.
	FallbackTimeout time.Duration `json:"fallback_timeout" mapstructure:"fallback_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://api.openai.com/v1",
		EmbedModel:      "text-embedding-3-small",
		ChatModel:       "gpt-4o-mini",
		EmbedDimensions: 1536,
		Timeout:         120 * time.Second,
		FallbackTimeout: 90 * time.Second,
	}
}

// Provider is the gateway implementation of llm.Provider.
type Provider struct {
	config   *Config
	client   *http.Client
	fallback *http.Client
}

// NewProvider creates a gateway provider from a config map.
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["embed_model"].(string); ok && v != "" {
		cfg.EmbedModel = v
	}
	if v, ok := configMap["chat_model"].(string); ok && v != "" {
		cfg.ChatModel = v
	}
	if v, ok := configMap["embed_dimensions"].(int); ok && v > 0 {
		cfg.EmbedDimensions = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["fallback_timeout"].(time.Duration); ok && v > 0 {
		cfg.FallbackTimeout = v
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig creates a gateway provider from structured config.
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config:   cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: &http.Client{Timeout: cfg.FallbackTimeout},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) checkCredentials() error {
	if p.config.APIKey == "" {
		return &llm.ConfigError{Reason: "api_key is not set"}
	}
	return nil
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed generates one vector per input text, in input order. Inputs are
// sent in batches; a failure in any batch aborts the whole call with no
// partial results.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}

	all := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := p.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}

	return all, nil
}

func (p *Provider) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Model:      p.config.EmbedModel,
		Input:      batch,
		Dimensions: p.config.EmbedDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(resp)
	}

	var embedResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Order by index so concatenation across batches stays input-aligned.
	vectors := make([][]float32, len(batch))
	for _, d := range embedResp.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	return vectors, nil
}

// EmbedSingle generates a vector for a single text.
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

type chatStreamRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamChat starts a streaming completion. The primary transport is
// tried first; a network-class connection failure triggers one attempt
// over the raw fallback transport with an extended timeout. Non-network
// failures are surfaced without fallback. The returned channel always
// ends with a terminal delta: Done after a normal stream, or Err when
// the stream failed (a zero-content stream yields one synthetic Err
// followed by Done).
func (p *Provider) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamDelta, error) {
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.config.ChatModel
	}
	messages := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	body, err := json.Marshal(chatStreamRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ch := make(chan llm.StreamDelta, 16)
	go p.stream(ctx, body, ch)
	return ch, nil
}

func (p *Provider) stream(ctx context.Context, body []byte, ch chan<- llm.StreamDelta) {
	defer close(ch)

	stream, err := p.openStream(ctx, p.client, body)
	if err != nil {
		if !llm.IsNetworkError(err) {
			ch <- llm.StreamDelta{Err: err}
			return
		}
		// Connectivity failure: retry once over the raw transport with
		// the extended timeout.
		stream, err = p.openStream(ctx, p.fallback, body)
		if err != nil {
			ch <- llm.StreamDelta{Err: translateStreamError(err)}
			return
		}
	}
	defer func() { _ = stream.Close() }()

	contentSeen := false

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		var event chatStreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			// Skip malformed events rather than killing the stream.
			continue
		}
		if len(event.Choices) == 0 {
			continue
		}
		content := event.Choices[0].Delta.Content
		if content == "" {
			continue
		}

		contentSeen = true
		select {
		case ch <- llm.StreamDelta{Content: content}:
		case <-ctx.Done():
			ch <- llm.StreamDelta{Err: translateStreamError(ctx.Err())}
			return
		}
	}

	if err := scanner.Err(); err != nil {
		ch <- llm.StreamDelta{Err: translateStreamError(err)}
		return
	}

	// Silence is never success: a stream that ends without content gets
	// one explicit error delta before the end marker.
	if !contentSeen {
		ch <- llm.StreamDelta{Err: fmt.Errorf("%s", noResponseMessage)}
	}
	ch <- llm.StreamDelta{Done: true}
}

func (p *Provider) openStream(ctx context.Context, client *http.Client, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		return nil, upstreamError(resp)
	}
	return resp.Body, nil
}

// translateStreamError maps connectivity failures onto user-facing
// guidance; everything else passes through unchanged.
func translateStreamError(err error) error {
	if llm.IsNetworkError(err) {
		return fmt.Errorf("%s", networkGuidance)
	}
	return err
}

func upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamBodyLimit))
	return &llm.UpstreamError{
		Status: resp.StatusCode,
		Body:   string(raw),
	}
}
