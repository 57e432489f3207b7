// internal/llm/interface.go
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
)

var ErrUnknownProvider = errors.New("unknown AI provider")

// JSONRequest is a structured-output text generation request: system
// instruction, user turn, and a strict output-shape declaration.
// InputImage, when set, is a data URI attached ahead of the user text so
// the model can describe or interpret it.
type JSONRequest struct {
	SystemPrompt   string         `json:"system_prompt"`
	UserPrompt     string         `json:"user_prompt"`
	InputImage     string         `json:"input_image,omitempty"`
	Model          string         `json:"model,omitempty"`
	Temperature    float32        `json:"temperature,omitempty"`
	ResponseSchema map[string]any `json:"response_schema,omitempty"`
}

// JSONResponse is a normalized structured-output answer.
type JSONResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// ImageRequest is an image generation request. InputImage, when set, is a
// data URI used for image-to-image and sketch-to-image flows.
type ImageRequest struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model,omitempty"`
	SampleCount int    `json:"sample_count,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	InputImage  string `json:"input_image,omitempty"`
}

// ImageResponse carries generated images as data URIs.
type ImageResponse struct {
	Images []string `json:"images"`
}

// ChatPart is one fragment of a multimodal chat turn.
type ChatPart struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"` // data URI
}

// ChatMessage is one turn of a multimodal conversation.
type ChatMessage struct {
	Role  string     `json:"role"` // user or model
	Parts []ChatPart `json:"parts"`
}

// Provider is the contract every generative backend implements. Providers
// hold no per-call state; every method is one network round-trip returning
// either a normalized result or a classified AppError.
type Provider interface {
	// Initialize configures the provider from a flat key/value map.
	Initialize(config map[string]string) error

	// Name returns the provider's display name.
	Name() string

	// CompleteJSON runs one structured-output text generation call.
	CompleteJSON(ctx context.Context, req JSONRequest) (*JSONResponse, error)

	// GenerateImages runs one image generation call.
	GenerateImages(ctx context.Context, req ImageRequest) (*ImageResponse, error)

	// ChatMultimodal runs one multi-turn text+image chat call and returns
	// the model's reply turn.
	ChatMultimodal(ctx context.Context, history []ChatMessage) (*ChatMessage, error)
}

// ProviderFactory constructs an uninitialized provider.
type ProviderFactory func() Provider

var providers = make(map[string]ProviderFactory)

// Register adds a provider factory under the given name.
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// GetProvider creates and initializes the named provider.
func GetProvider(name string, config map[string]string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	provider := factory()
	if err := provider.Initialize(config); err != nil {
		return nil, err
	}
	return provider, nil
}

// ListProviders returns the names of all registered providers.
func ListProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}

var dataURIPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// ParseDataURI splits a base64 data URI into its MIME type and raw bytes.
func ParseDataURI(uri string) (mimeType string, data []byte, err error) {
	match := dataURIPattern.FindStringSubmatch(uri)
	if match == nil {
		return "", nil, errors.New("invalid data URI format")
	}
	raw, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URI payload: %w", err)
	}
	return match[1], raw, nil
}

// EncodeDataURI builds a base64 data URI from a MIME type and raw bytes.
func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
