// internal/llm/interface.go
package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrUnknownProvider no factory registered under the name
var ErrUnknownProvider = errors.New("unknown LLM provider")

// SchemaType JSON schema type names understood by the providers
type SchemaType string

const (
	TypeObject  SchemaType = "OBJECT"
	TypeString  SchemaType = "STRING"
	TypeArray   SchemaType = "ARRAY"
	TypeInteger SchemaType = "INTEGER"
	TypeBoolean SchemaType = "BOOLEAN"
)

// Schema is the provider-neutral subset of a structured-output schema
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// InlineImage raw image bytes sent next to the text prompt
type InlineImage struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// CompletionRequest one single-turn generation
type CompletionRequest struct {
	Prompt       string        `json:"prompt"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	MaxTokens    int           `json:"max_tokens,omitempty"`
	Temperature  float32       `json:"temperature,omitempty"`
	TopP         float32       `json:"top_p,omitempty"`
	Model        string        `json:"model,omitempty"`
	StopWords    []string      `json:"stop_words,omitempty"`
	Images       []InlineImage `json:"images,omitempty"`

	// Structured output. ResponseSchema is ignored unless ResponseMIMEType is application/json.
	ResponseMIMEType string  `json:"response_mime_type,omitempty"`
	ResponseSchema   *Schema `json:"response_schema,omitempty"`
}

// CompletionResponse normalized provider reply
type CompletionResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	PromptTokens int    `json:"prompt_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// Provider is implemented by every text generation backend
type Provider interface {
	// Initialize receives api_key, base_url, default_model ...
	Initialize(config map[string]string) error

	GetName() string

	GetSupportedModels() []string

	CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// FetchAvailableModels refreshes GetSupportedModels from the remote API
	FetchAvailableModels(ctx context.Context) error
}

// ProviderFactory creates an uninitialized provider
type ProviderFactory func() Provider

// Registry maps provider names to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

// DefaultRegistry is filled by the providers' init functions
var DefaultRegistry = NewRegistry()

// Register adds or replaces a factory
func (r *Registry) Register(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// GetProvider creates and initializes the named provider
func (r *Registry) GetProvider(name string, config map[string]string) (Provider, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()
	if !exists {
		return nil, ErrUnknownProvider
	}

	provider := factory()
	if err := provider.Initialize(config); err != nil {
		return nil, err
	}
	return provider, nil
}

// Names sorted provider names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedModels static model list of a provider, empty when unknown
func (r *Registry) SupportedModels(name string) []string {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()
	if !exists {
		return []string{}
	}
	return factory().GetSupportedModels()
}

// Register registers a factory on DefaultRegistry
func Register(name string, factory ProviderFactory) {
	DefaultRegistry.Register(name, factory)
}

// GetProvider creates a provider from DefaultRegistry
func GetProvider(name string, config map[string]string) (Provider, error) {
	return DefaultRegistry.GetProvider(name, config)
}

// ListProviders names registered on DefaultRegistry
func ListProviders() []string {
	return DefaultRegistry.Names()
}

// GetSupportedModelsForProvider static model list from DefaultRegistry
func GetSupportedModelsForProvider(name string) []string {
	return DefaultRegistry.SupportedModels(name)
}
