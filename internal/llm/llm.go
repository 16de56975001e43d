package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Options selects and configures a provider. An empty APIKey falls back to
// the provider's usual environment variable.
type Options struct {
	Provider Provider
	Model    string
	BaseURL  string
	APIKey   string
}

// NewModel builds the langchaingo client for a provider.
func NewModel(ctx context.Context, o Options) (llms.Model, error) {
	switch o.Provider {
	case ProviderOllama, "":
		opts := []ollama.Option{ollama.WithModel(o.Model)}
		if o.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(o.BaseURL))
		}
		return ollama.New(opts...)

	case ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(o.Model)}
		if o.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(o.BaseURL))
		}
		if token := firstNonEmpty(o.APIKey, os.Getenv("OPENAI_API_KEY")); token != "" {
			opts = append(opts, openai.WithToken(token))
		}
		return openai.New(opts...)

	case ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(o.Model)}
		if o.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(o.BaseURL))
		}
		if token := firstNonEmpty(o.APIKey, os.Getenv("ANTHROPIC_API_KEY")); token != "" {
			opts = append(opts, anthropic.WithToken(token))
		}
		return anthropic.New(opts...)

	case ProviderGemini:
		model := o.Model
		if model == "" {
			model = googleai.DefaultOptions().DefaultModel
		}
		opts := []googleai.Option{googleai.WithDefaultModel(model)}
		if o.BaseURL != "" {
			opts = append(opts, googleai.WithRest())
		}
		if key := firstNonEmpty(o.APIKey, os.Getenv("GOOGLE_API_KEY")); key != "" {
			opts = append(opts, googleai.WithAPIKey(key))
		}
		return googleai.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported provider: %s", o.Provider)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
