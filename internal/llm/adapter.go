package llm

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"mentorbot/internal/middleware"
)

// Adapter turns a chat request into a langchaingo GenerateContent call.
type Adapter struct {
	model llms.Model
	name  string
}

// NewAdapter wraps model; name is the default model name sent with each
// request and may be empty.
func NewAdapter(model llms.Model, name string) *Adapter {
	return &Adapter{model: model, name: name}
}

func (a *Adapter) ReplyStream(ctx context.Context, params *middleware.LLMParams, streamFn func(string)) (string, error) {
	if params == nil {
		return "", errors.New("llm: nil request")
	}
	messages := convertMessages(params.Messages)

	opts := make([]llms.CallOption, 0, 4)
	if model := firstNonEmpty(params.Model, a.name); model != "" {
		opts = append(opts, llms.WithModel(model))
	}
	if params.Temperature != 0 {
		opts = append(opts, llms.WithTemperature(params.Temperature))
	}
	if params.MaxTokens != 0 {
		opts = append(opts, llms.WithMaxTokens(params.MaxTokens))
	}
	if streamFn != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			streamFn(string(chunk))
			return nil
		}))
	}

	resp, err := a.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty response from model")
	}
	return resp.Choices[0].Content, nil
}

func convertMessages(msgs []middleware.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Text))
		case "assistant":
			text := m.Text
			// Some providers reject empty assistant turns.
			if text == "" {
				text = " "
			}
			out = append(out, llms.TextParts(llms.ChatMessageTypeAI, text))
		default:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Text))
		}
	}
	return out
}
