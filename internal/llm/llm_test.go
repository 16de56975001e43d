package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"mentorbot/internal/middleware"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.opts.StreamingFunc != nil {
		if err := f.opts.StreamingFunc(ctx, []byte(f.reply)); err != nil {
			return nil, err
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestAdapterReplyStream(t *testing.T) {
	fm := &fakeModel{reply: "Volcanoes erupt."}
	a := NewAdapter(fm, "llama3")

	var streamed string
	got, err := a.ReplyStream(context.Background(), &middleware.LLMParams{
		MaxTokens: 128,
		Messages: []middleware.Message{
			{Role: "system", Text: "lesson context"},
			{Role: "user", Text: "what is a volcano"},
			{Role: "assistant", Text: ""},
			{Role: "user", Text: "and lava?"},
		},
	}, func(c string) { streamed += c })
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes erupt.", got)
	assert.Equal(t, got, streamed)

	require.Len(t, fm.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, fm.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fm.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, fm.messages[2].Role)
	assert.Equal(t, "llama3", fm.opts.Model)
	assert.Equal(t, 128, fm.opts.MaxTokens)
}

func TestAdapterRequestModelOverridesDefault(t *testing.T) {
	fm := &fakeModel{reply: "ok"}
	_, err := NewAdapter(fm, "llama3").ReplyStream(context.Background(), &middleware.LLMParams{Model: "mistral"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mistral", fm.opts.Model)
}

func TestTitleNormalizer(t *testing.T) {
	fm := &fakeModel{reply: "Title: \"Fraction Pizza Party\"\nThis title works because..."}
	n := NewTitleNormalizer(fm, time.Second)

	got, err := n.NormalizeTitle(context.Background(), "fraction pizza party", "fractions")
	require.NoError(t, err)
	assert.Equal(t, "Fraction Pizza Party", got)
	require.Len(t, fm.messages, 1)
}

func TestTitleNormalizerErrors(t *testing.T) {
	_, err := NewTitleNormalizer(&fakeModel{err: errors.New("offline")}, 0).NormalizeTitle(context.Background(), "x", "y")
	assert.Error(t, err)

	_, err = NewTitleNormalizer(&fakeModel{reply: "  \"\"  "}, 0).NormalizeTitle(context.Background(), "x", "y")
	assert.Error(t, err)
}

func TestNewModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewModel(context.Background(), Options{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
