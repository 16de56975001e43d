package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

const maxTitleLen = 80

const titlePrompt = `Rewrite the following rough lesson title into a short, clear title for a classroom lesson.
Topic: %s
Rough title: %s
Reply with the title only, no quotes and no explanation.`

// TitleNormalizer cleans up facilitator-typed lesson titles with the model.
type TitleNormalizer struct {
	model   llms.Model
	timeout time.Duration
}

func NewTitleNormalizer(model llms.Model, timeout time.Duration) *TitleNormalizer {
	return &TitleNormalizer{model: model, timeout: timeout}
}

func (n *TitleNormalizer) NormalizeTitle(ctx context.Context, raw, topic string) (string, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, n.model, fmt.Sprintf(titlePrompt, topic, raw),
		llms.WithTemperature(0.2), llms.WithMaxTokens(32))
	if err != nil {
		return "", fmt.Errorf("normalize title: %w", err)
	}
	title := cleanTitle(out)
	if title == "" {
		return "", errors.New("normalize title: model returned no title")
	}
	return title, nil
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "Title:")
	s = strings.Trim(strings.TrimSpace(s), "\"'`*")
	if len([]rune(s)) > maxTitleLen {
		s = strings.TrimSpace(string([]rune(s)[:maxTitleLen]))
	}
	return s
}
