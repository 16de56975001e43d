package chat

import (
	"context"

	"mentorbot/internal/middleware"
)

// Adapter abstracts chat completion providers.
type Adapter interface {
	// ReplyStream should stream assistant text chunks to streamFn (if non-nil)
	// and return the full text. params.Messages holds the whole request,
	// oldest first, ending with the user turn.
	ReplyStream(ctx context.Context, params *middleware.LLMParams, streamFn func(string)) (string, error)
}
