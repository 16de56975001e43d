package middleware

import (
	"context"

	"mentorbot/internal/mentor"
)

type EventName string

const (
	EventBeforeLLMRequest EventName = "before_llm_request"
	EventAfterLLMResponse EventName = "after_llm_response"
)

// Keys of Event.Context shared between the chat service and middlewares.
const (
	CtxSessionID    = "session_id"
	CtxLearnerID    = "learner_id"
	CtxMentorInput  = "mentor_input"  // mentor.Input
	CtxMentorAction = "mentor_action" // *mentor.Action, set by the mentor middleware
	CtxGreeting     = "greeting"      // bool, false disables the greeting middleware
	CtxTokenBudget  = "token_budget"  // int
)

type LLMParams struct {
	Model       string
	Messages    []Message // chat history, oldest first
	Temperature float64
	MaxTokens   int
}

type Message struct {
	Role string // "system"|"user"|"assistant"
	Text string
}

type Decision struct {
	Cancel      bool   // stop the pipeline for this event
	Reason      string // for logs
	ReplaceText *string

	// Optional: change request + continue
	OverrideParams *LLMParams
}

type Event struct {
	Name     EventName
	UserText string     // for before_llm_request
	LLMText  string     // for after_llm_response
	Params   *LLMParams // mutable
	Context  map[string]any
}

// SessionID returns the session the event belongs to, or "".
func (e *Event) SessionID() string {
	if e == nil {
		return ""
	}
	id, _ := e.Context[CtxSessionID].(string)
	return id
}

// text is the text the event carries for its stage.
func (e *Event) text() string {
	switch e.Name {
	case EventBeforeLLMRequest:
		return e.UserText
	case EventAfterLLMResponse:
		return e.LLMText
	}
	return ""
}

func (e *Event) apply(dec Decision) {
	if dec.OverrideParams != nil {
		e.Params = dec.OverrideParams
	}
	if dec.ReplaceText == nil {
		return
	}
	switch e.Name {
	case EventBeforeLLMRequest:
		e.UserText = *dec.ReplaceText
	case EventAfterLLMResponse:
		e.LLMText = *dec.ReplaceText
	}
}

// Set stores v under key, allocating Context when needed.
func (e *Event) Set(key string, v any) {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = v
}

type Middleware interface {
	ID() string
	Priority() int
	OnEvent(ctx context.Context, e *Event) (Decision, error)
}

// ConditionalMiddleware is an optional extension that allows a middleware to be
// dynamically enabled/disabled per request/event.
//
// If a middleware implements this interface and returns false, it will be
// skipped during dispatch (but still recorded in results with a "skipped"
// reason).
type ConditionalMiddleware interface {
	ShouldLoad(ctx context.Context, e *Event) bool
}

// SessionAware is implemented by middlewares that keep per-session state.
type SessionAware interface {
	Forget(sessionID string)
}

// ActionAware is implemented by middlewares that must hear when the host
// could not carry out an action they produced.
type ActionAware interface {
	ActionFailed(sessionID string, a *mentor.Action)
}
