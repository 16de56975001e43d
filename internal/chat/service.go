package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mentorbot/internal/mentor"
	"mentorbot/internal/middleware"
)

var (
	ErrEmptyInput    = errors.New("empty input")
	ErrEmptyResponse = errors.New("empty response from model")
)

// Service holds one conversation. Turns are serialized.
type Service struct {
	mu      sync.Mutex
	adapter Adapter
	history []Message
	mws     *middleware.Chain

	sessionID string
	model     string
	maxTokens int
	stream    func(string)
	logger    *zap.Logger
}

type ServiceOption func(*Service)

func WithMiddlewareChain(chain *middleware.Chain) ServiceOption {
	return func(s *Service) {
		s.mws = chain
	}
}

// WithSessionID tags every event with the session so middlewares can keep
// per-session state.
func WithSessionID(id string) ServiceOption {
	return func(s *Service) { s.sessionID = id }
}

func WithModel(model string) ServiceOption {
	return func(s *Service) { s.model = model }
}

// WithMaxTokens sets the per-request token budget passed to the chain.
func WithMaxTokens(n int) ServiceOption {
	return func(s *Service) { s.maxTokens = n }
}

// WithStreamCallback receives model output chunks as they arrive.
func WithStreamCallback(fn func(string)) ServiceOption {
	return func(s *Service) { s.stream = fn }
}

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(adapter Adapter, opts ...ServiceOption) *Service {
	s := &Service{
		adapter: adapter,
		history: make([]Message, 0, 16),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SessionID() string { return s.sessionID }

// Send runs one facilitator turn. The mentor middleware sees in with the
// conversation so far filled in as History.
func (s *Service) Send(ctx context.Context, input string, in mentor.Input) (Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in.History = s.turnsLocked()
	mwCtx := map[string]any{
		middleware.CtxSessionID:   s.sessionID,
		middleware.CtxLearnerID:   in.LearnerID,
		middleware.CtxMentorInput: in,
	}
	if s.maxTokens > 0 {
		mwCtx[middleware.CtxTokenBudget] = s.maxTokens
	}
	params := &middleware.LLMParams{Model: s.model, Messages: s.paramsLocked()}
	userText := input

	if s.mws != nil {
		e := &middleware.Event{
			Name:     middleware.EventBeforeLLMRequest,
			UserText: input,
			Params:   params,
			Context:  mwCtx,
		}
		results, err := s.mws.Dispatch(ctx, e)
		if err != nil {
			return Reply{}, err
		}
		if r, ok := middleware.Canceled(results); ok {
			text, _ := applyTextDecisions(input, results)
			if r.Decision.ReplaceText == nil || text == "" {
				if strings.TrimSpace(r.Decision.Reason) == "" {
					return Reply{}, errors.New("request canceled by middleware")
				}
				return Reply{}, errors.New(r.Decision.Reason)
			}
			action, _ := e.Context[middleware.CtxMentorAction].(*mentor.Action)
			s.history = append(s.history,
				Message{Role: RoleUser, Content: input},
				Message{Role: RoleAssistant, Content: text},
			)
			s.logger.Debug("turn answered by middleware",
				zap.String("session", s.sessionID), zap.String("middleware", r.MiddlewareID))
			return Reply{Text: text, Source: r.MiddlewareID, Action: action}, nil
		}
		userText = strings.TrimSpace(e.UserText)
		if e.Params != nil {
			params = e.Params
		}
	}

	req := *params
	req.Messages = append(append([]middleware.Message(nil), params.Messages...),
		middleware.Message{Role: string(RoleUser), Text: userText})
	if req.MaxTokens == 0 {
		req.MaxTokens = s.maxTokens
	}

	assistant, err := s.adapter.ReplyStream(ctx, &req, s.stream)
	if err != nil {
		return Reply{}, err
	}
	assistant = strings.TrimSpace(assistant)
	if assistant == "" {
		return Reply{}, ErrEmptyResponse
	}

	if s.mws != nil {
		e := &middleware.Event{
			Name:     middleware.EventAfterLLMResponse,
			UserText: userText,
			LLMText:  assistant,
			Params:   params,
			Context:  mwCtx,
		}
		results, err := s.mws.Dispatch(ctx, e)
		if err != nil {
			return Reply{}, err
		}
		updated, canceled := applyTextDecisions(assistant, results)
		if canceled != nil && canceled.Cancel && strings.TrimSpace(updated) == "" {
			if strings.TrimSpace(canceled.Reason) == "" {
				return Reply{}, errors.New("response canceled by middleware")
			}
			return Reply{}, errors.New(canceled.Reason)
		}
		assistant = updated
	}

	s.history = append(s.history,
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAssistant, Content: assistant},
	)
	return Reply{Text: assistant, Source: SourceLLM}, nil
}

// History returns a copy of the conversation so far.
func (s *Service) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Clear forgets the conversation and any in-progress mentor flow.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.history[:0]
	if s.mws != nil && s.sessionID != "" {
		s.mws.Forget(s.sessionID)
	}
}

// ActionFailed reports that the host could not apply an action from the
// last reply.
func (s *Service) ActionFailed(a *mentor.Action) {
	if a == nil || s.mws == nil || s.sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mws.ActionFailed(s.sessionID, a)
}

func (s *Service) turnsLocked() []mentor.Turn {
	out := make([]mentor.Turn, len(s.history))
	for i, m := range s.history {
		out[i] = mentor.Turn{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func (s *Service) paramsLocked() []middleware.Message {
	out := make([]middleware.Message, len(s.history))
	for i, m := range s.history {
		out[i] = middleware.Message{Role: string(m.Role), Text: m.Content}
	}
	return out
}

func applyTextDecisions(initial string, results []middleware.DecisionResult) (string, *middleware.Decision) {
	cur := strings.TrimSpace(initial)
	for _, r := range results {
		dec := r.Decision
		if dec.ReplaceText != nil {
			cur = strings.TrimSpace(*dec.ReplaceText)
		}
		if dec.Cancel {
			return cur, &dec
		}
	}
	return cur, nil
}
