package tokenbudget

import (
	"context"

	mw "mentorbot/internal/middleware"
)

// maxHistory is the number of non-system messages kept in a request.
const maxHistory = 20

func init() {
	// Auto-register middleware so it is picked up via middlewares/autoload.
	mw.Register("token_budget", func(mw.Env) (mw.Middleware, error) { return BudgetLimiter{}, nil })
}

// BudgetLimiter sets a maximum LLM token budget for a request if provided in
// Event.Context["token_budget"] (int). It prefers the smaller of existing
// MaxTokens and the provided budget. Long histories are cut to the most
// recent messages; system messages always stay.
type BudgetLimiter struct{}

func (BudgetLimiter) ID() string    { return "token_budget" }
func (BudgetLimiter) Priority() int { return 90 }

func (BudgetLimiter) OnEvent(_ context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || e.Name != mw.EventBeforeLLMRequest || e.Params == nil {
		return mw.Decision{}, nil
	}

	// Copy params so downstream can mutate safely.
	params := &mw.LLMParams{}
	*params = *e.Params
	changed := false

	if budget, ok := e.Context[mw.CtxTokenBudget].(int); ok && budget > 0 {
		if params.MaxTokens == 0 || params.MaxTokens > budget {
			params.MaxTokens = budget
			changed = true
		}
	}
	if trimmed, ok := trimHistory(params.Messages, maxHistory); ok {
		params.Messages = trimmed
		changed = true
	}

	if !changed {
		return mw.Decision{}, nil
	}
	return mw.Decision{
		OverrideParams: params,
		Reason:         "token_budget: capped request",
	}, nil
}

func trimHistory(msgs []mw.Message, keep int) ([]mw.Message, bool) {
	n := 0
	for _, m := range msgs {
		if m.Role != "system" {
			n++
		}
	}
	if n <= keep {
		return msgs, false
	}
	drop := n - keep
	out := make([]mw.Message, 0, len(msgs)-drop)
	for _, m := range msgs {
		if m.Role != "system" && drop > 0 {
			drop--
			continue
		}
		out = append(out, m)
	}
	return out, true
}
