package tokenbudget

import (
	"context"
	"fmt"
	"testing"

	mw "mentorbot/internal/middleware"
)

func TestBudgetCapsMaxTokens(t *testing.T) {
	e := &mw.Event{
		Name:    mw.EventBeforeLLMRequest,
		Params:  &mw.LLMParams{MaxTokens: 2048},
		Context: map[string]any{mw.CtxTokenBudget: 512},
	}
	dec, err := BudgetLimiter{}.OnEvent(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if dec.OverrideParams == nil || dec.OverrideParams.MaxTokens != 512 {
		t.Fatalf("expected MaxTokens capped to 512, got %+v", dec.OverrideParams)
	}
	if e.Params.MaxTokens != 2048 {
		t.Fatalf("original params must not be mutated")
	}
}

func TestBudgetKeepsSmallerMaxTokens(t *testing.T) {
	e := &mw.Event{
		Name:    mw.EventBeforeLLMRequest,
		Params:  &mw.LLMParams{MaxTokens: 100},
		Context: map[string]any{mw.CtxTokenBudget: 512},
	}
	dec, err := BudgetLimiter{}.OnEvent(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if dec.OverrideParams != nil {
		t.Fatalf("expected no override, got %+v", dec.OverrideParams)
	}
}

func TestBudgetTrimsHistoryKeepingSystem(t *testing.T) {
	msgs := []mw.Message{{Role: "system", Text: "lesson context"}}
	for i := 0; i < maxHistory+5; i++ {
		msgs = append(msgs, mw.Message{Role: "user", Text: fmt.Sprintf("m%d", i)})
	}
	e := &mw.Event{Name: mw.EventBeforeLLMRequest, Params: &mw.LLMParams{Messages: msgs}}

	dec, err := BudgetLimiter{}.OnEvent(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got := dec.OverrideParams.Messages
	if len(got) != maxHistory+1 {
		t.Fatalf("expected %d messages, got %d", maxHistory+1, len(got))
	}
	if got[0].Role != "system" || got[1].Text != "m5" || got[len(got)-1].Text != fmt.Sprintf("m%d", maxHistory+4) {
		t.Fatalf("unexpected trimmed history: first=%+v second=%+v last=%+v", got[0], got[1], got[len(got)-1])
	}
}
