package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type testMW struct {
	id       string
	priority int
	cancel   bool
	seen     *[]string
}

func (m testMW) ID() string    { return m.id }
func (m testMW) Priority() int { return m.priority }
func (m testMW) OnEvent(_ context.Context, _ *Event) (Decision, error) {
	*m.seen = append(*m.seen, m.id)
	return Decision{Cancel: m.cancel}, nil
}

type conditionalTestMW struct {
	testMW
	enabled bool
}

func (m conditionalTestMW) ShouldLoad(_ context.Context, _ *Event) bool { return m.enabled }

func TestChainPriorityAndCancel(t *testing.T) {
	seen := []string{}
	c := NewChain(
		testMW{id: "low", priority: 1, seen: &seen},
		testMW{id: "high", priority: 10, cancel: true, seen: &seen},
		testMW{id: "mid", priority: 5, seen: &seen},
	)

	_, err := c.Dispatch(context.Background(), &Event{Name: EventBeforeLLMRequest})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0] != "high" {
		t.Fatalf("expected only high to run (cancel), got %v", seen)
	}
}

func TestChainConditionalMiddlewareSkip(t *testing.T) {
	seen := []string{}
	c := NewChain(
		conditionalTestMW{testMW: testMW{id: "off", priority: 10, seen: &seen}, enabled: false},
		conditionalTestMW{testMW: testMW{id: "on", priority: 5, seen: &seen}, enabled: true},
	)

	results, err := c.Dispatch(context.Background(), &Event{Name: EventBeforeLLMRequest})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := join(seen); got != "on" {
		t.Fatalf("expected only enabled middleware to run, got %s", got)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both middlewares, got %d", len(results))
	}
	if results[0].MiddlewareID != "off" || results[0].Decision.Reason == "" {
		t.Fatalf("expected first result to be skipped middleware with a reason, got %+v", results[0])
	}
}

func TestChainStableOrderOnEqualPriority(t *testing.T) {
	seen := []string{}
	c := NewChain(
		testMW{id: "a", priority: 5, seen: &seen},
		testMW{id: "b", priority: 5, seen: &seen},
		testMW{id: "c", priority: 5, seen: &seen},
	)

	_, err := c.Dispatch(context.Background(), &Event{Name: EventBeforeLLMRequest})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := join(seen); got != "a,b,c" {
		t.Fatalf("expected stable registration order, got %s", got)
	}
}

type replaceMW struct {
	id       string
	priority int
	text     string
}

func (m replaceMW) ID() string    { return m.id }
func (m replaceMW) Priority() int { return m.priority }
func (m replaceMW) OnEvent(_ context.Context, _ *Event) (Decision, error) {
	t := m.text
	return Decision{ReplaceText: &t, Reason: "rewrite"}, nil
}

func TestChainReplaceTextAndDebugLog(t *testing.T) {
	var buf bytes.Buffer
	c := NewChain(replaceMW{id: "rewrite", priority: 1, text: "shorter"})
	c.SetTrace(&buf)

	e := &Event{
		Name:     EventBeforeLLMRequest,
		UserText: "a much longer message than the rewrite",
		Context:  map[string]any{CtxSessionID: "s-1"},
	}
	if _, err := c.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.UserText != "shorter" {
		t.Fatalf("expected user text to be replaced, got %q", e.UserText)
	}

	var entry struct {
		Event        string `json:"event"`
		Session      string `json:"session"`
		MiddlewareID string `json:"middleware"`
		SavedTokens  int    `json:"saved_tokens_est"`
		Cancel       bool   `json:"cancel"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("debug log is not one JSON line: %v (%q)", err, buf.String())
	}
	if entry.Session != "s-1" || entry.MiddlewareID != "rewrite" || entry.Event != string(EventBeforeLLMRequest) {
		t.Fatalf("unexpected debug entry %+v", entry)
	}
	if entry.SavedTokens <= 0 {
		t.Fatalf("expected saved tokens to be positive, got %d", entry.SavedTokens)
	}
}

type failingMW struct{}

func (failingMW) ID() string    { return "boom" }
func (failingMW) Priority() int { return 1 }
func (failingMW) OnEvent(_ context.Context, _ *Event) (Decision, error) {
	return Decision{}, errors.New("boom")
}

func TestChainStopsOnError(t *testing.T) {
	c := NewChain(failingMW{})
	if _, err := c.Dispatch(context.Background(), &Event{Name: EventBeforeLLMRequest}); err == nil {
		t.Fatalf("expected middleware error to be returned")
	}
}

func TestCanceled(t *testing.T) {
	results := []DecisionResult{
		{MiddlewareID: "a"},
		{MiddlewareID: "b", Decision: Decision{Cancel: true}},
	}
	r, ok := Canceled(results)
	if !ok || r.MiddlewareID != "b" {
		t.Fatalf("expected b to be the canceling middleware, got %+v", r)
	}
	if _, ok := Canceled(results[:1]); ok {
		t.Fatalf("expected no cancel")
	}
}

func TestNewChainFromRegistry(t *testing.T) {
	seen := []string{}
	Register("test-first", func(Env) (Middleware, error) {
		return testMW{id: "test-first", priority: 20, seen: &seen}, nil
	})
	Register("test-second", func(Env) (Middleware, error) {
		return testMW{id: "test-second", priority: 10, seen: &seen}, nil
	})

	c, err := NewChainFromRegistry(Env{}, ParseDisabled(" test-first , "), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Dispatch(context.Background(), &Event{Name: EventBeforeLLMRequest}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := join(seen); got != "test-second" {
		t.Fatalf("expected disabled middleware to be left out, got %s", got)
	}

	Register("test-broken", func(Env) (Middleware, error) { return nil, errors.New("no config") })
	if _, err := NewChainFromRegistry(Env{}, nil, nil); err == nil || !strings.Contains(err.Error(), "test-broken") {
		t.Fatalf("expected factory error naming the middleware, got %v", err)
	}
}

func join(in []string) string {
	if len(in) == 0 {
		return ""
	}
	out := in[0]
	for i := 1; i < len(in); i++ {
		out += "," + in[i]
	}
	return out
}
