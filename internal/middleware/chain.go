package middleware

import (
	"context"
	"io"
	"sort"
	"sync"

	"mentorbot/internal/mentor"
)

// Chain runs middlewares from the highest Priority() down. Equal priorities
// keep the order they were added in.
type Chain struct {
	mu  sync.RWMutex
	mws []Middleware

	traceMu sync.Mutex
	trace   *Trace
}

type DecisionResult struct {
	MiddlewareID string
	Priority     int
	Decision     Decision
}

// Canceled returns the result that stopped the dispatch, if any.
func Canceled(results []DecisionResult) (DecisionResult, bool) {
	for _, r := range results {
		if r.Decision.Cancel {
			return r, true
		}
	}
	return DecisionResult{}, false
}

func NewChain(mws ...Middleware) *Chain {
	c := &Chain{}
	for _, mw := range mws {
		c.Use(mw)
	}
	return c
}

// SetTrace sends a JSONL record of every decision to w. A nil w turns the
// trace off.
func (c *Chain) SetTrace(w io.Writer) {
	c.traceMu.Lock()
	defer c.traceMu.Unlock()
	if w == nil {
		c.trace = nil
		return
	}
	c.trace = NewTrace(w)
}

func (c *Chain) tracer() *Trace {
	c.traceMu.Lock()
	defer c.traceMu.Unlock()
	return c.trace
}

func (c *Chain) Use(mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mws = append(c.mws, mw)
	sort.SliceStable(c.mws, func(i, j int) bool {
		return c.mws[i].Priority() > c.mws[j].Priority()
	})
}

func (c *Chain) List() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Middleware(nil), c.mws...)
}

// Dispatch offers e to each middleware in turn. A decision's text and params
// are applied to e before the next middleware sees it; a Cancel ends the
// dispatch. Skipped middlewares still get a result.
func (c *Chain) Dispatch(ctx context.Context, e *Event) ([]DecisionResult, error) {
	mws := c.List()
	trace := c.tracer()

	results := make([]DecisionResult, 0, len(mws))
	for _, mw := range mws {
		s := step{id: mw.ID(), priority: mw.Priority(), before: e.text()}

		if cmw, ok := mw.(ConditionalMiddleware); ok && !cmw.ShouldLoad(ctx, e) {
			s.skipped, s.after = true, s.before
			s.dec = Decision{Reason: "skipped (ShouldLoad=false)"}
			trace.record(e, s)
			results = append(results, DecisionResult{MiddlewareID: s.id, Priority: s.priority, Decision: s.dec})
			continue
		}

		dec, err := mw.OnEvent(ctx, e)
		if err != nil {
			s.after = s.before
			s.dec = Decision{Reason: err.Error(), Cancel: true}
			trace.record(e, s)
			return nil, err
		}

		e.apply(dec)
		s.after, s.dec = e.text(), dec
		trace.record(e, s)

		results = append(results, DecisionResult{MiddlewareID: s.id, Priority: s.priority, Decision: dec})
		if dec.Cancel {
			break
		}
	}
	return results, nil
}

// Forget drops the per-session state every SessionAware middleware holds for
// sessionID.
func (c *Chain) Forget(sessionID string) {
	for _, mw := range c.List() {
		if s, ok := mw.(SessionAware); ok {
			s.Forget(sessionID)
		}
	}
}

// ActionFailed tells every ActionAware middleware that the host rejected a.
func (c *Chain) ActionFailed(sessionID string, a *mentor.Action) {
	for _, mw := range c.List() {
		if s, ok := mw.(ActionAware); ok {
			s.ActionFailed(sessionID, a)
		}
	}
}
