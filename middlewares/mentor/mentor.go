// Package mentor runs the facilitator dialogue interceptor ahead of the LLM.
// Turns it handles never reach the model; everything else is forwarded,
// optionally with a context preamble.
package mentor

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	mw "mentorbot/internal/middleware"
	core "mentorbot/internal/mentor"
)

const ID = "mentor"

const defaultSessionTTL = time.Hour

func init() {
	mw.Register(ID, func(env mw.Env) (mw.Middleware, error) {
		return New(env), nil
	})
}

// Mentor keeps one interceptor per chat session.
type Mentor struct {
	sessions *cache.Cache
	ttl      time.Duration
	opts     []core.Option
	logger   *zap.Logger
}

func New(env mw.Env) *Mentor {
	ttl := env.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(ID)

	opts := []core.Option{core.WithLogger(logger)}
	if env.Features != nil {
		opts = append(opts, core.WithFeatures(env.Features))
	}
	if env.Titles != nil {
		opts = append(opts, core.WithTitleNormalizer(env.Titles))
	}
	if env.Now != nil {
		opts = append(opts, core.WithClock(env.Now))
	}

	return &Mentor{
		sessions: cache.New(ttl, env.CleanupInterval),
		ttl:      ttl,
		opts:     opts,
		logger:   logger,
	}
}

func (m *Mentor) ID() string    { return ID }
func (m *Mentor) Priority() int { return 120 } // ahead of greeting

// ShouldLoad skips events that carry no session to keep state for.
func (m *Mentor) ShouldLoad(_ context.Context, e *mw.Event) bool {
	return e.SessionID() != ""
}

func (m *Mentor) OnEvent(ctx context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || e.Name != mw.EventBeforeLLMRequest {
		return mw.Decision{}, nil
	}
	in, _ := e.Context[mw.CtxMentorInput].(core.Input)

	out := m.Interceptor(e.SessionID()).Process(ctx, e.UserText, in)
	if out.Handled {
		if out.Action != nil {
			e.Set(mw.CtxMentorAction, out.Action)
		}
		reply := out.Response
		return mw.Decision{Cancel: true, ReplaceText: &reply, Reason: "mentor: handled"}, nil
	}

	f := out.Forward
	if f == nil {
		return mw.Decision{}, nil
	}
	if f.BypassInterceptor {
		e.Set(mw.CtxGreeting, false)
	}

	var dec mw.Decision
	if f.Message != "" && f.Message != e.UserText {
		msg := f.Message
		dec.ReplaceText = &msg
	}
	if f.Context != "" {
		params := &mw.LLMParams{}
		if e.Params != nil {
			*params = *e.Params
		}
		params.Messages = append([]mw.Message{{Role: "system", Text: f.Context}}, params.Messages...)
		dec.OverrideParams = params
	}
	dec.Reason = "mentor: forward"
	return dec, nil
}

// Interceptor returns the interceptor of a session, creating it on first
// use. Every call extends the session's idle deadline.
func (m *Mentor) Interceptor(sessionID string) *core.Interceptor {
	if v, ok := m.sessions.Get(sessionID); ok {
		ic := v.(*core.Interceptor)
		m.sessions.Set(sessionID, ic, m.ttl)
		return ic
	}
	ic := core.New(m.opts...)
	// A concurrent first turn may have stored one already.
	if err := m.sessions.Add(sessionID, ic, m.ttl); err != nil {
		if v, ok := m.sessions.Get(sessionID); ok {
			return v.(*core.Interceptor)
		}
		m.sessions.Set(sessionID, ic, m.ttl)
	}
	m.logger.Debug("mentor session started", zap.String("session", sessionID))
	return ic
}

// Forget drops the dialogue state of a session.
func (m *Mentor) Forget(sessionID string) {
	m.sessions.Delete(sessionID)
}

// ActionFailed takes back the memory note of an action the host could not
// apply.
func (m *Mentor) ActionFailed(sessionID string, a *core.Action) {
	if v, ok := m.sessions.Get(sessionID); ok {
		v.(*core.Interceptor).Retract(a)
	}
}
