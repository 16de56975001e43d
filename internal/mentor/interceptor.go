package mentor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Interceptor owns the dialogue state of one chat session and serializes
// turns against it. It is safe for concurrent use; concurrent calls are
// processed one after another in lock order.
type Interceptor struct {
	mu     sync.Mutex
	state  State
	deps   Deps
	logger *zap.Logger
}

type Option func(*Interceptor)

func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) { i.deps.Now = now }
}

func WithFeatures(idx FeatureIndex) Option {
	return func(i *Interceptor) { i.deps.Features = idx }
}

func WithTitleNormalizer(n TitleNormalizer) Option {
	return func(i *Interceptor) { i.deps.Titles = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l
		}
	}
}

func New(opts ...Option) *Interceptor {
	i := &Interceptor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Process runs one user message through the state machine.
func (i *Interceptor) Process(ctx context.Context, msg string, in Input) Output {
	i.mu.Lock()
	defer i.mu.Unlock()

	before := i.state
	next, out := Step(ctx, before, msg, in, i.deps)
	i.state = next

	fields := []zap.Field{
		zap.String("flow", string(next.Flow())),
		zap.String("awaiting", string(next.Awaiting)),
		zap.Bool("handled", out.Handled),
	}
	if before.Flow() != next.Flow() {
		fields = append(fields, zap.String("from", string(before.Flow())))
	}
	if out.Action != nil {
		fields = append(fields, zap.String("action", string(out.Action.Type)))
	}
	if out.Forward != nil && out.Forward.BypassInterceptor {
		fields = append(fields, zap.Bool("bypass", true))
	}
	i.logger.Debug("mentor turn", fields...)

	return out
}

// Reset drops any in-progress flow. Conversation memory is kept.
func (i *Interceptor) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = i.state.Reset()
}

// Retract forgets the memory note of an action the host could not carry
// out, so recall does not report it as done.
func (i *Interceptor) Retract(a *Action) {
	if a == nil || a.Note == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = i.state.forget(a.Note)
	i.logger.Debug("mentor action retracted", zap.String("action", string(a.Type)))
}

// State returns a snapshot of the current state.
func (i *Interceptor) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}
