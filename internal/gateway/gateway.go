// Package gateway wires configuration, storage, the model and the middleware
// chain into sessions that transports can drive.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"mentorbot/internal/chat"
	"mentorbot/internal/config"
	"mentorbot/internal/features"
	"mentorbot/internal/llm"
	"mentorbot/internal/logging"
	"mentorbot/internal/middleware"
	"mentorbot/internal/planner"
	"mentorbot/internal/session"
	_ "mentorbot/middlewares/autoload" // Auto-load all middlewares
)

const (
	cleanupInterval = 10 * time.Minute
	turnTimeout     = 5 * time.Minute
)

type Gateway struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    *planner.Store
	Features *features.Index
	Chain    *middleware.Chain
	Sessions *session.Manager

	streams sync.Map // session id -> func(string)
	closers []io.Closer
}

type Option func(*options)

type options struct {
	model llms.Model
	now   func() time.Time
}

// WithModel replaces the provider client built from the config.
func WithModel(m llms.Model) Option {
	return func(o *options) { o.model = m }
}

// WithClock fixes the clock the mentor resolves dates against.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	g := &Gateway{Config: cfg, Logger: logger}

	store, err := planner.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	g.Store = store
	g.closers = append(g.closers, store)

	if err := g.seedIfEmpty(ctx); err != nil {
		g.Close()
		return nil, err
	}

	if cfg.CatalogPath != "" {
		g.Features, err = features.Load(cfg.CatalogPath)
	} else {
		g.Features, err = features.Default()
	}
	if err != nil {
		g.Close()
		return nil, err
	}

	model := o.model
	if model == nil {
		model, err = llm.NewModel(ctx, llm.Options{
			Provider: llm.Provider(cfg.Provider),
			Model:    cfg.Model,
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
		})
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("failed to initialize model: %w", err)
		}
	}
	adapter := llm.NewAdapter(model, cfg.Model)

	// Middleware logging
	var debugLog io.Writer
	if cfg.DebugLogPath != "" {
		rotator := logging.Rotated(cfg.DebugLogPath)
		g.closers = append(g.closers, rotator)
		debugLog = rotator
	}
	g.Chain, err = middleware.NewChainFromRegistry(middleware.Env{
		Logger:          logger,
		Features:        g.Features,
		Titles:          llm.NewTitleNormalizer(model, cfg.TitleTimeout.Duration),
		Now:             o.now,
		SessionTTL:      cfg.SessionTTL.Duration,
		CleanupInterval: cleanupInterval,
	}, cfg.Disabled(), debugLog)
	if err != nil {
		g.Close()
		return nil, err
	}

	g.Sessions = session.NewManager(func(id string) *chat.Service {
		return chat.NewService(adapter,
			chat.WithMiddlewareChain(g.Chain),
			chat.WithSessionID(id),
			chat.WithModel(cfg.Model),
			chat.WithMaxTokens(cfg.MaxTokens),
			chat.WithLogger(logger),
			chat.WithStreamCallback(func(chunk string) { g.stream(id, chunk) }),
		)
	}, cfg.SessionTTL.Duration, cleanupInterval, logger)

	logger.Info("gateway ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.String("db", cfg.DBPath),
		zap.Int("features", g.Features.Len()),
		zap.Int("middlewares", len(g.Chain.List())),
	)
	return g, nil
}

// streamTo sends the model output of a session to fn as it arrives, until
// the returned stop func is called.
func (g *Gateway) streamTo(sessionID string, fn func(string)) (stop func()) {
	g.streams.Store(sessionID, fn)
	return func() { g.streams.Delete(sessionID) }
}

func (g *Gateway) stream(sessionID, chunk string) {
	if fn, ok := g.streams.Load(sessionID); ok {
		fn.(func(string))(chunk)
	}
}

func (g *Gateway) seedIfEmpty(ctx context.Context) error {
	lessons, err := g.Store.Lessons(ctx)
	if err != nil {
		return fmt.Errorf("check lessons: %w", err)
	}
	if len(lessons) > 0 {
		return nil
	}
	c, err := planner.DefaultCatalog()
	if err != nil {
		return err
	}
	g.Logger.Info("seeding demo catalog", zap.Int("lessons", len(c.Lessons)), zap.Int("learners", len(c.Learners)))
	return g.Store.Seed(ctx, c)
}

// Result is a chat reply plus what the planner stored for it, if anything.
type Result struct {
	chat.Reply
	Receipt *planner.Receipt `json:"receipt,omitempty"`
}

// Turn runs one message of a session and applies any confirmed action.
func (g *Gateway) Turn(ctx context.Context, s *session.Session, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	in, err := g.Store.Input(ctx, s.LearnerID())
	if err != nil {
		return Result{}, err
	}
	reply, err := s.Chat.Send(ctx, text, in)
	if err != nil {
		return Result{}, err
	}
	res := Result{Reply: reply}
	if reply.Action == nil {
		return res, nil
	}

	receipt, err := g.Store.Apply(ctx, reply.Action)
	if err != nil {
		g.Logger.Error("apply action failed",
			zap.String("session", s.ID), zap.String("action", string(reply.Action.Type)), zap.Error(err))
		s.Chat.ActionFailed(reply.Action)
		res.Text += "\n\nSorry, I couldn't save that. Please try again."
		return res, nil
	}
	g.Logger.Info("action applied",
		zap.String("session", s.ID),
		zap.String("action", string(receipt.Type)),
		zap.String("lesson", receipt.LessonKey))
	res.Receipt = &receipt
	return res, nil
}

// SelectLearner points a session at a learner after checking it exists.
func (g *Gateway) SelectLearner(ctx context.Context, s *session.Session, learnerID string) (planner.Learner, error) {
	l, err := g.Store.Learner(ctx, learnerID)
	if err != nil {
		return planner.Learner{}, err
	}
	s.SetLearner(l.ID)
	return l, nil
}

func (g *Gateway) Close() error {
	var errs []error
	for i := len(g.closers) - 1; i >= 0; i-- {
		errs = append(errs, g.closers[i].Close())
	}
	g.closers = nil
	return errors.Join(errs...)
}
