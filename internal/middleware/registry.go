package middleware

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mentorbot/internal/mentor"
)

// Env carries the collaborators a middleware factory may need.
type Env struct {
	Logger   *zap.Logger
	Features mentor.FeatureIndex
	Titles   mentor.TitleNormalizer
	Now      func() time.Time

	// SessionTTL bounds how long idle per-session state is kept.
	SessionTTL time.Duration
	// CleanupInterval is the janitor period of TTL caches; 0 disables it.
	CleanupInterval time.Duration
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Factory builds a middleware for a chain.
type Factory func(env Env) (Middleware, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register should be called by middleware packages (typically in init) to
// register themselves with the core chain builder. Registering the same id
// twice panics.
func Register(id string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[id]; dup {
		panic("middleware: duplicate registration of " + id)
	}
	registry[id] = f
}

// Registered returns the ids of all registered middleware, sorted.
func Registered() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ParseDisabled splits a comma-separated id list such as the value of
// MENTOR_DISABLED_MIDDLEWARES.
func ParseDisabled(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// NewChainFromRegistry builds a chain from all registered middleware except
// the disabled ids. If a debug writer is provided, it is attached for JSONL
// debug logs.
func NewChainFromRegistry(env Env, disabled []string, debugWriter io.Writer) (*Chain, error) {
	skip := make(map[string]struct{}, len(disabled))
	for _, id := range disabled {
		skip[id] = struct{}{}
	}

	log := env.logger()
	c := NewChain()
	for _, id := range Registered() {
		if _, ok := skip[id]; ok {
			log.Info("middleware disabled", zap.String("middleware", id))
			continue
		}
		registryMu.Lock()
		f := registry[id]
		registryMu.Unlock()

		m, err := f(env)
		if err != nil {
			return nil, fmt.Errorf("build middleware %s: %w", id, err)
		}
		c.Use(m)
		log.Debug("middleware loaded", zap.String("middleware", id), zap.Int("priority", m.Priority()))
	}
	if debugWriter != nil {
		c.SetTrace(debugWriter)
	}
	return c, nil
}
