package localcache

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	mw "mentorbot/internal/middleware"
)

const ttl = 5 * time.Minute

func init() {
	mw.Register("local-cache", func(env mw.Env) (mw.Middleware, error) {
		return New(env.CleanupInterval), nil
	})
}

// LocalCache skips the LLM if the same learner asked the same question
// recently. Turns that carry lesson context are never cached.
type LocalCache struct {
	cache *cache.Cache
}

func New(cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{cache: cache.New(ttl, cleanupInterval)}
}

func (l *LocalCache) ID() string {
	return "local-cache"
}

func (l *LocalCache) Priority() int {
	// Run after mentor (120), greeting (110) and token budget (90).
	return 80
}

func (l *LocalCache) OnEvent(ctx context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || hasSystemContext(e.Params) {
		return mw.Decision{}, nil
	}
	key := cacheKey(e)
	if key == "" {
		return mw.Decision{}, nil
	}

	switch e.Name {
	case mw.EventBeforeLLMRequest:
		if v, ok := l.cache.Get(key); ok {
			reply := v.(string)
			return mw.Decision{
				Cancel:      true,
				ReplaceText: &reply,
				Reason:      "served from local cache",
			}, nil
		}
	case mw.EventAfterLLMResponse:
		if e.LLMText != "" {
			l.cache.Set(key, e.LLMText, cache.DefaultExpiration)
		}
	}

	return mw.Decision{}, nil
}

func cacheKey(e *mw.Event) string {
	text := strings.ToLower(strings.Join(strings.Fields(e.UserText), " "))
	if text == "" {
		return ""
	}
	learner, _ := e.Context[mw.CtxLearnerID].(string)
	return learner + "\x00" + text
}

func hasSystemContext(p *mw.LLMParams) bool {
	if p == nil {
		return false
	}
	for _, m := range p.Messages {
		if m.Role == "system" {
			return true
		}
	}
	return false
}
