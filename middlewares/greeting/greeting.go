// Package greeting answers a bare hello without a model call.
package greeting

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"mentorbot/internal/mentor"
	mw "mentorbot/internal/middleware"
)

const ID = "greeting"

func init() {
	mw.Register(ID, func(env mw.Env) (mw.Middleware, error) {
		return Greeting{now: env.Now}, nil
	})
}

// Greeting replies to salutations with a short pointer to what the mentor
// can do, addressed to the selected learner when there is one.
type Greeting struct {
	now func() time.Time
}

func (Greeting) ID() string    { return ID }
func (Greeting) Priority() int { return 110 } // after mentor, before the reply cache

func (Greeting) ShouldLoad(_ context.Context, e *mw.Event) bool {
	if e == nil {
		return true
	}
	if v, ok := e.Context[mw.CtxGreeting].(bool); ok {
		return v
	}
	return true
}

func (g Greeting) OnEvent(_ context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || e.Name != mw.EventBeforeLLMRequest || !isGreetingOnly(e.UserText) {
		return mw.Decision{}, nil
	}
	in, _ := e.Context[mw.CtxMentorInput].(mentor.Input)
	reply := g.reply(in)
	return mw.Decision{Cancel: true, ReplaceText: &reply, Reason: "greeting"}, nil
}

func (g Greeting) reply(in mentor.Input) string {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	hello := salutation(now().Hour())
	if in.LearnerName == "" {
		return hello + " Pick a learner and I can find, create or schedule lessons for them."
	}
	return fmt.Sprintf("%s Ready to plan something for %s? I can find a lesson, create a new one or put one on the calendar.", hello, in.LearnerName)
}

func salutation(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning!"
	case hour >= 12 && hour < 18:
		return "Good afternoon!"
	case hour >= 18 && hour < 23:
		return "Good evening!"
	}
	return "Hi!"
}

var greetWords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "heya": true, "howdy": true, "yo": true,
	"greetings": true, "morning": true, "afternoon": true, "evening": true,
}

// fillers may follow a greeting word: "hi there", "good morning mentor".
var fillers = map[string]bool{
	"there": true, "mentor": true, "mentorbot": true, "all": true, "everyone": true, "again": true,
}

func isGreetingOnly(s string) bool {
	words := strings.Fields(strings.ToLower(stripPunct(s)))
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	greeted := false
	for i, w := range words {
		switch {
		case greetWords[w]:
			greeted = true
		case w == "good" && i+1 < len(words) && greetWords[words[i+1]]:
		case fillers[w] && greeted:
		default:
			return false
		}
	}
	return greeted
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) && r != '\'' {
			return -1
		}
		return r
	}, s)
}
