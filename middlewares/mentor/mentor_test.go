package mentor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	mw "mentorbot/internal/middleware"
	core "mentorbot/internal/mentor"
)

var library = map[string][]core.LessonRecord{
	"science": {
		{Key: "s1", Title: "Photosynthesis Explorers", Grade: "4th", Subject: "science"},
		{Key: "s2", Title: "Volcano Lab", Grade: "5th", Subject: "science"},
	},
}

func newTestMentor(t *testing.T) *Mentor {
	now := time.Date(2025, time.November, 20, 15, 30, 0, 0, time.UTC)
	return New(mw.Env{
		Logger: zaptest.NewLogger(t),
		Now:    func() time.Time { return now },
	})
}

func turn(session, text string) *mw.Event {
	return &mw.Event{
		Name:     mw.EventBeforeLLMRequest,
		UserText: text,
		Params:   &mw.LLMParams{Messages: []mw.Message{{Role: "user", Text: text}}},
		Context: map[string]any{
			mw.CtxSessionID: session,
			mw.CtxMentorInput: core.Input{
				AllLessons:  library,
				LearnerID:   "learner-1",
				LearnerName: "Ava",
			},
		},
	}
}

func TestHandledTurnCancelsWithAction(t *testing.T) {
	m := newTestMentor(t)
	ctx := context.Background()

	dec, err := m.OnEvent(ctx, turn("s-1", "schedule volcano lab for friday"))
	require.NoError(t, err)
	assert.True(t, dec.Cancel)
	require.NotNil(t, dec.ReplaceText)
	assert.Contains(t, *dec.ReplaceText, "Friday, November 21, 2025")

	e := turn("s-1", "yes")
	dec, err = m.OnEvent(ctx, e)
	require.NoError(t, err)
	assert.True(t, dec.Cancel)
	action, ok := e.Context[mw.CtxMentorAction].(*core.Action)
	require.True(t, ok)
	assert.Equal(t, core.ActionSchedule, action.Type)
	assert.Equal(t, "2025-11-21", action.Date)
	assert.Equal(t, "s2", action.Lesson.Key)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newTestMentor(t)
	ctx := context.Background()

	_, err := m.OnEvent(ctx, turn("s-1", "schedule volcano lab for friday"))
	require.NoError(t, err)

	// The other session has no pending confirmation, so "yes" is forwarded.
	dec, err := m.OnEvent(ctx, turn("s-2", "yes"))
	require.NoError(t, err)
	assert.False(t, dec.Cancel)
	assert.True(t, m.Interceptor("s-1").State().AwaitingConfirmation())

	m.Forget("s-1")
	assert.False(t, m.Interceptor("s-1").State().AwaitingConfirmation())
}

func TestActionFailedForgetsNote(t *testing.T) {
	m := newTestMentor(t)
	ctx := context.Background()

	_, err := m.OnEvent(ctx, turn("s-1", "schedule volcano lab for friday"))
	require.NoError(t, err)
	e := turn("s-1", "yes")
	_, err = m.OnEvent(ctx, e)
	require.NoError(t, err)
	action := e.Context[mw.CtxMentorAction].(*core.Action)
	require.Len(t, m.Interceptor("s-1").State().Memory, 1)

	// unknown sessions are ignored
	m.ActionFailed("s-2", action)
	assert.Len(t, m.Interceptor("s-1").State().Memory, 1)

	mw.NewChain(m).ActionFailed("s-1", action)
	assert.Empty(t, m.Interceptor("s-1").State().Memory)
}

func TestDiscussForwardAddsSystemContext(t *testing.T) {
	m := newTestMentor(t)
	ctx := context.Background()

	_, err := m.OnEvent(ctx, turn("s-1", "find science lessons"))
	require.NoError(t, err)
	_, err = m.OnEvent(ctx, turn("s-1", "volcano lab"))
	require.NoError(t, err)

	dec, err := m.OnEvent(ctx, turn("s-1", "let's talk about it"))
	require.NoError(t, err)
	assert.False(t, dec.Cancel)
	require.NotNil(t, dec.OverrideParams)
	require.Len(t, dec.OverrideParams.Messages, 2)
	assert.Equal(t, "system", dec.OverrideParams.Messages[0].Role)
	assert.Contains(t, dec.OverrideParams.Messages[0].Text, "Volcano Lab")
}

func TestBypassDisablesGreeting(t *testing.T) {
	m := newTestMentor(t)
	ctx := context.Background()

	_, err := m.OnEvent(ctx, turn("s-1", "create a lesson"))
	require.NoError(t, err)

	e := turn("s-1", "never mind")
	dec, err := m.OnEvent(ctx, e)
	require.NoError(t, err)
	assert.False(t, dec.Cancel)
	assert.Equal(t, false, e.Context[mw.CtxGreeting])
}

func TestShouldLoadNeedsSession(t *testing.T) {
	m := newTestMentor(t)
	assert.False(t, m.ShouldLoad(context.Background(), &mw.Event{Name: mw.EventBeforeLLMRequest}))
	assert.True(t, m.ShouldLoad(context.Background(), turn("s-1", "hi")))
}

func TestAfterResponseIsIgnored(t *testing.T) {
	m := newTestMentor(t)
	dec, err := m.OnEvent(context.Background(), &mw.Event{Name: mw.EventAfterLLMResponse, LLMText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, mw.Decision{}, dec)
}
