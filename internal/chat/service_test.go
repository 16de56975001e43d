package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"mentorbot/internal/mentor"
	"mentorbot/internal/middleware"
	"mentorbot/middlewares/greeting"
	mentormw "mentorbot/middlewares/mentor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAdapter struct {
	replies []string
	err     error
	calls   []*middleware.LLMParams
}

func (f *fakeAdapter) ReplyStream(_ context.Context, params *middleware.LLMParams, streamFn func(string)) (string, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if streamFn != nil {
		streamFn(r)
	}
	return r, nil
}

var library = map[string][]mentor.LessonRecord{
	"science": {{Key: "s2", Title: "Volcano Lab", Grade: "5th", Subject: "science"}},
}

func input() mentor.Input {
	return mentor.Input{AllLessons: library, LearnerID: "learner-1", LearnerName: "Ava", LearnerGrade: "5th"}
}

func newTestService(t *testing.T, adapter Adapter, opts ...ServiceOption) *Service {
	now := time.Date(2025, time.November, 20, 15, 30, 0, 0, time.UTC)
	chain := middleware.NewChain(
		mentormw.New(middleware.Env{Logger: zaptest.NewLogger(t), Now: func() time.Time { return now }}),
		greeting.Greeting{},
	)
	opts = append([]ServiceOption{
		WithMiddlewareChain(chain),
		WithSessionID("s-1"),
		WithLogger(zaptest.NewLogger(t)),
	}, opts...)
	return NewService(adapter, opts...)
}

func TestSendEmptyInput(t *testing.T) {
	s := NewService(&fakeAdapter{})
	_, err := s.Send(context.Background(), "   ", mentor.Input{})
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestSendForwardsToModel(t *testing.T) {
	fa := &fakeAdapter{replies: []string{"Why did the volcano blush? It saw the lava."}}
	var streamed string
	s := newTestService(t, fa, WithModel("llama3"), WithMaxTokens(256), WithStreamCallback(func(c string) { streamed += c }))

	r, err := s.Send(context.Background(), "tell me a joke", input())
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, r.Source)
	assert.Equal(t, "Why did the volcano blush? It saw the lava.", r.Text)
	assert.Equal(t, r.Text, streamed)

	require.Len(t, fa.calls, 1)
	req := fa.calls[0]
	assert.Equal(t, "llama3", req.Model)
	assert.Equal(t, 256, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, middleware.Message{Role: "user", Text: "tell me a joke"}, req.Messages[0])
	assert.Len(t, s.History(), 2)
}

func TestSendHandledByMentor(t *testing.T) {
	fa := &fakeAdapter{}
	s := newTestService(t, fa)
	ctx := context.Background()

	r, err := s.Send(ctx, "schedule volcano lab for friday", input())
	require.NoError(t, err)
	assert.Equal(t, mentormw.ID, r.Source)
	assert.Contains(t, r.Text, "Volcano Lab")
	assert.Nil(t, r.Action)

	r, err = s.Send(ctx, "yes", input())
	require.NoError(t, err)
	require.NotNil(t, r.Action)
	assert.Equal(t, mentor.ActionSchedule, r.Action.Type)
	assert.Equal(t, "2025-11-21", r.Action.Date)
	assert.Empty(t, fa.calls)
	assert.Len(t, s.History(), 4)
}

func TestSendGreeting(t *testing.T) {
	s := newTestService(t, &fakeAdapter{})
	r, err := s.Send(context.Background(), "hello!", input())
	require.NoError(t, err)
	assert.Equal(t, "greeting", r.Source)
	assert.Contains(t, r.Text, "Ava")
}

func TestMentorRecallSeesHistory(t *testing.T) {
	fa := &fakeAdapter{replies: []string{"Volcanoes erupt lava."}}
	s := newTestService(t, fa)
	ctx := context.Background()

	_, err := s.Send(ctx, "tell me about volcanoes", input())
	require.NoError(t, err)

	r, err := s.Send(ctx, "do you remember volcanoes", input())
	require.NoError(t, err)
	assert.Equal(t, mentormw.ID, r.Source)
	assert.Contains(t, r.Text, "Volcanoes erupt lava.")
	assert.Len(t, fa.calls, 1)
}

func TestSendModelErrors(t *testing.T) {
	s := newTestService(t, &fakeAdapter{err: errors.New("connection refused")})
	_, err := s.Send(context.Background(), "tell me a joke", input())
	require.Error(t, err)
	assert.Empty(t, s.History())

	s = newTestService(t, &fakeAdapter{})
	_, err = s.Send(context.Background(), "tell me a joke", input())
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestClearResetsMentorFlow(t *testing.T) {
	fa := &fakeAdapter{replies: []string{"Sure, what's up?"}}
	s := newTestService(t, fa)
	ctx := context.Background()

	_, err := s.Send(ctx, "schedule volcano lab for friday", input())
	require.NoError(t, err)
	s.Clear()
	assert.Empty(t, s.History())

	// With the flow gone "yes" is ordinary chat.
	r, err := s.Send(ctx, "yes", input())
	require.NoError(t, err)
	assert.Equal(t, SourceLLM, r.Source)
	assert.Nil(t, r.Action)
}
