package gateway

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap/zaptest"

	"mentorbot/internal/chat"
	"mentorbot/internal/config"
	"mentorbot/internal/mentor"
	mentormw "mentorbot/middlewares/mentor"
)

type cannedModel struct{ reply string }

func (m cannedModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m cannedModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, opts...)
}

// streamingModel sends its reply through the streaming callback in chunks.
type streamingModel struct{ chunks []string }

func (m streamingModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, c := range m.chunks {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: strings.Join(m.chunks, "")}}}, nil
}

func (m streamingModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, opts...)
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	return newTestGatewayWith(t, cannedModel{reply: "Here is a fun fact about lava."})
}

func newTestGatewayWith(t *testing.T, model llms.Model) *Gateway {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "mentor.db")
	cfg.DebugLogPath = filepath.Join(dir, "debug.jsonl")

	now := time.Date(2025, time.November, 20, 15, 30, 0, 0, time.UTC)
	g, err := New(context.Background(), cfg, zaptest.NewLogger(t),
		WithModel(model),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestTurnAppliesConfirmedSchedule(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	s := g.Sessions.Create()

	_, err := g.SelectLearner(ctx, s, "ava")
	require.NoError(t, err)

	res, err := g.Turn(ctx, s, "schedule volcano lab for friday")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Friday, November 21, 2025")
	assert.Nil(t, res.Receipt)

	res, err = g.Turn(ctx, s, "yes")
	require.NoError(t, err)
	require.NotNil(t, res.Action)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, mentor.ActionSchedule, res.Receipt.Type)
	assert.Equal(t, "sci-volcano-lab", res.Receipt.LessonKey)

	items, err := g.Store.Schedule(ctx, "ava")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2025-11-21", items[0].Date)
}

func TestTurnApplyFailureForgetsAction(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	s := g.Sessions.Create()

	_, err := g.SelectLearner(ctx, s, "ava")
	require.NoError(t, err)
	_, err = g.Turn(ctx, s, "schedule volcano lab for friday")
	require.NoError(t, err)

	// the lesson disappears before the facilitator confirms
	db, err := sqlx.Open("sqlite", g.Config.DBPath+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM lessons WHERE lesson_key = ?`, "sci-volcano-lab")
	require.NoError(t, err)

	res, err := g.Turn(ctx, s, "yes")
	require.NoError(t, err)
	assert.Nil(t, res.Receipt)
	assert.Contains(t, res.Text, "couldn't save that")

	var ic *mentor.Interceptor
	for _, m := range g.Chain.List() {
		if mm, ok := m.(*mentormw.Mentor); ok {
			ic = mm.Interceptor(s.ID)
		}
	}
	require.NotNil(t, ic)
	assert.Empty(t, ic.State().Memory)
}

func TestRunREPLStreamsModelOutput(t *testing.T) {
	g := newTestGatewayWith(t, streamingModel{chunks: []string{"Lava is ", "molten rock."}})
	in := strings.NewReader("tell me something about lava\n/exit\n")
	var out bytes.Buffer

	require.NoError(t, g.Run(context.Background(), "", in, &out))
	assert.Contains(t, out.String(), "Lava is molten rock.")
	assert.Equal(t, 1, strings.Count(out.String(), "molten rock."))
}

func TestTurnWithoutLearnerAsksForOne(t *testing.T) {
	g := newTestGateway(t)
	res, err := g.Turn(context.Background(), g.Sessions.Create(), "schedule volcano lab for friday")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "select a learner")
	assert.Equal(t, "mentor", res.Source)
}

func TestTurnForwardsToModel(t *testing.T) {
	g := newTestGateway(t)
	res, err := g.Turn(context.Background(), g.Sessions.Create(), "tell me something about lava")
	require.NoError(t, err)
	assert.Equal(t, chat.SourceLLM, res.Source)
	assert.Equal(t, "Here is a fun fact about lava.", res.Text)
}

func TestRunREPL(t *testing.T) {
	g := newTestGateway(t)
	in := strings.NewReader(strings.Join([]string{
		"/learners",
		"/learner nobody",
		"/learner leo",
		"tell me something about lava",
		"/schedule",
		"/exit",
		"never reached",
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, g.Run(context.Background(), "", in, &out))
	got := out.String()
	assert.Contains(t, got, "ava  Ava (5th)")
	assert.Contains(t, got, "no learner nobody")
	assert.Contains(t, got, "now planning for Leo")
	assert.Contains(t, got, "Here is a fun fact about lava.")
	assert.Contains(t, got, "nothing scheduled yet")
}

func TestExecute(t *testing.T) {
	g := newTestGateway(t)
	var out bytes.Buffer
	require.NoError(t, g.Execute(context.Background(), "ava", "hello", &out))
	assert.Contains(t, out.String(), "Ava")
	assert.Equal(t, 0, g.Sessions.Count())
}
