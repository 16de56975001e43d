package planner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbot/internal/mentor"
)

func openSeeded(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, s.Seed(ctx, c))
	return s
}

func TestSeedAndQueries(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	learners, err := s.Learners(ctx)
	require.NoError(t, err)
	require.Len(t, learners, 2)
	assert.Equal(t, "Ava", learners[0].Name)

	bySubject, err := s.LessonsBySubject(ctx)
	require.NoError(t, err)
	assert.Len(t, bySubject["math"], 3)
	assert.Len(t, bySubject["science"], 3)
	assert.Len(t, bySubject["language arts"], 2)

	// seeding twice is idempotent
	c, err := DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, s.Seed(ctx, c))
	lessons, err := s.Lessons(ctx)
	require.NoError(t, err)
	assert.Len(t, lessons, 10)
}

func TestInput(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	in, err := s.Input(ctx, "ava")
	require.NoError(t, err)
	assert.Equal(t, "Ava", in.LearnerName)
	assert.Equal(t, "5th", in.LearnerGrade)
	assert.NotEmpty(t, in.AllLessons["science"])

	in, err = s.Input(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, in.LearnerID)

	_, err = s.Input(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApplySchedule(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	r, err := s.Apply(ctx, &mentor.Action{
		Type:      mentor.ActionSchedule,
		LearnerID: "ava",
		Lesson:    &mentor.LessonRecord{Key: "sci-volcano-lab"},
		Date:      "2025-11-21",
	})
	require.NoError(t, err)
	assert.NotZero(t, r.RecordID)

	sched, err := s.Schedule(ctx, "ava")
	require.NoError(t, err)
	require.Len(t, sched, 1)
	assert.Equal(t, "Volcano Lab", sched[0].LessonTitle)
	assert.Equal(t, "2025-11-21", sched[0].Date)

	_, err = s.Apply(ctx, &mentor.Action{
		Type:      mentor.ActionSchedule,
		LearnerID: "ava",
		Lesson:    &mentor.LessonRecord{Key: "no-such-lesson"},
		Date:      "2025-11-21",
	})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApplyGenerate(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	r, err := s.Apply(ctx, &mentor.Action{
		Type:       mentor.ActionGenerate,
		LearnerID:  "ava",
		Title:      "Fraction Pizza Party",
		Topic:      "fractions",
		Grade:      "5th",
		Subject:    "math",
		Difficulty: "Beginner",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.LessonKey, "gen-"))

	l, err := s.Lesson(ctx, r.LessonKey)
	require.NoError(t, err)
	assert.True(t, l.IsGenerated)
	assert.Equal(t, "Fraction Pizza Party", l.Title)

	bySubject, err := s.LessonsBySubject(ctx)
	require.NoError(t, err)
	assert.Len(t, bySubject["math"], 4)
}

func TestApplyEdit(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	r, err := s.Apply(ctx, &mentor.Action{
		Type:         mentor.ActionEdit,
		Lesson:       &mentor.LessonRecord{Key: "sci-volcano-lab"},
		Instructions: " add a safety section ",
	})
	require.NoError(t, err)
	assert.NotZero(t, r.RecordID)

	edits, err := s.PendingEdits(ctx)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "add a safety section", edits[0].Instructions)
	assert.Equal(t, "pending", edits[0].Status)
}

func TestApplyRejectsIncompleteActions(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, nil)
	assert.Error(t, err)
	_, err = s.Apply(ctx, &mentor.Action{Type: mentor.ActionSchedule, LearnerID: "ava"})
	assert.Error(t, err)
	_, err = s.Apply(ctx, &mentor.Action{Type: mentor.ActionGenerate})
	assert.Error(t, err)
	_, err = s.Apply(ctx, &mentor.Action{Type: "teleport"})
	assert.Error(t, err)
}

func TestParseCatalogValidation(t *testing.T) {
	_, err := ParseCatalog([]byte("lessons:\n  - {title: No Key}\n"))
	assert.Error(t, err)
	_, err = ParseCatalog([]byte("learners:\n  - {id: x}\n"))
	assert.Error(t, err)
}
