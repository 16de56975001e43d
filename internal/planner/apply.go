package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mentorbot/internal/mentor"
)

// LessonsBySubject returns every lesson grouped by subject, the shape the
// mentor searches.
func (s *Store) LessonsBySubject(ctx context.Context) (map[string][]mentor.LessonRecord, error) {
	lessons, err := s.Lessons(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]mentor.LessonRecord)
	for _, l := range lessons {
		out[l.Subject] = append(out[l.Subject], l.Record())
	}
	return out, nil
}

// Input assembles the mentor input for a turn. An empty learnerID yields an
// input without a learner.
func (s *Store) Input(ctx context.Context, learnerID string) (mentor.Input, error) {
	all, err := s.LessonsBySubject(ctx)
	if err != nil {
		return mentor.Input{}, fmt.Errorf("load lessons: %w", err)
	}
	in := mentor.Input{AllLessons: all}
	if learnerID == "" {
		return in, nil
	}
	l, err := s.Learner(ctx, learnerID)
	if err != nil {
		return mentor.Input{}, err
	}
	in.LearnerID, in.LearnerName, in.LearnerGrade = l.ID, l.Name, l.Grade
	return in, nil
}

// Apply performs a confirmed mentor action.
func (s *Store) Apply(ctx context.Context, a *mentor.Action) (Receipt, error) {
	if a == nil {
		return Receipt{}, errors.New("apply: nil action")
	}
	switch a.Type {
	case mentor.ActionSchedule:
		return s.applySchedule(ctx, a)
	case mentor.ActionGenerate:
		return s.applyGenerate(ctx, a)
	case mentor.ActionEdit:
		return s.applyEdit(ctx, a)
	default:
		return Receipt{}, fmt.Errorf("apply: unknown action type %q", a.Type)
	}
}

func (s *Store) applySchedule(ctx context.Context, a *mentor.Action) (Receipt, error) {
	if a.Lesson == nil || a.Date == "" {
		return Receipt{}, errors.New("schedule: lesson and date are required")
	}
	if _, err := s.Learner(ctx, a.LearnerID); err != nil {
		return Receipt{}, fmt.Errorf("schedule: %w", err)
	}
	if _, err := s.Lesson(ctx, a.Lesson.Key); err != nil {
		return Receipt{}, fmt.Errorf("schedule: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule (learner_id, lesson_key, date) VALUES (?, ?, ?)`,
		a.LearnerID, a.Lesson.Key, a.Date)
	if err != nil {
		return Receipt{}, fmt.Errorf("schedule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Receipt{}, fmt.Errorf("schedule: %w", err)
	}
	return Receipt{Type: a.Type, LessonKey: a.Lesson.Key, RecordID: id}, nil
}

func (s *Store) applyGenerate(ctx context.Context, a *mentor.Action) (Receipt, error) {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = strings.TrimSpace(a.Topic)
	}
	if title == "" {
		return Receipt{}, errors.New("generate: title or topic is required")
	}
	l := Lesson{
		Key:         "gen-" + uuid.NewString(),
		Title:       title,
		Grade:       a.Grade,
		Subject:     a.Subject,
		Difficulty:  a.Difficulty,
		Topic:       a.Topic,
		IsGenerated: true,
	}
	if err := s.UpsertLesson(ctx, l); err != nil {
		return Receipt{}, fmt.Errorf("generate: %w", err)
	}
	return Receipt{Type: a.Type, LessonKey: l.Key}, nil
}

func (s *Store) applyEdit(ctx context.Context, a *mentor.Action) (Receipt, error) {
	if a.Lesson == nil || strings.TrimSpace(a.Instructions) == "" {
		return Receipt{}, errors.New("edit: lesson and instructions are required")
	}
	if _, err := s.Lesson(ctx, a.Lesson.Key); err != nil {
		return Receipt{}, fmt.Errorf("edit: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO edits (learner_id, lesson_key, instructions) VALUES (?, ?, ?)`,
		a.LearnerID, a.Lesson.Key, strings.TrimSpace(a.Instructions))
	if err != nil {
		return Receipt{}, fmt.Errorf("edit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Receipt{}, fmt.Errorf("edit: %w", err)
	}
	return Receipt{Type: a.Type, LessonKey: a.Lesson.Key, RecordID: id}, nil
}
