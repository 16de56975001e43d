// Package planner stores learners, lessons and the calendar, and carries
// out the actions the mentor confirms.
package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

const schema = `
PRAGMA foreign_keys = ON;
CREATE TABLE IF NOT EXISTS learners (
    id    TEXT PRIMARY KEY,
    name  TEXT NOT NULL,
    grade TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS lessons (
    lesson_key   TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    grade        TEXT NOT NULL DEFAULT '',
    subject      TEXT NOT NULL DEFAULT 'general',
    difficulty   TEXT NOT NULL DEFAULT '',
    topic        TEXT NOT NULL DEFAULT '',
    is_generated INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS schedule (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    learner_id TEXT NOT NULL REFERENCES learners(id),
    lesson_key TEXT NOT NULL REFERENCES lessons(lesson_key),
    date       TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS edits (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    learner_id   TEXT NOT NULL DEFAULT '',
    lesson_key   TEXT NOT NULL REFERENCES lessons(lesson_key),
    instructions TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending',
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS schedule_learner_date ON schedule(learner_id, date);
`

const upsertLearner = `
INSERT INTO learners (id, name, grade) VALUES (:id, :name, :grade)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, grade = excluded.grade`

const upsertLesson = `
INSERT INTO lessons (lesson_key, title, grade, subject, difficulty, topic, is_generated)
VALUES (:lesson_key, :title, :grade, :subject, :difficulty, :topic, :is_generated)
ON CONFLICT(lesson_key) DO UPDATE SET
    title = excluded.title, grade = excluded.grade, subject = excluded.subject,
    difficulty = excluded.difficulty, topic = excluded.topic`

type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path (":memory:" for a private
// in-memory database) and creates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open planner db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate planner db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Learners(ctx context.Context) ([]Learner, error) {
	var out []Learner
	err := s.db.SelectContext(ctx, &out, `SELECT id, name, grade FROM learners ORDER BY name`)
	return out, err
}

func (s *Store) Learner(ctx context.Context, id string) (Learner, error) {
	var l Learner
	err := s.db.GetContext(ctx, &l, `SELECT id, name, grade FROM learners WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Learner{}, fmt.Errorf("learner %s: %w", id, ErrNotFound)
	}
	return l, err
}

func (s *Store) UpsertLearner(ctx context.Context, l Learner) error {
	_, err := s.db.NamedExecContext(ctx, upsertLearner, l)
	return err
}

func (s *Store) Lessons(ctx context.Context) ([]Lesson, error) {
	var out []Lesson
	err := s.db.SelectContext(ctx, &out, `
        SELECT lesson_key, title, grade, subject, difficulty, topic, is_generated
        FROM lessons
        ORDER BY subject, title`)
	return out, err
}

func (s *Store) Lesson(ctx context.Context, key string) (Lesson, error) {
	var l Lesson
	err := s.db.GetContext(ctx, &l, `
        SELECT lesson_key, title, grade, subject, difficulty, topic, is_generated
        FROM lessons WHERE lesson_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, fmt.Errorf("lesson %s: %w", key, ErrNotFound)
	}
	return l, err
}

func (s *Store) UpsertLesson(ctx context.Context, l Lesson) error {
	if l.Subject == "" {
		l.Subject = "general"
	}
	_, err := s.db.NamedExecContext(ctx, upsertLesson, l)
	return err
}

// Schedule lists a learner's scheduled lessons by date.
func (s *Store) Schedule(ctx context.Context, learnerID string) ([]ScheduledLesson, error) {
	var out []ScheduledLesson
	err := s.db.SelectContext(ctx, &out, `
        SELECT s.id, s.learner_id, s.date, l.lesson_key, l.title, l.subject
        FROM schedule s JOIN lessons l ON l.lesson_key = s.lesson_key
        WHERE s.learner_id = ?
        ORDER BY s.date, s.id`, learnerID)
	return out, err
}

// PendingEdits lists edit requests not yet applied to their lesson.
func (s *Store) PendingEdits(ctx context.Context) ([]EditRequest, error) {
	var out []EditRequest
	err := s.db.SelectContext(ctx, &out, `
        SELECT id, learner_id, lesson_key, instructions, status
        FROM edits WHERE status = 'pending' ORDER BY id`)
	return out, err
}
