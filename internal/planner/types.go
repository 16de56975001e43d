package planner

import "mentorbot/internal/mentor"

type Learner struct {
	ID    string `db:"id" json:"id" yaml:"id"`
	Name  string `db:"name" json:"name" yaml:"name"`
	Grade string `db:"grade" json:"grade" yaml:"grade"`
}

type Lesson struct {
	Key         string `db:"lesson_key" json:"key" yaml:"key"`
	Title       string `db:"title" json:"title" yaml:"title"`
	Grade       string `db:"grade" json:"grade" yaml:"grade"`
	Subject     string `db:"subject" json:"subject" yaml:"subject"`
	Difficulty  string `db:"difficulty" json:"difficulty" yaml:"difficulty"`
	Topic       string `db:"topic" json:"topic,omitempty" yaml:"topic"`
	IsGenerated bool   `db:"is_generated" json:"isGenerated" yaml:"is_generated"`
}

func (l Lesson) Record() mentor.LessonRecord {
	return mentor.LessonRecord{
		Key:         l.Key,
		Title:       l.Title,
		Grade:       l.Grade,
		Subject:     l.Subject,
		Difficulty:  l.Difficulty,
		IsGenerated: l.IsGenerated,
	}
}

type ScheduledLesson struct {
	ID          int64  `db:"id" json:"id"`
	LearnerID   string `db:"learner_id" json:"learnerId"`
	Date        string `db:"date" json:"date"`
	LessonKey   string `db:"lesson_key" json:"lessonKey"`
	LessonTitle string `db:"title" json:"lessonTitle"`
	Subject     string `db:"subject" json:"subject"`
}

type EditRequest struct {
	ID           int64  `db:"id" json:"id"`
	LearnerID    string `db:"learner_id" json:"learnerId"`
	LessonKey    string `db:"lesson_key" json:"lessonKey"`
	Instructions string `db:"instructions" json:"instructions"`
	Status       string `db:"status" json:"status"`
}

// Receipt describes what Apply changed.
type Receipt struct {
	Type      mentor.ActionType `json:"type"`
	LessonKey string            `json:"lessonKey"`
	RecordID  int64             `json:"recordId,omitempty"`
}
