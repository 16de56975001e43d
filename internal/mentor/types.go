package mentor

import (
	"context"
	"time"
)

// LessonRecord is a lesson as the host knows it. The core only reads it.
type LessonRecord struct {
	Key         string `json:"key" yaml:"key"`
	Title       string `json:"title" yaml:"title"`
	Grade       string `json:"grade" yaml:"grade"`
	Subject     string `json:"subject" yaml:"subject"`
	Difficulty  string `json:"difficulty" yaml:"difficulty"`
	IsGenerated bool   `json:"isGenerated" yaml:"is_generated"`
}

// Turn is one entry of the conversation history supplied by the host.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Input is everything the host knows about the session for one turn.
type Input struct {
	// AllLessons maps subject to the lessons filed under it.
	AllLessons   map[string][]LessonRecord
	LearnerID    string
	LearnerName  string
	LearnerGrade string
	History      []Turn
}

func (in Input) hasLearner() bool { return in.LearnerID != "" }

func (in Input) learnerLabel() string {
	if in.LearnerName != "" {
		return in.LearnerName
	}
	return "your learner"
}

// ActionType is the side effect the host performs for a confirmed flow.
type ActionType string

const (
	ActionSchedule ActionType = "schedule"
	ActionGenerate ActionType = "generate"
	ActionEdit     ActionType = "edit"
)

// Action is produced once when a flow is confirmed and consumed by the host.
type Action struct {
	Type      ActionType    `json:"type"`
	LearnerID string        `json:"learnerId,omitempty"`
	Lesson    *LessonRecord `json:"lesson,omitempty"`

	// schedule
	Date string `json:"date,omitempty"`

	// generate
	Title      string `json:"title,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Grade      string `json:"grade,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`

	// edit
	Instructions string `json:"instructions,omitempty"`

	// Note is what the session remembers about the action.
	Note string `json:"-"`
}

// Forward asks the host to send the turn to its LLM backend.
type Forward struct {
	Message string `json:"message"`
	// Context is an optional preamble for the model, e.g. the lesson under discussion.
	Context           string        `json:"context,omitempty"`
	Lesson            *LessonRecord `json:"lesson,omitempty"`
	BypassInterceptor bool          `json:"bypassInterceptor,omitempty"`
}

// Output is the result of one turn. Handled outputs carry a Response (and
// maybe an Action); unhandled ones carry a Forward.
type Output struct {
	Handled  bool     `json:"handled"`
	Response string   `json:"response,omitempty"`
	Action   *Action  `json:"action,omitempty"`
	Forward  *Forward `json:"apiForward,omitempty"`
}

func reply(text string) Output { return Output{Handled: true, Response: text} }

func forward(msg string) Output {
	return Output{Forward: &Forward{Message: msg}}
}

// Feature is one entry of the product feature index used for FAQ answers.
type Feature struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Summary     string   `json:"summary" yaml:"summary"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords"`
	Related     []string `json:"related,omitempty" yaml:"related"`
}

// FeatureIndex looks up product features for FAQ questions.
type FeatureIndex interface {
	Search(text string) []Feature
	ByID(id string) (Feature, bool)
}

// TitleNormalizer turns a facilitator's rough title into a clean lesson title.
type TitleNormalizer interface {
	NormalizeTitle(ctx context.Context, raw, topic string) (string, error)
}

// Deps are the collaborators Step consults. Zero values are usable: the
// clock defaults to time.Now, a nil index finds nothing and a nil normalizer
// keeps titles as typed.
type Deps struct {
	Now      func() time.Time
	Features FeatureIndex
	Titles   TitleNormalizer
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}
