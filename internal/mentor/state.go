package mentor

// Flow tags the slot-filling process a session is in.
type Flow string

const (
	FlowNone     Flow = ""
	FlowSearch   Flow = "search"
	FlowGenerate Flow = "generate"
	FlowSchedule Flow = "schedule"
	FlowEdit     Flow = "edit"
	FlowRecall   Flow = "recall"
	FlowFAQ      Flow = "faq"
)

// Prompt names the answer the next message is expected to supply.
// PromptConfirm is the yes/no confirmation of a completed flow; every other
// non-empty prompt is a single pending parameter. Keeping both in one field
// means a session can never await a confirmation and an input at once.
type Prompt string

const (
	PromptNone Prompt = ""

	PromptConfirm Prompt = "confirm"

	PromptLessonSelection Prompt = "lesson_selection"
	PromptLessonAction    Prompt = "lesson_action"

	PromptGenerateTopic        Prompt = "generate_topic"
	PromptGenerateGradeConfirm Prompt = "generate_grade_confirm"
	PromptGenerateGrade        Prompt = "generate_grade"
	PromptGenerateSubject      Prompt = "generate_subject"
	PromptGenerateDifficulty   Prompt = "generate_difficulty"
	PromptGenerateTitle        Prompt = "generate_title"

	PromptScheduleLesson    Prompt = "schedule_lesson"
	PromptScheduleSelection Prompt = "schedule_lesson_selection"
	PromptScheduleDate      Prompt = "schedule_date"

	PromptEditLesson    Prompt = "edit_lesson"
	PromptEditSelection Prompt = "edit_lesson_selection"
	PromptEditChanges   Prompt = "edit_changes"

	PromptRecallMore Prompt = "recall_more"

	PromptFAQSelect  Prompt = "faq_feature_select"
	PromptFAQConfirm Prompt = "faq_feature_confirm"
)

// FlowData is the per-flow context gathered so far. Exactly one concrete type
// exists per Flow; a nil FlowData means the session is idle.
type FlowData interface {
	Flow() Flow
}

type SearchFlow struct {
	Query   string
	Results []LessonRecord
}

type GenerateFlow struct {
	Topic            string
	Grade            string
	SuggestedGrade   string
	Subject          string
	SuggestedSubject string
	Difficulty       string
	Title            string
}

type ScheduleFlow struct {
	Date       string
	Lesson     *LessonRecord
	Candidates []LessonRecord
}

type EditFlow struct {
	Lesson       *LessonRecord
	Candidates   []LessonRecord
	Instructions string
}

type RecallFlow struct {
	Query   string
	Matches []string
	Index   int
}

type FAQFlow struct {
	Question   string
	Candidates []Feature
	SelectedID string
}

func (*SearchFlow) Flow() Flow   { return FlowSearch }
func (*GenerateFlow) Flow() Flow { return FlowGenerate }
func (*ScheduleFlow) Flow() Flow { return FlowSchedule }
func (*EditFlow) Flow() Flow     { return FlowEdit }
func (*RecallFlow) Flow() Flow   { return FlowRecall }
func (*FAQFlow) Flow() Flow      { return FlowFAQ }

// maxMemory bounds the conversation memory kept across resets.
const maxMemory = 20

// State is the whole dialogue state of one chat session. It is a value:
// Step never mutates the State it receives, flow data included.
type State struct {
	Data     FlowData
	Awaiting Prompt
	Selected *LessonRecord
	// Memory survives Reset: short notes about completed actions that recall
	// searches alongside the chat history.
	Memory []string
}

// Flow returns the active flow, FlowNone when idle.
func (s State) Flow() Flow {
	if s.Data == nil {
		return FlowNone
	}
	return s.Data.Flow()
}

func (s State) AwaitingConfirmation() bool { return s.Awaiting == PromptConfirm }

// AwaitingInput returns the pending parameter prompt, or PromptNone when the
// session is idle or waiting for a confirmation.
func (s State) AwaitingInput() Prompt {
	if s.Awaiting == PromptConfirm {
		return PromptNone
	}
	return s.Awaiting
}

// Reset discards the active flow and selection but keeps Memory.
func (s State) Reset() State {
	return State{Memory: s.Memory}
}

// clearFlow discards the active flow but keeps the selected lesson and
// Memory, so "it" can still refer to the last picked lesson.
func (s State) clearFlow() State {
	return State{Memory: s.Memory, Selected: s.Selected}
}

func (s State) remember(note string) State {
	mem := make([]string, 0, len(s.Memory)+1)
	mem = append(mem, s.Memory...)
	mem = append(mem, note)
	if len(mem) > maxMemory {
		mem = mem[len(mem)-maxMemory:]
	}
	s.Memory = mem
	return s
}

// forget removes the most recent occurrence of note from Memory.
func (s State) forget(note string) State {
	for i := len(s.Memory) - 1; i >= 0; i-- {
		if s.Memory[i] != note {
			continue
		}
		mem := make([]string, 0, len(s.Memory)-1)
		mem = append(mem, s.Memory[:i]...)
		s.Memory = append(mem, s.Memory[i+1:]...)
		break
	}
	return s
}

// with replaces the flow data and pending prompt.
func (s State) with(data FlowData, awaiting Prompt) State {
	s.Data = data
	s.Awaiting = awaiting
	return s
}
