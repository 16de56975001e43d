package mentor

import (
	"context"
	"fmt"
	"strings"
)

// Step advances a session by one user message. It is a pure function of its
// arguments apart from the title normalizer in deps: st is never modified and
// the returned State replaces it.
//
// Bypass phrases always reset and forward. While a prompt is pending the
// message answers it; otherwise the message is classified and may start a
// new flow. Anything unrecognized is forwarded to the LLM.
func Step(ctx context.Context, st State, msg string, in Input, deps Deps) (State, Output) {
	text := strings.TrimSpace(msg)
	if normalize(text) == "" {
		return st, forward(text)
	}

	if isBypass(text) {
		out := forward(text)
		out.Forward.BypassInterceptor = true
		return st.Reset(), out
	}

	if st.Awaiting != PromptNone {
		return resume(ctx, st, text, in, deps)
	}

	flow, _ := Classify(text)
	return start(st.clearFlow(), flow, text, in, deps)
}

func start(st State, flow Flow, text string, in Input, deps Deps) (State, Output) {
	switch flow {
	case FlowSearch:
		return startSearch(st, text, in)
	case FlowGenerate:
		return startGenerate(st, text, in)
	case FlowSchedule:
		return startSchedule(st, text, in, deps)
	case FlowEdit:
		return startEdit(st, text, in)
	case FlowRecall:
		return startRecall(st, text, in)
	case FlowFAQ:
		return startFAQ(st, text, deps)
	default:
		return st, forward(text)
	}
}

func resume(ctx context.Context, st State, text string, in Input, deps Deps) (State, Output) {
	switch st.Awaiting {
	case PromptConfirm:
		return answerConfirm(st, text, in)
	case PromptLessonSelection:
		return answerLessonSelection(st, text)
	case PromptLessonAction:
		return answerLessonAction(st, text, in, deps)
	case PromptGenerateTopic, PromptGenerateGradeConfirm, PromptGenerateGrade,
		PromptGenerateSubject, PromptGenerateDifficulty, PromptGenerateTitle:
		return answerGenerate(ctx, st, text, in, deps)
	case PromptScheduleLesson, PromptScheduleSelection, PromptScheduleDate:
		return answerSchedule(st, text, in, deps)
	case PromptEditLesson, PromptEditSelection, PromptEditChanges:
		return answerEdit(st, text, in)
	case PromptRecallMore:
		return answerRecallMore(st, text)
	case PromptFAQSelect, PromptFAQConfirm:
		return answerFAQ(st, text, deps)
	}
	// A prompt without a handler cannot be answered; start over.
	return st.Reset(), forward(text)
}

// lost handles a pending prompt whose flow data does not match it.
func lost(st State, text string) (State, Output) {
	return st.Reset(), forward(text)
}

func needLearner(task string) Output {
	return reply(fmt.Sprintf("Please select a learner first, then I can %s for them.", task))
}
