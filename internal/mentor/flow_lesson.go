package mentor

import (
	"fmt"
	"strings"
)

// resolveLesson works out which lesson a schedule or edit request names.
// It returns the lesson when exactly one fits, otherwise the candidates
// (possibly none). A pronoun refers to the current selection.
func resolveLesson(st State, text string, in Input) (*LessonRecord, []LessonRecord) {
	phrase, pronoun := lessonPhrase(text)
	if pronoun {
		return st.Selected, nil
	}
	if _, generic := genericRefs[phrase]; generic {
		return nil, nil
	}
	if phrase == "" {
		phrase = text
	}
	return pickLesson(in, phrase, st.Selected)
}

// pickLesson matches a phrase against the library. fallback is used when
// nothing matches.
func pickLesson(in Input, phrase string, fallback *LessonRecord) (*LessonRecord, []LessonRecord) {
	matches := matchLessons(in.AllLessons, phrase)
	switch {
	case len(matches) == 1:
		l := matches[0]
		return &l, nil
	case len(matches) == 0:
		return fallback, nil
	case len(matches) > maxSearchResults:
		matches = matches[:maxSearchResults]
	}
	return nil, matches
}

/* ------------------------------ schedule ------------------------------ */

func startSchedule(st State, text string, in Input, deps Deps) (State, Output) {
	if !in.hasLearner() {
		return st, needLearner("schedule a lesson")
	}
	f := &ScheduleFlow{}
	if d, ok := ExtractDate(text, deps.now()); ok {
		f.Date = d
	}
	f.Lesson, f.Candidates = resolveLesson(st, text, in)
	return advanceSchedule(st, f, in)
}

func advanceSchedule(st State, f *ScheduleFlow, in Input) (State, Output) {
	who := in.learnerLabel()
	switch {
	case f.Lesson == nil && len(f.Candidates) > 0:
		return st.with(f, PromptScheduleSelection), reply(fmt.Sprintf(
			"A few lessons could match:\n%s\n\nWhich one should I schedule for %s?", numberedLessons(f.Candidates), who))
	case f.Lesson == nil:
		return st.with(f, PromptScheduleLesson), reply(fmt.Sprintf(
			"Which lesson would you like to schedule for %s?", who))
	case f.Date == "":
		return st.with(f, PromptScheduleDate), reply(fmt.Sprintf(
			"When should %s do %q? You can say a date like \"next Monday\" or \"12/18\".", who, f.Lesson.Title))
	}
	return st.with(f, PromptConfirm), reply(fmt.Sprintf(
		"Schedule %q for %s on %s?", f.Lesson.Title, who, FormatDate(f.Date)))
}

func answerSchedule(st State, text string, in Input, deps Deps) (State, Output) {
	cur, ok := st.Data.(*ScheduleFlow)
	if !ok {
		return lost(st, text)
	}
	f := *cur

	switch st.Awaiting {
	case PromptScheduleLesson:
		lesson, candidates := pickLesson(in, text, nil)
		if lesson == nil && len(candidates) == 0 {
			return st, reply(fmt.Sprintf("I couldn't find a lesson called %q. Which lesson should I schedule?",
				truncate(text, 60)))
		}
		f.Lesson, f.Candidates = lesson, candidates
		if f.Date == "" {
			if d, ok := ExtractDate(text, deps.now()); ok {
				f.Date = d
			}
		}

	case PromptScheduleSelection:
		idx := pickIndex(text, lessonTitles(f.Candidates))
		if idx < 0 {
			return st, reply(fmt.Sprintf("Which one? Pick a number from 1 to %d:\n%s",
				len(f.Candidates), numberedLessons(f.Candidates)))
		}
		lesson := f.Candidates[idx]
		f.Lesson, f.Candidates = &lesson, nil

	case PromptScheduleDate:
		d, ok := ExtractDate(text, deps.now())
		if !ok {
			return st, reply("I didn't catch a date. Try something like \"tomorrow\", \"next Friday\" or \"2025-12-18\".")
		}
		f.Date = d
	}

	return advanceSchedule(st, &f, in)
}

/* -------------------------------- edit -------------------------------- */

func startEdit(st State, text string, in Input) (State, Output) {
	f := &EditFlow{}
	f.Lesson, f.Candidates = resolveLesson(st, text, in)
	return advanceEdit(st, f)
}

func advanceEdit(st State, f *EditFlow) (State, Output) {
	switch {
	case f.Lesson == nil && len(f.Candidates) > 0:
		return st.with(f, PromptEditSelection), reply(fmt.Sprintf(
			"A few lessons could match:\n%s\n\nWhich one would you like to edit?", numberedLessons(f.Candidates)))
	case f.Lesson == nil:
		return st.with(f, PromptEditLesson), reply("Which lesson would you like to edit?")
	case f.Instructions == "":
		return st.with(f, PromptEditChanges), reply(fmt.Sprintf(
			"What would you like to change in %q?", f.Lesson.Title))
	}
	return st.with(f, PromptConfirm), reply(fmt.Sprintf(
		"I'll update %q with these changes: %s. Should I go ahead?", f.Lesson.Title, truncate(f.Instructions, 200)))
}

func answerEdit(st State, text string, in Input) (State, Output) {
	cur, ok := st.Data.(*EditFlow)
	if !ok {
		return lost(st, text)
	}
	f := *cur

	switch st.Awaiting {
	case PromptEditLesson:
		lesson, candidates := pickLesson(in, text, nil)
		if lesson == nil && len(candidates) == 0 {
			return st, reply(fmt.Sprintf("I couldn't find a lesson called %q. Which lesson should I edit?",
				truncate(text, 60)))
		}
		f.Lesson, f.Candidates = lesson, candidates

	case PromptEditSelection:
		idx := pickIndex(text, lessonTitles(f.Candidates))
		if idx < 0 {
			return st, reply(fmt.Sprintf("Which one? Pick a number from 1 to %d:\n%s",
				len(f.Candidates), numberedLessons(f.Candidates)))
		}
		lesson := f.Candidates[idx]
		f.Lesson, f.Candidates = &lesson, nil

	case PromptEditChanges:
		changes := strings.TrimSpace(text)
		if len(tokenSet(changes)) == 0 {
			return st, reply(fmt.Sprintf("Tell me what to change in %q, for example \"add two practice problems\".",
				f.Lesson.Title))
		}
		f.Instructions = changes
	}

	return advanceEdit(st, &f)
}
