package mentor

import "fmt"

var (
	scheduleWords = []string{"schedule", "calendar", "assign", "plan"}
	editWords     = []string{"edit", "change", "modify", "revise", "update", "tweak", "adjust"}
	discussWords  = []string{"discuss", "talk", "tell", "explain", "teach", "more about", "what is it", "summar"}
)

func startSearch(st State, text string, in Input) (State, Output) {
	if len(flattenLessons(in.AllLessons)) == 0 {
		return st, reply("There are no lessons in your library yet. You can ask me to create one.")
	}
	results := searchLessons(in.AllLessons, text)
	if len(results) == 0 {
		return st, reply("I couldn't find any lessons matching that. Try naming a subject, grade or topic, like \"4th grade science\".")
	}
	f := &SearchFlow{Query: text, Results: results}
	return st.with(f, PromptLessonSelection), reply(fmt.Sprintf(
		"Here's what I found:\n%s\n\nWhich one would you like? Reply with a number or the title.",
		numberedLessons(results)))
}

func answerLessonSelection(st State, text string) (State, Output) {
	f, ok := st.Data.(*SearchFlow)
	if !ok {
		return lost(st, text)
	}
	idx := pickIndex(text, lessonTitles(f.Results))
	if idx < 0 {
		return st, reply(fmt.Sprintf("Which lesson did you mean? Pick a number from 1 to %d:\n%s",
			len(f.Results), numberedLessons(f.Results)))
	}
	lesson := f.Results[idx]
	st.Selected = &lesson
	return st.with(f, PromptLessonAction), reply(fmt.Sprintf(
		"You picked %s. Would you like to schedule it, edit it, or talk about it?", describeLesson(lesson)))
}

func answerLessonAction(st State, text string, in Input, deps Deps) (State, Output) {
	if st.Selected == nil {
		return lost(st, text)
	}
	norm := normalize(text)
	switch {
	case hasAnyTerm(norm, scheduleWords):
		if !in.hasLearner() {
			return st.Reset(), needLearner("schedule a lesson")
		}
		f := &ScheduleFlow{Lesson: st.Selected}
		if d, ok := ExtractDate(text, deps.now()); ok {
			f.Date = d
		}
		return advanceSchedule(st, f, in)
	case hasAnyTerm(norm, editWords):
		return advanceEdit(st, &EditFlow{Lesson: st.Selected})
	case hasAnyTerm(norm, discussWords):
		lesson := st.Selected
		out := forward(text)
		out.Forward.Context = lessonContext(*lesson)
		out.Forward.Lesson = lesson
		return st.clearFlow(), out
	}
	return st, reply(fmt.Sprintf("What would you like to do with %q? You can schedule it, edit it, or talk about it.",
		st.Selected.Title))
}

// lessonContext is the preamble handed to the LLM when discussing a lesson.
func lessonContext(l LessonRecord) string {
	ctx := fmt.Sprintf("The facilitator is asking about the lesson %s.", describeLesson(l))
	if l.IsGenerated {
		ctx += " It was generated by the assistant."
	}
	return ctx
}
