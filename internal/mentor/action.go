package mentor

import "fmt"

// answerConfirm settles the final yes/no of a schedule, generate or edit flow.
// Both outcomes end the flow; an unclear answer repeats the question.
func answerConfirm(st State, text string, in Input) (State, Output) {
	if st.Data == nil {
		return lost(st, text)
	}
	switch DetectConfirmation(text) {
	case ConfirmYes:
		action := executeAction(st, in)
		if action == nil {
			return lost(st, text)
		}
		if action.Type != ActionEdit && action.LearnerID == "" {
			return st.Reset(), needLearner(string(action.Type) + " lessons")
		}
		msg, note := actionSummary(action, in)
		action.Note = note
		out := reply(msg)
		out.Action = action
		return st.Reset().remember(note), out
	case ConfirmNo:
		return st.Reset(), reply("No problem, I've cancelled that. What else can I help with?")
	}
	return st, reply("Sorry, I need a clear yes or no. " + confirmQuestion(st, in))
}

// executeAction turns a confirmed flow into the action the host performs.
// It returns nil when the flow has nothing to execute.
func executeAction(st State, in Input) *Action {
	switch f := st.Data.(type) {
	case *ScheduleFlow:
		if f.Lesson == nil || f.Date == "" {
			return nil
		}
		return &Action{
			Type:      ActionSchedule,
			LearnerID: in.LearnerID,
			Lesson:    f.Lesson,
			Date:      f.Date,
		}
	case *GenerateFlow:
		return &Action{
			Type:       ActionGenerate,
			LearnerID:  in.LearnerID,
			Title:      f.Title,
			Topic:      f.Topic,
			Grade:      f.Grade,
			Subject:    f.Subject,
			Difficulty: f.Difficulty,
		}
	case *EditFlow:
		if f.Lesson == nil {
			return nil
		}
		return &Action{
			Type:         ActionEdit,
			LearnerID:    in.LearnerID,
			Lesson:       f.Lesson,
			Instructions: f.Instructions,
		}
	}
	return nil
}

// actionSummary returns the reply for a confirmed action and the memory note
// kept for later recall.
func actionSummary(a *Action, in Input) (msg, note string) {
	who := in.learnerLabel()
	switch a.Type {
	case ActionSchedule:
		when := FormatDate(a.Date)
		return fmt.Sprintf("Done! %q is on %s's calendar for %s.", a.Lesson.Title, who, when),
			fmt.Sprintf("Scheduled %q for %s on %s", a.Lesson.Title, who, when)
	case ActionGenerate:
		return fmt.Sprintf("Great! I'm generating %q for %s now. It will appear in your lessons when it's ready.", a.Title, who),
			fmt.Sprintf("Generated %s %s lesson %q about %s", gradeLabel(a.Grade), a.Subject, a.Title, a.Topic)
	default:
		return fmt.Sprintf("Got it. I'm updating %q now.", a.Lesson.Title),
			fmt.Sprintf("Edited %q: %s", a.Lesson.Title, truncate(a.Instructions, 120))
	}
}

// confirmQuestion repeats the confirmation prompt of the active flow.
func confirmQuestion(st State, in Input) string {
	switch f := st.Data.(type) {
	case *ScheduleFlow:
		if f.Lesson != nil {
			return fmt.Sprintf("Schedule %q for %s on %s?", f.Lesson.Title, in.learnerLabel(), FormatDate(f.Date))
		}
	case *GenerateFlow:
		return confirmGenerateText(f, in)
	case *EditFlow:
		if f.Lesson != nil {
			return fmt.Sprintf("Should I update %q?", f.Lesson.Title)
		}
	}
	return "Should I go ahead?"
}
