package mentor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var reTopic = regexp.MustCompile(`(?i)\b(?:about|on|covering)\s+(.+)$`)

func startGenerate(st State, text string, in Input) (State, Output) {
	if !in.hasLearner() {
		return st, needLearner("create a lesson")
	}
	params := ExtractLessonParams(text)
	f := &GenerateFlow{
		Grade:      params.Grade,
		Difficulty: params.Difficulty,
	}
	if m := reTopic.FindStringSubmatch(text); m != nil {
		f.setTopic(m[1])
	}
	if f.Grade == "" {
		f.SuggestedGrade = learnerGrade(in)
	}
	return advanceGenerate(st, f, in)
}

// learnerGrade is the learner's grade in canonical form, or as supplied when
// it cannot be parsed.
func learnerGrade(in Input) string {
	if in.LearnerGrade == "" {
		return ""
	}
	if g := ParseGradeAnswer(in.LearnerGrade); g != "" {
		return g
	}
	return strings.TrimSpace(in.LearnerGrade)
}

func (f *GenerateFlow) setTopic(raw string) {
	f.Topic = strings.Trim(strings.TrimSpace(raw), ".!?\"'")
	if s := ExtractSubject(f.Topic); s != "" && s != SubjectGeneral {
		f.SuggestedSubject = s
	}
}

// advanceGenerate asks for the first missing parameter, or for confirmation
// once all are known.
func advanceGenerate(st State, f *GenerateFlow, in Input) (State, Output) {
	switch {
	case f.Topic == "":
		return st.with(f, PromptGenerateTopic), reply(fmt.Sprintf(
			"Sure! What topic should the new lesson for %s cover?", in.learnerLabel()))
	case f.Grade == "" && f.SuggestedGrade != "":
		return st.with(f, PromptGenerateGradeConfirm), reply(fmt.Sprintf(
			"Should this be a %s lesson, like %s's grade?", gradeLabel(f.SuggestedGrade), in.learnerLabel()))
	case f.Grade == "":
		return st.with(f, PromptGenerateGrade), reply("What grade level is this lesson for? For example K, 3rd or 7th.")
	case f.Subject == "":
		return st.with(f, PromptGenerateSubject), reply(subjectQuestion(f.SuggestedSubject))
	case f.Difficulty == "":
		return st.with(f, PromptGenerateDifficulty), reply("How challenging should it be: Beginner, Intermediate, or Advanced?")
	case f.Title == "":
		return st.with(f, PromptGenerateTitle), reply("What would you like to call the lesson?")
	}
	return st.with(f, PromptConfirm), reply(confirmGenerateText(f, in))
}

func answerGenerate(ctx context.Context, st State, text string, in Input, deps Deps) (State, Output) {
	cur, ok := st.Data.(*GenerateFlow)
	if !ok {
		return lost(st, text)
	}
	f := *cur

	switch st.Awaiting {
	case PromptGenerateTopic:
		f.setTopic(text)
		if f.Topic == "" {
			return st, reply("What should the lesson be about?")
		}
		if f.Grade == "" {
			f.Grade = ExtractGrade(text)
		}

	case PromptGenerateGradeConfirm:
		if g := ExtractGrade(text); g != "" {
			f.Grade = g
			break
		}
		switch DetectConfirmation(text) {
		case ConfirmYes:
			f.Grade = f.SuggestedGrade
		case ConfirmNo:
			f.SuggestedGrade = ""
		default:
			return st, reply(fmt.Sprintf("Should I make it a %s lesson? Please answer yes or no, or tell me the grade.",
				gradeLabel(f.SuggestedGrade)))
		}

	case PromptGenerateGrade:
		g := ParseGradeAnswer(text)
		if g == "" {
			return st, reply("I didn't catch the grade. Please give a grade from K to 12th.")
		}
		f.Grade = g

	case PromptGenerateSubject:
		s := ExtractSubject(text)
		if s == "" && f.SuggestedSubject != "" && DetectConfirmation(text) == ConfirmYes {
			s = f.SuggestedSubject
		}
		if s == "" {
			return st, reply("Which subject: math, science, language arts, social studies, or general?")
		}
		f.Subject = s

	case PromptGenerateDifficulty:
		d := ExtractDifficulty(text)
		if d == "" {
			return st, reply("Please choose Beginner, Intermediate, or Advanced.")
		}
		f.Difficulty = d

	case PromptGenerateTitle:
		raw := strings.Trim(strings.TrimSpace(text), "\"'")
		if raw == "" {
			return st, reply("What would you like to call the lesson?")
		}
		f.Title = normalizeTitle(ctx, deps, raw, f.Topic)
	}

	return advanceGenerate(st, &f, in)
}

// normalizeTitle cleans up a typed title. Failures keep the raw text.
func normalizeTitle(ctx context.Context, deps Deps, raw, topic string) string {
	if deps.Titles == nil {
		return raw
	}
	title, err := deps.Titles.NormalizeTitle(ctx, raw, topic)
	if err != nil {
		return raw
	}
	if title = strings.TrimSpace(title); title == "" {
		return raw
	}
	return title
}

func subjectQuestion(suggested string) string {
	if suggested == "" {
		return "Which subject is this for: math, science, language arts, social studies, or general?"
	}
	return fmt.Sprintf("Which subject is this for? It sounds like %s, so just say yes to use that, or name another subject.", suggested)
}

func gradeLabel(g string) string {
	if g == Kindergarten {
		return "kindergarten"
	}
	return g + " grade"
}

func confirmGenerateText(f *GenerateFlow, in Input) string {
	return fmt.Sprintf("Here's the plan: a %s %s lesson for %s titled %q, at %s level, about %s. Should I generate it?",
		gradeLabel(f.Grade), f.Subject, in.learnerLabel(), f.Title, f.Difficulty, f.Topic)
}
