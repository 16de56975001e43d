package mentor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"mentorbot/internal/nlu"
)

// maxSearchResults caps how many lessons a search lists.
const maxSearchResults = 5

// flattenLessons returns every lesson in a stable order: subjects sorted by
// name, lessons in the order the host supplied them. Lessons without a
// subject inherit the map key.
func flattenLessons(all map[string][]LessonRecord) []LessonRecord {
	subjects := make([]string, 0, len(all))
	for s := range all {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	var out []LessonRecord
	for _, s := range subjects {
		for _, l := range all[s] {
			if l.Subject == "" {
				l.Subject = s
			}
			out = append(out, l)
		}
	}
	return out
}

func lessonSubject(l LessonRecord) string {
	if s := ExtractSubject(l.Subject); s != "" {
		return s
	}
	return normalize(l.Subject)
}

func lessonGrade(l LessonRecord) string {
	return ParseGradeAnswer(l.Grade)
}

// searchLessons ranks lessons against a free-text query. A subject or grade
// named in the query filters; difficulty and title words add to the score.
func searchLessons(all map[string][]LessonRecord, query string) []LessonRecord {
	params := ExtractLessonParams(query)
	if params.Subject == SubjectGeneral {
		params.Subject = ""
	}
	words := tokenSet(stripCommandWords(query))
	if params.Subject == "" && params.Grade == "" && params.Difficulty == "" && len(words) == 0 {
		return nil
	}

	type scored struct {
		lesson LessonRecord
		score  int
	}
	var ranked []scored
	for _, l := range flattenLessons(all) {
		if params.Subject != "" && lessonSubject(l) != params.Subject {
			continue
		}
		if params.Grade != "" && lessonGrade(l) != params.Grade {
			continue
		}
		score := 0
		if params.Subject != "" {
			score += 3
		}
		if params.Grade != "" {
			score += 2
		}
		if params.Difficulty != "" && strings.EqualFold(l.Difficulty, params.Difficulty) {
			score++
		}
		score += 2 * overlap(words, tokenSet(l.Title))
		if score > 0 {
			ranked = append(ranked, scored{lesson: l, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > maxSearchResults {
		ranked = ranked[:maxSearchResults]
	}
	out := make([]LessonRecord, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.lesson)
	}
	return out
}

// matchLessons finds the lessons a phrase refers to. A full title mention
// wins; otherwise the lessons sharing the most title words are returned.
func matchLessons(all map[string][]LessonRecord, phrase string) []LessonRecord {
	norm := normalize(phrase)
	if norm == "" {
		return nil
	}
	lessons := flattenLessons(all)

	var exact []LessonRecord
	for _, l := range lessons {
		if t := normalize(l.Title); t != "" && hasWord(norm, t) {
			exact = append(exact, l)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	words := tokenSet(stripCommandWords(phrase))
	best := 0
	var out []LessonRecord
	for _, l := range lessons {
		n := overlap(words, tokenSet(l.Title))
		switch {
		case n == 0 || n < best:
		case n > best:
			best = n
			out = []LessonRecord{l}
		default:
			out = append(out, l)
		}
	}
	return out
}

var commandWords = map[string]struct{}{
	"schedule": {}, "reschedule": {}, "calendar": {}, "add": {}, "put": {}, "assign": {},
	"edit": {}, "modify": {}, "change": {}, "update": {}, "revise": {}, "tweak": {},
	"adjust": {}, "next": {}, "today": {}, "tomorrow": {}, "week": {}, "want": {},
	"would": {}, "like": {}, "could": {}, "need": {}, "from": {}, "into": {}, "let": {},
	"lets": {}, "date": {}, "monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

func stripCommandWords(s string) string {
	fields := strings.Fields(normalize(s))
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := commandWords[f]; drop {
			continue
		}
		if _, ok := monthNames[f]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// lessonRefs pulls the lesson phrase out of schedule and edit requests.
var lessonRefs = func() *nlu.Engine {
	e := nlu.NewEngine()
	mustRegister(e, "schedule",
		"schedule {lesson} for {date}",
		"schedule {lesson} on {date}",
		"add {lesson} to the calendar",
		"add {lesson} to calendar",
		"put {lesson} on the calendar",
		"assign {lesson} for {date}",
		"assign {lesson}",
		"schedule {lesson}",
	)
	mustRegister(e, "edit",
		"edit {lesson}",
		"modify {lesson}",
		"revise {lesson}",
		"tweak {lesson}",
		"change {lesson}",
		"update {lesson}",
		"adjust {lesson}",
	)
	return e
}()

func mustRegister(e *nlu.Engine, intent string, utterances ...string) {
	if err := e.RegisterIntent(intent, utterances...); err != nil {
		panic(err)
	}
}

var pronounRefs = map[string]struct{}{
	"": {}, "it": {}, "this": {}, "that": {}, "this one": {}, "that one": {},
	"the lesson": {}, "this lesson": {}, "that lesson": {},
}

// genericRefs name no lesson at all; the user is asked which one.
var genericRefs = map[string]struct{}{
	"a lesson": {}, "lesson": {}, "lessons": {}, "a new lesson": {},
}

// lessonPhrase returns the lesson slot of a schedule/edit request and whether
// it is only a pronoun pointing at the current selection.
func lessonPhrase(text string) (phrase string, pronoun bool) {
	res := lessonRefs.Parse(text)
	if res.Intent == "" {
		return "", false
	}
	phrase = normalize(res.Slots["lesson"])
	_, pronoun = pronounRefs[phrase]
	return phrase, pronoun
}

var (
	reChoiceNumber = regexp.MustCompile(`^(?:#|number\s+|no\s+|option\s+)?(\d+)$`)
	ordinalWords   = map[string]int{
		"first": 1, "1st": 1, "second": 2, "2nd": 2, "third": 3, "3rd": 3,
		"fourth": 4, "4th": 4, "fifth": 5, "5th": 5,
	}
)

// pickIndex resolves a reply to a numbered list by position or by name. It
// returns -1 when the reply matches nothing or is ambiguous.
func pickIndex(answer string, names []string) int {
	norm := normalize(answer)
	if norm == "" || len(names) == 0 {
		return -1
	}
	if m := reChoiceNumber.FindStringSubmatch(norm); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= len(names) {
			return n - 1
		}
		return -1
	}

	for i, name := range names {
		if normalize(name) == norm {
			return i
		}
	}
	found := -1
	for i, name := range names {
		n := normalize(name)
		if n != "" && (strings.Contains(n, norm) || strings.Contains(norm, n)) {
			if found >= 0 {
				found = -2
				break
			}
			found = i
		}
	}
	if found >= 0 {
		return found
	}

	// Positional words only count once no title matched, so a title such
	// as "5th Grade Fractions" is not read as "the fifth one".
	if len(strings.Fields(norm)) <= 3 {
		for _, w := range strings.Fields(norm) {
			if n, ok := ordinalWords[w]; ok {
				if n <= len(names) {
					return n - 1
				}
				return -1
			}
		}
		if hasWord(norm, "last") {
			return len(names) - 1
		}
	}

	words := tokenSet(answer)
	best, bestIdx, tie := 0, -1, false
	for i, name := range names {
		n := overlap(words, tokenSet(name))
		switch {
		case n > best:
			best, bestIdx, tie = n, i, false
		case n == best && n > 0:
			tie = true
		}
	}
	if tie {
		return -1
	}
	return bestIdx
}

func lessonTitles(ls []LessonRecord) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Title
	}
	return out
}

func describeLesson(l LessonRecord) string {
	var parts []string
	if l.Grade != "" {
		g := lessonGrade(l)
		if g == "" {
			g = l.Grade
		}
		if g == Kindergarten {
			parts = append(parts, "kindergarten")
		} else {
			parts = append(parts, g+" grade")
		}
	}
	if l.Subject != "" {
		parts = append(parts, l.Subject)
	}
	desc := strings.Join(parts, " ")
	if l.Difficulty != "" {
		if desc != "" {
			desc += ", "
		}
		desc += l.Difficulty
	}
	if desc == "" {
		return fmt.Sprintf("%q", l.Title)
	}
	return fmt.Sprintf("%q (%s)", l.Title, desc)
}

func numberedLessons(ls []LessonRecord) string {
	var b strings.Builder
	for i, l := range ls {
		fmt.Fprintf(&b, "%d. %s\n", i+1, describeLesson(l))
	}
	return strings.TrimRight(b.String(), "\n")
}
