package mentor

import (
	"regexp"
	"strconv"
	"strings"
)

// LessonParams are the lesson attributes recognized in free text.
// Empty fields were not mentioned.
type LessonParams struct {
	Grade      string `json:"grade,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// ExtractLessonParams pulls grade, subject and difficulty out of text.
func ExtractLessonParams(text string) LessonParams {
	return LessonParams{
		Grade:      ExtractGrade(text),
		Subject:    ExtractSubject(text),
		Difficulty: ExtractDifficulty(text),
	}
}

/* ------------------------------- grade ------------------------------- */

const Kindergarten = "K"

var (
	reGradeBefore = regexp.MustCompile(`\b(\d+)(?:st|nd|rd|th)?[\s-]*grade?(?:rs?)?\b`)
	reGradeAfter  = regexp.MustCompile(`\bgrade\s*(\d+)\b`)
	reKinder      = regexp.MustCompile(`\b(?:k|kindergarten|kinder)\b`)
	reBareGrade   = regexp.MustCompile(`^\s*(\d+)(?:st|nd|rd|th)?\s*$`)
)

// ExtractGrade returns the canonical grade ("K", "1st".."12th") mentioned in
// text, or "" when none is present. Numbers outside 1..12 are ignored.
func ExtractGrade(text string) string {
	s := strings.ToLower(text)
	for _, re := range []*regexp.Regexp{reGradeBefore, reGradeAfter} {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			if g := canonicalGrade(m[1]); g != "" {
				return g
			}
		}
	}
	if reKinder.MatchString(s) {
		return Kindergarten
	}
	return ""
}

// ParseGradeAnswer accepts everything ExtractGrade does plus a bare number or
// ordinal, which is only unambiguous as a reply to a grade question.
func ParseGradeAnswer(text string) string {
	if g := ExtractGrade(text); g != "" {
		return g
	}
	if m := reBareGrade.FindStringSubmatch(strings.ToLower(text)); m != nil {
		return canonicalGrade(m[1])
	}
	return ""
}

func canonicalGrade(digits string) string {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 12 {
		return ""
	}
	return ordinal(n)
}

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

/* ------------------------------ subject ------------------------------ */

const (
	SubjectMath          = "math"
	SubjectScience       = "science"
	SubjectLanguageArts  = "language arts"
	SubjectSocialStudies = "social studies"
	SubjectGeneral       = "general"
)

type subjectTerms struct {
	subject string
	terms   []string
}

// subjectTopics is checked first; a topic names what the lesson is about.
var subjectTopics = []subjectTerms{
	{SubjectMath, []string{
		"fraction", "decimal", "multiplication", "multiply", "division", "divide",
		"addition", "subtraction", "geometry", "algebra", "equation", "percent",
		"ratio", "measurement", "place value", "counting", "shapes", "graphing",
		"probability", "statistics", "angle", "perimeter", "area of", "times table",
		"long division", "integer", "exponent", "polygon", "symmetry", "money math",
		"telling time", "word problem",
	}},
	{SubjectScience, []string{
		"photosynthesis", "plant", "animal", "ecosystem", "weather", "water cycle",
		"solar system", "planet", "outer space", "energy", "electricity", "magnet",
		"force", "gravity", "matter", "chemical", "cell", "habitat", "food chain",
		"rocks", "volcano", "earthquake", "human body", "life cycle", "climate",
		"experiment", "biology", "chemistry", "physics", "dinosaur", "insect",
		"states of matter", "circuit", "moon", "erosion",
	}},
	{SubjectLanguageArts, []string{
		"grammar", "spelling", "vocabulary", "poetry", "poem", "story", "narrative",
		"essay", "phonics", "punctuation", "noun", "verb", "adjective",
		"reading comprehension", "creative writing", "fairy tale", "novel", "author",
		"rhyme", "sentence", "paragraph", "persuasive", "figurative language",
		"main idea", "storytelling", "book report",
	}},
	{SubjectSocialStudies, []string{
		"civil war", "revolution", "ancient", "egypt", "rome", "roman", "greece",
		"greek", "government", "constitution", "election", "voting", "continent",
		"culture", "community helpers", "economy", "president", "explorer",
		"native american", "world war", "citizenship", "pilgrims", "immigration",
		"map skills", "landmark", "civil rights",
	}},
}

// subjectNames is the fallback when no topic matched.
var subjectNames = []subjectTerms{
	{SubjectMath, []string{"math", "maths", "mathematics", "arithmetic"}},
	{SubjectScience, []string{"science", "stem"}},
	{SubjectLanguageArts, []string{
		"language arts", "english", "ela", "reading", "writing", "literacy", "literature",
	}},
	{SubjectSocialStudies, []string{
		"social studies", "history", "geography", "civics", "social science",
	}},
	{SubjectGeneral, []string{"general", "other", "any subject", "miscellaneous"}},
}

// ExtractSubject maps text to a canonical subject, topic keywords first and
// direct subject names second.
func ExtractSubject(text string) string {
	norm := normalize(text)
	if s := matchSubject(norm, subjectTopics); s != "" {
		return s
	}
	return matchSubject(norm, subjectNames)
}

func matchSubject(norm string, table []subjectTerms) string {
	for _, st := range table {
		if hasAnyTerm(norm, st.terms) {
			return st.subject
		}
	}
	return ""
}

/* ----------------------------- difficulty ----------------------------- */

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

var difficultyTerms = []subjectTerms{
	{DifficultyBeginner, []string{
		"beginner", "easy", "simple", "basic", "intro", "introductory", "starter", "novice",
	}},
	{DifficultyIntermediate, []string{
		"intermediate", "medium", "moderate", "average", "on level",
	}},
	{DifficultyAdvanced, []string{
		"advanced", "hard", "difficult", "challenging", "expert", "complex", "enrichment",
	}},
}

// ExtractDifficulty returns Beginner, Intermediate or Advanced, or "".
func ExtractDifficulty(text string) string {
	return matchSubject(normalize(text), difficultyTerms)
}
