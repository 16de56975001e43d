package mentor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLessonParams(t *testing.T) {
	got := ExtractLessonParams("4th grade advanced science lesson on photosynthesis")
	assert.Equal(t, LessonParams{Grade: "4th", Subject: SubjectScience, Difficulty: DifficultyAdvanced}, got)

	assert.Equal(t, LessonParams{}, ExtractLessonParams("hello there"))
}

func TestExtractGrade(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4th grade", "4th"},
		{"a lesson for grade 3", "3rd"},
		{"my 5th-grader", "5th"},
		{"1st grade reading", "1st"},
		{"2nd grade", "2nd"},
		{"11th grade chemistry", "11th"},
		{"12 grade", "12th"},
		{"kindergarten", Kindergarten},
		{"13th grade", ""},
		{"0 grade", ""},
		{"3 kids", ""},
		{"ok", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractGrade(tt.input), "ExtractGrade(%q)", tt.input)
	}
}

func TestParseGradeAnswer(t *testing.T) {
	assert.Equal(t, "5th", ParseGradeAnswer("5"))
	assert.Equal(t, "7th", ParseGradeAnswer(" 7th "))
	assert.Equal(t, "3rd", ParseGradeAnswer("grade 3 please"))
	assert.Equal(t, "", ParseGradeAnswer("twenty"))
	assert.Equal(t, "", ParseGradeAnswer("15"))
}

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fractions", SubjectMath},
		{"Photosynthesis", SubjectScience},
		{"the water cycle", SubjectScience},
		{"english class", SubjectLanguageArts},
		{"poetry", SubjectLanguageArts},
		{"the civil war", SubjectSocialStudies},
		{"history", SubjectSocialStudies},
		{"math", SubjectMath},
		// topic keywords win over subject names
		{"science of fractions", SubjectMath},
		{"general", SubjectGeneral},
		{"something random", ""},
		// word-start matching: "art" is not a subject and "start" is not "art"
		{"start", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractSubject(tt.input), "ExtractSubject(%q)", tt.input)
	}
}

func TestExtractDifficulty(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"beginner", DifficultyBeginner},
		{"make it easy", DifficultyBeginner},
		{"Medium please", DifficultyIntermediate},
		{"challenging", DifficultyAdvanced},
		{"Advanced", DifficultyAdvanced},
		// first level wins
		{"easy or hard", DifficultyBeginner},
		{"whatever", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractDifficulty(tt.input), "ExtractDifficulty(%q)", tt.input)
	}
}
