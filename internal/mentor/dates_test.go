package mentor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Thursday.
var testNow = time.Date(2025, time.November, 20, 15, 30, 0, 0, time.UTC)

func TestExtractDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2025-12-18", "2025-12-18", true},
		{"on 2026-03-01 please", "2026-03-01", true},
		{"12/18/25", "2025-12-18", true},
		{"12/18/2026", "2026-12-18", true},
		{"12/18", "2025-12-18", true},
		{"1/5", "2026-01-05", true},
		{"November 24th", "2025-11-24", true},
		{"nov 20", "2025-11-20", true},
		{"December 18, 2026", "2026-12-18", true},
		{"march 3", "2026-03-03", true},
		{"today", "2025-11-20", true},
		{"tomorrow", "2025-11-21", true},
		{"friday", "2025-11-21", true},
		// same weekday rolls a full week
		{"thursday", "2025-11-27", true},
		{"next friday", "2025-11-28", true},
		{"next thursday", "2025-11-27", true},
		{"2025-02-30", "", false},
		{"13/40", "", false},
		{"sometime soon", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractDate(tt.input, testNow)
		assert.Equal(t, tt.ok, ok, "ExtractDate(%q) ok", tt.input)
		assert.Equal(t, tt.want, got, "ExtractDate(%q)", tt.input)
	}
}

func TestExtractDateRollsPastDatesForward(t *testing.T) {
	after := time.Date(2025, time.November, 25, 9, 0, 0, 0, time.UTC)
	got, ok := ExtractDate("November 24th", after)
	assert.True(t, ok)
	assert.Equal(t, "2026-11-24", got)

	same := time.Date(2025, time.November, 24, 23, 0, 0, 0, time.UTC)
	got, ok = ExtractDate("November 24th", same)
	assert.True(t, ok)
	assert.Equal(t, "2025-11-24", got)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Thursday, December 18, 2025", FormatDate("2025-12-18"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
}
