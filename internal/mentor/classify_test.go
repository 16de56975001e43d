package mentor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		flow  Flow
		score float64
	}{
		{"find me a math lesson", FlowSearch, 0.8},
		{"Create a lesson about fractions", FlowGenerate, 0.8},
		{"schedule it for friday", FlowSchedule, 0.8},
		{"I want to edit the volcano lesson", FlowEdit, 0.8},
		{"do you remember what we said about volcanoes?", FlowRecall, 0.7},
		{"How do I print a lesson?", FlowFAQ, 0.7},
		// search and schedule both hit; search is declared first
		{"search for a lesson to schedule", FlowSearch, 0.8},
		// 0.8 beats 0.7 regardless of order
		{"how do i schedule a lesson", FlowSchedule, 0.8},
		{"hello there", FlowNone, 0},
		{"", FlowNone, 0},
		{"?!", FlowNone, 0},
	}

	for _, tt := range tests {
		flow, score := Classify(tt.input)
		assert.Equal(t, tt.flow, flow, "Classify(%q) flow", tt.input)
		assert.InDelta(t, tt.score, score, 1e-9, "Classify(%q) score", tt.input)
	}
}

// Every keyword must classify to its own intent, otherwise a rule is
// silently shadowed by another.
func TestIntentKeywordsDoNotCollide(t *testing.T) {
	for _, rule := range intentTable {
		for _, kw := range rule.keywords {
			flow, score := Classify(kw)
			if flow != rule.flow {
				t.Errorf("keyword %q of %s classifies as %s", kw, rule.flow, flow)
			}
			if score != rule.score {
				t.Errorf("keyword %q scores %.1f, want %.1f", kw, score, rule.score)
			}
		}
	}
}

func TestDetectConfirmation(t *testing.T) {
	tests := []struct {
		input string
		want  Confirmation
	}{
		{"yes", ConfirmYes},
		{"Yes, please!", ConfirmYes},
		{"sure thing", ConfirmYes},
		{"ok", ConfirmYes},
		{"go ahead", ConfirmYes},
		{"no", ConfirmNo},
		{"Nope.", ConfirmNo},
		{"cancel that", ConfirmNo},
		{"don't", ConfirmNo},
		{"not sure", ConfirmUnknown},
		{"that's not wrong, yes", ConfirmUnknown},
		{"maybe later", ConfirmUnknown},
		{"yesterday", ConfirmUnknown},
		{"", ConfirmUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectConfirmation(tt.input), "DetectConfirmation(%q)", tt.input)
	}
}

func TestIsBypass(t *testing.T) {
	assert.True(t, isBypass("Different issue"))
	assert.True(t, isBypass("let's talk about something else"))
	assert.True(t, isBypass("never mind"))
	assert.True(t, isBypass("skip"))
	assert.False(t, isBypass("skipping rope lesson"))
	assert.False(t, isBypass("a different lesson"))
}
