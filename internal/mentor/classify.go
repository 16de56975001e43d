package mentor

// intentRule maps a keyword list to a flow. Rules are evaluated in table order.
type intentRule struct {
	flow     Flow
	score    float64
	keywords []string
}

var intentTable = []intentRule{
	{
		flow:  FlowSearch,
		score: 0.8,
		keywords: []string{
			"find", "search", "look for", "looking for", "show me", "lessons about",
			"lessons on", "do you have", "is there a lesson", "browse",
		},
	},
	{
		flow:  FlowGenerate,
		score: 0.8,
		keywords: []string{
			"create a lesson", "create lesson", "create a new lesson", "generate",
			"make a lesson", "make me a lesson", "new lesson", "build a lesson",
			"write a lesson", "design a lesson",
		},
	},
	{
		flow:  FlowSchedule,
		score: 0.8,
		keywords: []string{
			"schedule", "reschedule", "add to calendar", "add to the calendar",
			"put on the calendar", "assign",
		},
	},
	{
		flow:  FlowEdit,
		score: 0.8,
		keywords: []string{
			"edit", "modify", "change the lesson", "update the lesson", "revise",
			"tweak", "adjust the lesson",
		},
	},
	{
		flow:  FlowRecall,
		score: 0.7,
		keywords: []string{
			"remember when", "do you remember", "what did we talk about",
			"what did we discuss", "earlier you said", "you mentioned", "we discussed",
			"we talked about", "recall", "remind me what",
		},
	},
	{
		flow:  FlowFAQ,
		score: 0.7,
		keywords: []string{
			"how do i", "how can i", "how to", "where is", "where can i", "what does",
			"what is the", "help with", "how does", "is there a way",
		},
	},
}

// Classify scores text against the intent table and returns the winning flow
// with its confidence. FlowNone with zero confidence means no rule matched and
// the message belongs to the LLM.
func Classify(text string) (Flow, float64) {
	norm := normalize(text)
	if norm == "" {
		return FlowNone, 0
	}

	best, bestScore := FlowNone, 0.0
	for _, rule := range intentTable {
		if !hasAnyTerm(norm, rule.keywords) {
			continue
		}
		// strict > keeps the earlier rule on ties
		if rule.score > bestScore {
			best, bestScore = rule.flow, rule.score
		}
	}
	return best, bestScore
}

// Confirmation is the outcome of a yes/no check.
type Confirmation int

const (
	ConfirmUnknown Confirmation = iota
	ConfirmYes
	ConfirmNo
)

func (c Confirmation) String() string {
	switch c {
	case ConfirmYes:
		return "yes"
	case ConfirmNo:
		return "no"
	default:
		return "unknown"
	}
}

var (
	yesTokens = []string{
		"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm", "go ahead",
		"do it", "sounds good", "absolutely", "correct", "please do", "lets do it",
	}
	// "not" stays a no-token even though it misfires on "not wrong, yes";
	// such mixed answers resolve to ConfirmUnknown and get a re-prompt.
	noTokens = []string{
		"no", "nope", "nah", "cancel", "stop", "nevermind", "dont", "not",
	}
)

// DetectConfirmation classifies a yes/no answer. When both or neither token
// sets match the answer is ConfirmUnknown.
func DetectConfirmation(text string) Confirmation {
	norm := normalize(text)
	yes := hasAnyWord(norm, yesTokens)
	no := hasAnyWord(norm, noTokens)
	switch {
	case yes && !no:
		return ConfirmYes
	case no && !yes:
		return ConfirmNo
	default:
		return ConfirmUnknown
	}
}

var bypassPhrases = []string{"different issue", "something else", "nevermind", "never mind", "skip"}

func isBypass(text string) bool {
	return hasAnyWord(normalize(text), bypassPhrases)
}
