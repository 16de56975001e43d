// Package nlu matches free text against utterance templates with named slots.
package nlu

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// IntentResult represents the result of an NLU parse operation.
type IntentResult struct {
	Intent     string
	Confidence float64
	Slots      map[string]string
}

// Engine manages intent matching using a registry of utterances.
type Engine struct {
	mu       sync.RWMutex
	matchers []*intentMatcher
}

// intentMatcher holds the compiled logic for a specific intent's utterances.
type intentMatcher struct {
	intentName string
	utterance  string
	regex      *regexp.Regexp
	slotNames  []string
}

func NewEngine() *Engine {
	return &Engine{}
}

// RegisterIntent adds an intent with a list of example utterances.
// Utterances can contain entities in the format {entity_name}.
// Example: RegisterIntent("schedule", "schedule {lesson} for {date}")
//
// Utterances are tried in registration order, so register the most specific
// template of an intent first.
func (e *Engine) RegisterIntent(intent string, utterances ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for _, u := range utterances {
		matcher, err := compileUtterance(intent, u)
		if err != nil {
			errs = append(errs, fmt.Errorf("utterance %q: %w", u, err))
			continue
		}
		e.matchers = append(e.matchers, matcher)
	}
	return errors.Join(errs...)
}

// Parse attempts to match the input string against registered intents.
// The first matching template wins; slots are trimmed of surrounding space
// and punctuation.
func (e *Engine) Parse(input string) IntentResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	input = strings.TrimSpace(input)
	input = strings.TrimRight(input, ".!?")

	for _, m := range e.matchers {
		matches := m.regex.FindStringSubmatch(input)
		if matches == nil {
			continue
		}
		slots := make(map[string]string, len(m.slotNames))
		// The submatches array includes the full match at index 0.
		for i, name := range m.slotNames {
			if i+1 < len(matches) {
				slots[name] = strings.Trim(matches[i+1], " \t,.;:!?\"'")
			}
		}

		return IntentResult{
			Intent:     m.intentName,
			Confidence: 1.0,
			Slots:      slots,
		}
	}

	return IntentResult{}
}

// Intents lists the distinct registered intents in registration order.
func (e *Engine) Intents() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, m := range e.matchers {
		if _, ok := seen[m.intentName]; ok {
			continue
		}
		seen[m.intentName] = struct{}{}
		out = append(out, m.intentName)
	}
	return out
}

// compileUtterance converts a natural language template into a regex matcher.
// "schedule {lesson} for {date}" ->
// `(?i)^(?:.*\s)?schedule\s+(.*?)\s+for\s+(.*?)$`
//
// Free text may precede the template ("could you schedule ...") but not
// follow it.
func compileUtterance(intent, utterance string) (*intentMatcher, error) {
	utterance = strings.Join(strings.Fields(utterance), " ")
	if utterance == "" {
		return nil, errors.New("empty utterance")
	}

	var regexParts []string
	var slotNames []string

	segments := strings.Split(utterance, "{")

	// First segment is the static prefix ("schedule ").
	if prefix := segments[0]; prefix != "" {
		escaped := regexp.QuoteMeta(prefix)
		escaped = strings.ReplaceAll(escaped, " ", `\s+`)
		regexParts = append(regexParts, escaped)
	}

	for i := 1; i < len(segments); i++ {
		// segment looks like "lesson} for "
		parts := strings.SplitN(segments[i], "}", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unclosed brace in utterance: %s", utterance)
		}

		slotName := strings.TrimSpace(parts[0])
		if slotName == "" {
			return nil, fmt.Errorf("empty slot name in utterance: %s", utterance)
		}
		slotNames = append(slotNames, slotName)

		// Non-greedy so the static text after the slot anchors it.
		regexParts = append(regexParts, `(.*?)`)

		if suffix := parts[1]; suffix != "" {
			escaped := regexp.QuoteMeta(suffix)
			escaped = strings.ReplaceAll(escaped, " ", `\s+`)
			regexParts = append(regexParts, escaped)
		}
	}

	lead := `^`
	if !strings.HasPrefix(utterance, "{") {
		lead = `^(?:.*\s)?`
	}
	fullPattern := `(?i)` + lead + strings.Join(regexParts, "") + `$`

	re, err := regexp.Compile(fullPattern)
	if err != nil {
		return nil, err
	}

	return &intentMatcher{
		intentName: intent,
		utterance:  utterance,
		regex:      re,
		slotNames:  slotNames,
	}, nil
}
