package mentor

import (
	"fmt"
	"sort"
	"strings"
)

const maxRecallMatches = 3

var recallFiller = map[string]struct{}{
	"about": {}, "when": {}, "that": {}, "the": {}, "we": {}, "you": {}, "i": {},
	"said": {}, "what": {}, "did": {}, "talked": {}, "discussed": {}, "mentioned": {},
	"me": {}, "us": {}, "was": {}, "were": {}, "of": {}, "on": {}, "regarding": {},
}

// recallTriggers lists the recall keywords longest first so the longer phrase
// is removed before any phrase it contains.
var recallTriggers = func() []string {
	var out []string
	for _, r := range intentTable {
		if r.flow == FlowRecall {
			out = append(out, r.keywords...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

// recallQuery strips trigger phrases and filler words from a recall request.
func recallQuery(text string) string {
	norm := " " + normalize(text) + " "
	for _, t := range recallTriggers {
		norm = strings.ReplaceAll(norm, " "+t+" ", " ")
	}
	fields := strings.Fields(norm)
	for len(fields) > 0 {
		if _, filler := recallFiller[fields[0]]; !filler {
			break
		}
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

func startRecall(st State, text string, in Input) (State, Output) {
	query := recallQuery(text)
	if query == "" {
		return st, forward(text)
	}
	matches := searchConversation(query, text, in.History, st.Memory)
	switch len(matches) {
	case 0:
		return st, reply(fmt.Sprintf("I couldn't find anything about %q in our conversation.", query))
	case 1:
		return st, reply("Here's what I found:\n" + matches[0])
	}
	f := &RecallFlow{Query: query, Matches: matches}
	return st.with(f, PromptRecallMore), reply(fmt.Sprintf(
		"Here's what I found (1 of %d):\n%s\n\nWant to see the next one?", len(matches), matches[0]))
}

// searchConversation finds history turns and memory notes mentioning query,
// most recent first. The message being processed is skipped.
func searchConversation(query, current string, history []Turn, memory []string) []string {
	words := tokenSet(query)
	matchText := func(s string) bool {
		norm := normalize(s)
		if strings.Contains(norm, query) {
			return true
		}
		return len(words) > 0 && overlap(words, tokenSet(s)) == len(words)
	}

	var out []string
	for i := len(history) - 1; i >= 0 && len(out) < maxRecallMatches; i-- {
		t := history[i]
		if strings.TrimSpace(t.Content) == current || !matchText(t.Content) {
			continue
		}
		who := "I said"
		if t.Role == "user" {
			who = "You said"
		}
		out = append(out, fmt.Sprintf("%s: %q", who, truncate(strings.TrimSpace(t.Content), 200)))
	}
	for i := len(memory) - 1; i >= 0 && len(out) < maxRecallMatches; i-- {
		if matchText(memory[i]) {
			out = append(out, "Earlier: "+memory[i])
		}
	}
	return out
}

var moreWords = []string{"more", "another", "next", "again", "continue", "keep going"}

func answerRecallMore(st State, text string) (State, Output) {
	f, ok := st.Data.(*RecallFlow)
	if !ok {
		return lost(st, text)
	}
	confirm := DetectConfirmation(text)
	if confirm == ConfirmNo {
		return st.Reset(), reply("Okay. Let me know if there's anything else.")
	}
	if confirm != ConfirmYes && !hasAnyWord(normalize(text), moreWords) {
		return st, reply("Say \"more\" to see the next match, or \"no\" to stop.")
	}

	next := *f
	next.Index++
	if next.Index >= len(next.Matches) {
		return st.Reset(), reply(fmt.Sprintf("That's everything I found about %q.", f.Query))
	}
	msg := fmt.Sprintf("Here's %d of %d:\n%s", next.Index+1, len(next.Matches), next.Matches[next.Index])
	if next.Index == len(next.Matches)-1 {
		return st.Reset(), reply(msg + "\n\nThat was the last one I found.")
	}
	return st.with(&next, PromptRecallMore), reply(msg + "\n\nWant to see the next one?")
}
