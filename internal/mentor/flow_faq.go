package mentor

import (
	"fmt"
	"strings"
)

const maxFAQCandidates = 5

func startFAQ(st State, text string, deps Deps) (State, Output) {
	if deps.Features == nil {
		return st, forward(text)
	}
	candidates := deps.Features.Search(text)
	if len(candidates) > maxFAQCandidates {
		candidates = candidates[:maxFAQCandidates]
	}
	switch len(candidates) {
	case 0:
		return st, forward(text)
	case 1:
		f := &FAQFlow{Question: text, Candidates: candidates, SelectedID: candidates[0].ID}
		return st.with(f, PromptFAQConfirm), reply(featureOffer(candidates[0]))
	}
	f := &FAQFlow{Question: text, Candidates: candidates}
	return st.with(f, PromptFAQSelect), reply(fmt.Sprintf(
		"That could be about a few things:\n%s\n\nWhich one do you mean?", numberedFeatures(candidates)))
}

func answerFAQ(st State, text string, deps Deps) (State, Output) {
	cur, ok := st.Data.(*FAQFlow)
	if !ok {
		return lost(st, text)
	}

	if st.Awaiting == PromptFAQSelect {
		idx := pickIndex(text, featureNames(cur.Candidates))
		if idx < 0 {
			return st, reply(fmt.Sprintf("Which one? Pick a number from 1 to %d:\n%s",
				len(cur.Candidates), numberedFeatures(cur.Candidates)))
		}
		f := *cur
		f.SelectedID = f.Candidates[idx].ID
		return st.with(&f, PromptFAQConfirm), reply(featureOffer(f.Candidates[idx]))
	}

	switch DetectConfirmation(text) {
	case ConfirmYes:
		feature, found := lookupFeature(deps, cur)
		if !found {
			return lost(st, cur.Question)
		}
		return st.Reset(), reply(featureAnswer(feature, deps))
	case ConfirmNo:
		out := forward(cur.Question)
		out.Forward.BypassInterceptor = true
		return st.Reset(), out
	}
	return st, reply("Would you like me to explain it? Please answer yes or no.")
}

func lookupFeature(deps Deps, f *FAQFlow) (Feature, bool) {
	if deps.Features != nil {
		if ft, ok := deps.Features.ByID(f.SelectedID); ok {
			return ft, true
		}
	}
	for _, c := range f.Candidates {
		if c.ID == f.SelectedID {
			return c, true
		}
	}
	return Feature{}, false
}

func featureOffer(ft Feature) string {
	if ft.Summary == "" {
		return fmt.Sprintf("It sounds like you're asking about %s. Want me to explain how it works?", ft.Name)
	}
	return fmt.Sprintf("It sounds like you're asking about %s: %s Want me to explain how it works?",
		ft.Name, ensurePeriod(ft.Summary))
}

func featureAnswer(ft Feature, deps Deps) string {
	var b strings.Builder
	b.WriteString(ft.Name)
	b.WriteString("\n\n")
	if ft.Description != "" {
		b.WriteString(ft.Description)
	} else {
		b.WriteString(ft.Summary)
	}

	var related []string
	for _, id := range ft.Related {
		if deps.Features == nil {
			break
		}
		if r, ok := deps.Features.ByID(id); ok {
			related = append(related, r.Name)
		}
	}
	if len(related) > 0 {
		b.WriteString("\n\nRelated: ")
		b.WriteString(strings.Join(related, ", "))
	}
	return b.String()
}

func featureNames(fs []Feature) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

func numberedFeatures(fs []Feature) string {
	var b strings.Builder
	for i, f := range fs {
		if f.Summary != "" {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, f.Name, f.Summary)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, f.Name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
		return s
	}
	return s + "."
}
