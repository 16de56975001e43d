// Package features is the product feature catalog used to answer "how do I"
// questions.
package features

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mentorbot/internal/mentor"
)

//go:embed features.yaml
var defaultCatalog []byte

// maxResults caps how many features one search returns.
const maxResults = 5

type catalog struct {
	Features []mentor.Feature `yaml:"features"`
}

// Index ranks features against free text by token overlap. It is read-only
// after construction and safe for concurrent use.
type Index struct {
	features []mentor.Feature
	byID     map[string]int
	terms    []featureTerms
}

type featureTerms struct {
	keywords map[string]struct{}
	text     map[string]struct{}
}

// Default returns the index of the built-in catalog.
func Default() (*Index, error) {
	return Parse(defaultCatalog)
}

// Load reads a YAML catalog from path.
func Load(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature catalog: %w", err)
	}
	return Parse(b)
}

// Parse builds an index from YAML. Ids must be unique and non-empty.
func Parse(b []byte) (*Index, error) {
	var c catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse feature catalog: %w", err)
	}
	return New(c.Features)
}

func New(features []mentor.Feature) (*Index, error) {
	idx := &Index{
		features: make([]mentor.Feature, 0, len(features)),
		byID:     make(map[string]int, len(features)),
	}
	for _, f := range features {
		if f.ID == "" {
			return nil, fmt.Errorf("feature %q has no id", f.Name)
		}
		if _, dup := idx.byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate feature id %q", f.ID)
		}
		idx.byID[f.ID] = len(idx.features)
		idx.features = append(idx.features, f)
		idx.terms = append(idx.terms, featureTerms{
			keywords: tokenSet(strings.Join(f.Keywords, " ")),
			text:     tokenSet(f.Name + " " + f.Summary),
		})
	}
	return idx, nil
}

func (x *Index) Len() int { return len(x.features) }

// All returns the features in catalog order.
func (x *Index) All() []mentor.Feature {
	out := make([]mentor.Feature, len(x.features))
	copy(out, x.features)
	return out
}

func (x *Index) ByID(id string) (mentor.Feature, bool) {
	i, ok := x.byID[id]
	if !ok {
		return mentor.Feature{}, false
	}
	return x.features[i], true
}

// Search returns the features sharing words with text, best first. Keyword
// hits weigh twice as much as words of the name or summary; ties keep
// catalog order.
func (x *Index) Search(text string) []mentor.Feature {
	q := tokenSet(text)
	if len(q) == 0 {
		return nil
	}

	type scored struct {
		i     int
		score int
	}
	var sc []scored
	for i, t := range x.terms {
		score := 2*overlap(q, t.keywords) + overlap(q, t.text)
		if score > 0 {
			sc = append(sc, scored{i: i, score: score})
		}
	}
	if len(sc) == 0 {
		return nil
	}
	sort.SliceStable(sc, func(a, b int) bool { return sc[a].score > sc[b].score })

	// Only keep features close to the best one.
	best := sc[0].score
	out := make([]mentor.Feature, 0, maxResults)
	for _, s := range sc {
		if len(out) == maxResults || s.score*2 < best {
			break
		}
		out = append(out, x.features[s.i])
	}
	return out
}

var stopWords = map[string]struct{}{
	"how": {}, "do": {}, "does": {}, "can": {}, "the": {}, "and": {}, "for": {},
	"what": {}, "where": {}, "use": {}, "you": {}, "your": {}, "with": {}, "from": {},
	"lesson": {}, "lessons": {}, "a": {}, "an": {}, "is": {}, "it": {}, "to": {},
	"of": {}, "on": {}, "in": {}, "my": {}, "me": {}, "or": {}, "its": {}, "each": {},
}

func tokenSet(s string) map[string]struct{} {
	parts := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, ".,;:!?()[]{}\"'")
		if len(p) < 2 {
			continue
		}
		if _, stop := stopWords[p]; stop {
			continue
		}
		set[stem(p)] = struct{}{}
	}
	return set
}

// stem folds the common English suffixes so "printing" meets "print".
func stem(w string) string {
	for _, suf := range []string{"ing", "ed", "s"} {
		if len(w) > len(suf)+3 && strings.HasSuffix(w, suf) {
			return strings.TrimSuffix(w, suf)
		}
	}
	return w
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	count := 0
	for k := range a {
		if _, ok := b[k]; ok {
			count++
		}
	}
	return count
}

var _ mentor.FeatureIndex = (*Index)(nil)
