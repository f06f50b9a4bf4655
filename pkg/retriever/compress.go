package retriever

import (
	"strings"
	"unicode"

	"github.com/noorlabs/mishkat/pkg/vector"
)

// compress drops passages whose token sets overlap an already-kept passage
// beyond the threshold. Input is ranked best-first, so the higher scored of
// any redundant pair survives.
func compress(results []vector.Result, threshold float64) []vector.Result {
	kept := results[:0]
	keptTokens := make([]map[string]struct{}, 0, len(results))

	for _, res := range results {
		tokens := tokenize(res.Document.Text)
		redundant := false
		for _, prev := range keptTokens {
			if jaccard(tokens, prev) >= threshold {
				redundant = true
				break
			}
		}
		if redundant {
			continue
		}
		kept = append(kept, res)
		keptTokens = append(keptTokens, tokens)
	}
	return kept
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// jaccard is intersection over union of two token sets. Two empty sets are
// identical by convention.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
