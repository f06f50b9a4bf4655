package generator

import (
	"regexp"

	"github.com/noorlabs/mishkat/pkg/retriever"
)

// citationPattern matches verse references in answer text, either bare
// ("2:255") or prefixed ("Quran 2:255", "Surah 2:255").
var citationPattern = regexp.MustCompile(`(?:(?:Quran|Qur'an|Surah)\s+)?(\d{1,3}):(\d{1,3})`)

// citedSources cross-references every verse citation in the answer against
// the retrieved passages and returns the matching ones in retrieval order.
// Citations that match nothing retrieved are dropped.
func citedSources(answer string, retrieved *retriever.Result) []Source {
	cited := make(map[string]struct{})
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		cited[m[1]+":"+m[2]] = struct{}{}
	}
	if len(cited) == 0 {
		return nil
	}

	var sources []Source
	for _, p := range retrieved.Passages {
		if _, ok := cited[p.Document.Reference()]; !ok {
			continue
		}
		sources = append(sources, Source{
			Type:      p.Document.Source,
			Reference: p.Document.Reference(),
			Content:   p.Document.Text,
		})
	}
	return sources
}
