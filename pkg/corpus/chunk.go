package corpus

import (
	"fmt"
	"strings"
)

// DefaultChunkSize is the character budget for a single tafsir chunk.
// Verses are never chunked; tafsir passages routinely run to several
// thousand characters and are split at sentence boundaries.
const DefaultChunkSize = 1000

// Chunk splits long documents into chunks of at most chunkSize characters,
// breaking at sentence boundaries and preserving metadata. Chunked documents
// get a "#n" suffix on their ID so every chunk stays uniquely addressable.
// Documents at or under the budget pass through unchanged.
func Chunk(docs []Document, chunkSize int) []Document {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Text) <= chunkSize {
			out = append(out, doc)
			continue
		}

		parts := splitSentences(doc.Text, chunkSize)
		if len(parts) == 1 {
			out = append(out, doc)
			continue
		}

		for i, part := range parts {
			chunk := doc
			chunk.ID = fmt.Sprintf("%s#%d", doc.ID, i+1)
			chunk.Text = part
			out = append(out, chunk)
		}
	}

	return out
}

// splitSentences packs sentences greedily into parts of at most chunkSize
// characters. A single sentence longer than the budget becomes its own part.
func splitSentences(text string, chunkSize int) []string {
	sentences := strings.SplitAfter(text, ". ")

	var parts []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence) > chunkSize {
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}

	return parts
}
