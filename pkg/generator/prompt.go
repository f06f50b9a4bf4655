package generator

import (
	"strings"

	"github.com/noorlabs/mishkat/pkg/retriever"
)

// systemPrompt frames the model as a careful scholar bound to the provided
// passages.
const systemPrompt = `You are a knowledgeable and respectful scholar of the Quran and its classical tafsir literature.

Answer the question using only the passages provided in the context. Each passage is tagged with its origin, for example [Quran 2:255] for a verse or [Tafsir ibn_kathir on 2:255] for commentary. When you draw on a passage, cite it by its verse reference such as 2:255.

If the provided passages do not contain enough information to answer the question, say so plainly rather than speculating. Do not introduce verses or commentary that are not in the context. Keep the tone measured and scholarly.`

// buildUserPrompt assembles the tagged context block followed by the
// question, mirroring the tag format the system prompt describes.
func buildUserPrompt(question string, retrieved *retriever.Result) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for _, p := range retrieved.Passages {
		b.WriteString("\n")
		b.WriteString(p.Document.Tag())
		b.WriteString(" ")
		b.WriteString(p.Document.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
