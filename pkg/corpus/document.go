// Package corpus defines the retrievable document model and loads the Quran
// and tafsir source files into it.
package corpus

import "fmt"

// SourceType distinguishes primary Quranic text from commentary.
type SourceType string

const (
	// SourceVerse is a verse of the Quran itself.
	SourceVerse SourceType = "verse"

	// SourceTafsir is a commentary passage from a tafsir collection.
	SourceTafsir SourceType = "tafsir"
)

// Locator identifies the position of a passage within the Quran.
type Locator struct {
	Surah int `json:"surah"`
	Verse int `json:"verse"`
}

// Reference renders the locator in the conventional "surah:verse" form
// (e.g. "2:255").
func (l Locator) Reference() string {
	return fmt.Sprintf("%d:%d", l.Surah, l.Verse)
}

// Document is an immutable unit of retrievable content. Documents are created
// at index-build time and never mutated afterwards.
type Document struct {
	// ID uniquely identifies the document within the corpus
	// (e.g. "quran:2:255", "tafsir:ibn_kathir:2:255#1").
	ID string `json:"id"`

	// Text is the passage content.
	Text string `json:"text"`

	// Source marks the passage as verse or tafsir.
	Source SourceType `json:"source"`

	// Collection names the tafsir collection for tafsir passages
	// (e.g. "ibn_kathir"). Empty for verses.
	Collection string `json:"collection,omitempty"`

	// Locator is the structured surah/verse reference.
	Locator Locator `json:"locator"`

	// Embedding is the document vector, populated at index-build time.
	Embedding []float32 `json:"embedding,omitempty"`
}

// Reference returns the human-readable citation for the document.
func (d Document) Reference() string {
	return d.Locator.Reference()
}

// Tag renders the bracketed context tag used in generation prompts, e.g.
// "[Quran 2:255]" or "[Tafsir ibn_kathir on 2:255]".
func (d Document) Tag() string {
	if d.Source == SourceTafsir {
		return fmt.Sprintf("[Tafsir %s on %s]", d.Collection, d.Reference())
	}
	return fmt.Sprintf("[Quran %s]", d.Reference())
}
