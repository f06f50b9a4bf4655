package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrEmptyCorpus is returned when loading produces no documents.
var ErrEmptyCorpus = errors.New("corpus is empty")

var referencePattern = regexp.MustCompile(`^(\d+):(\d+)`)

// quranFile mirrors the layout of quran.json: a list of surahs, each holding
// its numbered verses.
type quranFile struct {
	Surahs []struct {
		Number int    `json:"number"`
		Name   string `json:"name"`
		Verses []struct {
			Number int    `json:"number"`
			Text   string `json:"text"`
		} `json:"verses"`
	} `json:"surahs"`
}

// tafsirEntry is one commentary passage in the list-format tafsir files.
type tafsirEntry struct {
	Reference   string `json:"reference"`
	Explanation string `json:"explanation"`
	Text        string `json:"text"`
}

// LoadQuran reads the Quran JSON file and returns one document per verse.
func LoadQuran(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading quran file: %w", err)
	}

	var file quranFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing quran file: %w", err)
	}

	var docs []Document
	for _, surah := range file.Surahs {
		for _, verse := range surah.Verses {
			loc := Locator{Surah: surah.Number, Verse: verse.Number}
			docs = append(docs, Document{
				ID:      "quran:" + loc.Reference(),
				Text:    verse.Text,
				Source:  SourceVerse,
				Locator: loc,
			})
		}
	}

	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	return docs, nil
}

// LoadTafsirDir reads every .json file in dir as a tafsir collection named
// after the file. Both supported formats are handled: a map keyed by
// "surah:verse" reference, and a list of entries carrying their own reference.
func LoadTafsirDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tafsir directory: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		collection := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())

		collectionDocs, err := loadTafsirFile(path, collection)
		if err != nil {
			return nil, fmt.Errorf("loading tafsir %s: %w", collection, err)
		}
		docs = append(docs, collectionDocs...)
	}

	return docs, nil
}

func loadTafsirFile(path, collection string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Map format: {"2:255": {"text": ...}, ...} or {"2:255": "..."}
	var byRef map[string]json.RawMessage
	if err := json.Unmarshal(data, &byRef); err == nil {
		return tafsirFromMap(byRef, collection)
	}

	// List format: [{"reference": "2:255", "explanation": ...}, ...]
	var list []tafsirEntry
	if err := json.Unmarshal(data, &list); err == nil {
		return tafsirFromList(list, collection)
	}

	return nil, fmt.Errorf("unsupported tafsir format in %s", path)
}

func tafsirFromMap(byRef map[string]json.RawMessage, collection string) ([]Document, error) {
	var docs []Document
	for reference, raw := range byRef {
		loc, ok := parseReference(reference)
		if !ok {
			continue
		}

		text := extractText(raw)
		if text == "" {
			continue
		}

		docs = append(docs, newTafsirDocument(collection, loc, text))
	}
	return docs, nil
}

func tafsirFromList(list []tafsirEntry, collection string) ([]Document, error) {
	var docs []Document
	for _, entry := range list {
		loc, ok := parseReference(entry.Reference)
		if !ok {
			continue
		}

		text := entry.Explanation
		if text == "" {
			text = entry.Text
		}
		if text == "" {
			continue
		}

		docs = append(docs, newTafsirDocument(collection, loc, text))
	}
	return docs, nil
}

func newTafsirDocument(collection string, loc Locator, text string) Document {
	return Document{
		ID:         fmt.Sprintf("tafsir:%s:%s", collection, loc.Reference()),
		Text:       text,
		Source:     SourceTafsir,
		Collection: collection,
		Locator:    loc,
	}
}

// extractText handles both {"text": "..."} objects and bare strings.
func extractText(raw json.RawMessage) string {
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
		return obj.Text
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return ""
}

// parseReference parses a "surah:verse" reference, tolerating trailing text.
func parseReference(reference string) (Locator, bool) {
	m := referencePattern.FindStringSubmatch(reference)
	if m == nil {
		return Locator{}, false
	}

	var loc Locator
	fmt.Sscanf(m[1], "%d", &loc.Surah)
	fmt.Sscanf(m[2], "%d", &loc.Verse)
	return loc, true
}
