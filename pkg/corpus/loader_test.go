package corpus_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/noorlabs/mishkat/pkg/corpus"
)

const quranJSON = `{
  "surahs": [
    {
      "number": 1,
      "name": "Al-Fatihah",
      "verses": [
        {"number": 1, "text": "In the name of God, the Most Gracious, the Most Merciful."},
        {"number": 2, "text": "Praise be to God, Lord of the worlds."}
      ]
    },
    {
      "number": 2,
      "name": "Al-Baqarah",
      "verses": [
        {"number": 255, "text": "God, there is no deity except Him, the Ever-Living, the Sustainer."}
      ]
    }
  ]
}`

var _ = Describe("LoadQuran", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "corpus-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeQuran := func(content string) string {
		path := filepath.Join(tmpDir, "quran.json")
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	It("returns one document per verse", func() {
		docs, err := corpus.LoadQuran(writeQuran(quranJSON))
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(3))
	})

	It("assigns stable IDs and locators", func() {
		docs, err := corpus.LoadQuran(writeQuran(quranJSON))
		Expect(err).NotTo(HaveOccurred())
		Expect(docs[0].ID).To(Equal("quran:1:1"))
		Expect(docs[2].ID).To(Equal("quran:2:255"))
		Expect(docs[2].Locator.Surah).To(Equal(2))
		Expect(docs[2].Locator.Verse).To(Equal(255))
	})

	It("marks every document as a verse", func() {
		docs, err := corpus.LoadQuran(writeQuran(quranJSON))
		Expect(err).NotTo(HaveOccurred())
		for _, doc := range docs {
			Expect(doc.Source).To(Equal(corpus.SourceVerse))
			Expect(doc.Collection).To(BeEmpty())
		}
	})

	It("fails on a missing file", func() {
		_, err := corpus.LoadQuran(filepath.Join(tmpDir, "nope.json"))
		Expect(err).To(HaveOccurred())
	})

	It("returns ErrEmptyCorpus when the file holds no verses", func() {
		_, err := corpus.LoadQuran(writeQuran(`{"surahs": []}`))
		Expect(err).To(MatchError(corpus.ErrEmptyCorpus))
	})
})

var _ = Describe("LoadTafsirDir", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "tafsir-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeTafsir := func(name, content string) {
		Expect(os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0o600)).To(Succeed())
	}

	Context("map format keyed by reference", func() {
		BeforeEach(func() {
			writeTafsir("ibn_kathir.json", `{
				"2:255": {"text": "This is the Verse of the Throne, the greatest verse of the Quran."},
				"1:1": "The basmalah opens every surah but one."
			}`)
		})

		It("loads one document per reference", func() {
			docs, err := corpus.LoadTafsirDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
		})

		It("names the collection after the file", func() {
			docs, err := corpus.LoadTafsirDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			for _, doc := range docs {
				Expect(doc.Collection).To(Equal("ibn_kathir"))
				Expect(doc.Source).To(Equal(corpus.SourceTafsir))
			}
		})

		It("handles both object and bare string values", func() {
			docs, err := corpus.LoadTafsirDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			texts := make(map[string]string, len(docs))
			for _, doc := range docs {
				texts[doc.Reference()] = doc.Text
			}
			Expect(texts["2:255"]).To(ContainSubstring("Verse of the Throne"))
			Expect(texts["1:1"]).To(ContainSubstring("basmalah"))
		})
	})

	Context("list format with explicit references", func() {
		BeforeEach(func() {
			writeTafsir("jalalayn.json", `[
				{"reference": "2:255", "explanation": "A concise commentary on the Throne verse."},
				{"reference": "2:286", "text": "God burdens no soul beyond its capacity."},
				{"reference": "not-a-reference", "explanation": "dropped"}
			]`)
		})

		It("loads entries and skips unparseable references", func() {
			docs, err := corpus.LoadTafsirDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
		})

		It("prefers explanation over text", func() {
			docs, err := corpus.LoadTafsirDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			texts := make(map[string]string, len(docs))
			for _, doc := range docs {
				texts[doc.Reference()] = doc.Text
			}
			Expect(texts["2:255"]).To(ContainSubstring("concise commentary"))
			Expect(texts["2:286"]).To(ContainSubstring("burdens no soul"))
		})
	})

	It("loads multiple collections from one directory", func() {
		writeTafsir("ibn_kathir.json", `{"1:1": "First collection."}`)
		writeTafsir("jalalayn.json", `{"1:1": "Second collection."}`)

		docs, err := corpus.LoadTafsirDir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))

		collections := make(map[string]bool)
		for _, doc := range docs {
			collections[doc.Collection] = true
		}
		Expect(collections).To(HaveKey("ibn_kathir"))
		Expect(collections).To(HaveKey("jalalayn"))
	})

	It("ignores non-JSON files", func() {
		writeTafsir("notes.txt", "not tafsir")
		writeTafsir("ibn_kathir.json", `{"1:1": "Real content."}`)

		docs, err := corpus.LoadTafsirDir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
	})
})
