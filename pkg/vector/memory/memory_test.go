package memory_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/vector"
	"github.com/noorlabs/mishkat/pkg/vector/memory"
)

func verseDoc(id string, surah, verse int, embedding []float32) corpus.Document {
	return corpus.Document{
		ID:        id,
		Text:      "text of " + id,
		Source:    corpus.SourceVerse,
		Locator:   corpus.Locator{Surah: surah, Verse: verse},
		Embedding: embedding,
	}
}

var _ = Describe("Driver", func() {
	var (
		driver *memory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		logger, _ := zap.NewDevelopment()
		var err error
		driver, err = memory.New(3, logger)
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("New", func() {
		It("rejects a non-positive dimension", func() {
			logger, _ := zap.NewDevelopment()
			_, err := memory.New(0, logger)
			Expect(err).To(MatchError(vector.ErrBuild))
		})
	})

	Describe("Build", func() {
		It("indexes documents with matching embeddings", func() {
			err := driver.Build(ctx, []corpus.Document{
				verseDoc("quran:1:1", 1, 1, []float32{1, 0, 0}),
				verseDoc("quran:1:2", 1, 2, []float32{0, 1, 0}),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Len()).To(Equal(2))
		})

		It("rejects documents without embeddings", func() {
			err := driver.Build(ctx, []corpus.Document{
				verseDoc("quran:1:1", 1, 1, nil),
			})
			Expect(err).To(MatchError(vector.ErrBuild))
		})

		It("rejects documents with the wrong dimension", func() {
			err := driver.Build(ctx, []corpus.Document{
				verseDoc("quran:1:1", 1, 1, []float32{1, 0}),
			})
			Expect(err).To(MatchError(vector.ErrBuild))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			err := driver.Build(ctx, []corpus.Document{
				verseDoc("quran:1:1", 1, 1, []float32{1, 0, 0}),
				verseDoc("quran:1:2", 1, 2, []float32{0.9, 0.1, 0}),
				verseDoc("quran:2:255", 2, 255, []float32{0, 1, 0}),
				verseDoc("quran:3:1", 3, 1, []float32{0, 0, 1}),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("orders results by descending similarity", func() {
			results, err := driver.Search(ctx, []float32{1, 0, 0}, 4, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			Expect(results[0].Document.ID).To(Equal("quran:1:1"))
			Expect(results[1].Document.ID).To(Equal("quran:1:2"))
			for i := 1; i < len(results); i++ {
				Expect(results[i].Score).To(BeNumerically("<=", results[i-1].Score))
			}
		})

		It("breaks score ties by ascending document ID", func() {
			err := driver.Build(ctx, []corpus.Document{
				verseDoc("quran:9:9", 9, 9, []float32{1, 0, 0}),
				verseDoc("quran:1:1", 1, 1, []float32{1, 0, 0}),
			})
			Expect(err).NotTo(HaveOccurred())

			results, err := driver.Search(ctx, []float32{1, 0, 0}, 2, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Document.ID).To(Equal("quran:1:1"))
			Expect(results[1].Document.ID).To(Equal("quran:9:9"))
		})

		It("returns at most k results", func() {
			results, err := driver.Search(ctx, []float32{1, 0, 0}, 2, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("returns fewer than k results without error", func() {
			results, err := driver.Search(ctx, []float32{1, 0, 0}, 100, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
		})

		It("applies surah filters before ranking", func() {
			results, err := driver.Search(ctx, []float32{1, 0, 0}, 4, &vector.Filter{Surah: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Document.ID).To(Equal("quran:2:255"))
		})

		It("returns empty results when nothing matches the filter", func() {
			results, err := driver.Search(ctx, []float32{1, 0, 0}, 4, &vector.Filter{Surah: 99})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("rejects a query of the wrong dimension", func() {
			_, err := driver.Search(ctx, []float32{1, 0}, 4, nil)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})
	})
})

var _ = Describe("Persistence", func() {
	var (
		driver *memory.Driver
		tmpDir string
		ctx    context.Context
		logger *zap.Logger
	)

	BeforeEach(func() {
		logger, _ = zap.NewDevelopment()
		var err error
		driver, err = memory.New(3, logger)
		Expect(err).NotTo(HaveOccurred())

		tmpDir, err = os.MkdirTemp("", "index-test-*")
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("round-trips an index through disk", func() {
		err := driver.Build(ctx, []corpus.Document{
			verseDoc("quran:1:1", 1, 1, []float32{1, 0, 0}),
			verseDoc("quran:2:255", 2, 255, []float32{0, 1, 0}),
		})
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(tmpDir, "index.json")
		Expect(driver.Save(path)).To(Succeed())

		loaded, err := memory.Load(path, logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Len()).To(Equal(2))
		Expect(loaded.Dimension()).To(Equal(3))

		results, err := loaded.Search(ctx, []float32{0, 1, 0}, 1, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Document.ID).To(Equal("quran:2:255"))
	})

	It("fails to load an unparseable file with ErrCorruptIndex", func() {
		path := filepath.Join(tmpDir, "index.json")
		Expect(os.WriteFile(path, []byte("not json"), 0o600)).To(Succeed())

		_, err := memory.Load(path, logger)
		Expect(err).To(MatchError(vector.ErrCorruptIndex))
	})

	It("fails to load an index whose vectors disagree with the recorded dimension", func() {
		path := filepath.Join(tmpDir, "index.json")
		data := `{"version":1,"dimension":3,"documents":[{"id":"quran:1:1","text":"x","source":"verse","locator":{"surah":1,"verse":1},"embedding":[1,0]}]}`
		Expect(os.WriteFile(path, []byte(data), 0o600)).To(Succeed())

		_, err := memory.Load(path, logger)
		Expect(err).To(MatchError(vector.ErrCorruptIndex))
	})

	It("fails to load a missing file", func() {
		_, err := memory.Load(filepath.Join(tmpDir, "nope.json"), logger)
		Expect(err).To(HaveOccurred())
	})

	Describe("Exists", func() {
		It("reports presence of a persisted index", func() {
			path := filepath.Join(tmpDir, "index.json")
			Expect(memory.Exists(path)).To(BeFalse())
			Expect(os.WriteFile(path, []byte("{}"), 0o600)).To(Succeed())
			Expect(memory.Exists(path)).To(BeTrue())
		})
	})
})
