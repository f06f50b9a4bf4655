package vector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/noorlabs/mishkat/pkg/corpus"
	"github.com/noorlabs/mishkat/pkg/vector"
)

var _ = Describe("Filter", func() {
	loc := func(surah, verse int) corpus.Locator {
		return corpus.Locator{Surah: surah, Verse: verse}
	}

	Describe("Matches", func() {
		It("matches everything when nil", func() {
			var f *vector.Filter
			Expect(f.Matches(loc(2, 255))).To(BeTrue())
		})

		It("restricts by surah", func() {
			f := &vector.Filter{Surah: 2}
			Expect(f.Matches(loc(2, 1))).To(BeTrue())
			Expect(f.Matches(loc(2, 286))).To(BeTrue())
			Expect(f.Matches(loc(3, 1))).To(BeFalse())
		})

		It("restricts by single verse", func() {
			f := &vector.Filter{Surah: 2, Verse: 255}
			Expect(f.Matches(loc(2, 255))).To(BeTrue())
			Expect(f.Matches(loc(2, 254))).To(BeFalse())
		})

		It("restricts by inclusive verse range", func() {
			f := &vector.Filter{Surah: 2, Verse: 153, EndVerse: 157}
			Expect(f.Matches(loc(2, 153))).To(BeTrue())
			Expect(f.Matches(loc(2, 155))).To(BeTrue())
			Expect(f.Matches(loc(2, 157))).To(BeTrue())
			Expect(f.Matches(loc(2, 152))).To(BeFalse())
			Expect(f.Matches(loc(2, 158))).To(BeFalse())
		})
	})

	Describe("IsZero", func() {
		It("treats nil and zero-valued filters as unconstrained", func() {
			var f *vector.Filter
			Expect(f.IsZero()).To(BeTrue())
			Expect((&vector.Filter{}).IsZero()).To(BeTrue())
			Expect((&vector.Filter{Surah: 2}).IsZero()).To(BeFalse())
		})
	})
})
