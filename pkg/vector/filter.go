package vector

import "github.com/noorlabs/mishkat/pkg/corpus"

// Filter restricts a search to a surah, a single verse, or a verse range.
// Zero fields mean "no constraint"; Verse and EndVerse are only meaningful
// when Surah is set.
type Filter struct {
	// Surah restricts results to one surah (1..114).
	Surah int

	// Verse restricts results to one verse within Surah, or to the start of
	// a range when EndVerse is also set.
	Verse int

	// EndVerse is the inclusive end of a verse range starting at Verse.
	EndVerse int
}

// Matches reports whether a document locator satisfies the filter.
// A nil filter matches everything.
func (f *Filter) Matches(loc corpus.Locator) bool {
	if f == nil {
		return true
	}
	if f.Surah != 0 && loc.Surah != f.Surah {
		return false
	}
	if f.Verse != 0 {
		if f.EndVerse != 0 {
			return loc.Verse >= f.Verse && loc.Verse <= f.EndVerse
		}
		return loc.Verse == f.Verse
	}
	return true
}

// IsZero reports whether the filter places no constraint at all.
func (f *Filter) IsZero() bool {
	return f == nil || (f.Surah == 0 && f.Verse == 0 && f.EndVerse == 0)
}
