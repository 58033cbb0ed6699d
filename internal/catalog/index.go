package catalog

import (
	"github.com/ocr-screening/internal/normalize"
	"github.com/ocr-screening/internal/symspell"
)

// Term is one searchable spelling and the value it resolves to: a catalog
// key for names, a canonical unit for units, a status for status words.
type Term struct {
	Text  string
	Owner string
}

// Vocabulary is the exact map, ordered term list and fuzzy index for one
// field. Terms are stored in their comparison form.
type Vocabulary struct {
	exact map[string]string
	terms []Term
	fuzzy *symspell.SymSpell
}

func newVocabulary(cfg *symspell.Config) *Vocabulary {
	return &Vocabulary{
		exact: make(map[string]string),
		fuzzy: symspell.New(cfg),
	}
}

// add registers text for owner. The first owner of a spelling wins.
func (v *Vocabulary) add(text, owner string) {
	if text == "" {
		return
	}
	if _, exists := v.exact[text]; exists {
		return
	}
	v.exact[text] = owner
	v.terms = append(v.terms, Term{Text: text, Owner: owner})
	v.fuzzy.AddTerm(text, owner)
}

// Exact returns the owner of an exact spelling.
func (v *Vocabulary) Exact(text string) (string, bool) {
	owner, ok := v.exact[text]
	return owner, ok
}

// Terms returns the terms in insertion order. The slice must not be modified.
func (v *Vocabulary) Terms() []Term {
	return v.terms
}

// Suggest runs a fuzzy lookup within maxDistance edits.
func (v *Vocabulary) Suggest(text string, maxDistance int) []symspell.Suggestion {
	return v.fuzzy.Lookup(text, maxDistance)
}

// Len returns the number of distinct spellings.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// FuzzyStats reports the size of the fuzzy index. Spellings shorter than
// the configured minimum are only reachable through Exact.
func (v *Vocabulary) FuzzyStats() symspell.DictionaryStats {
	return v.fuzzy.Stats()
}

// Index is the searchable form of a catalog. It is built once and is safe
// for unrestricted concurrent reads.
type Index struct {
	catalog  *Catalog
	names    *Vocabulary
	units    *Vocabulary
	statuses *Vocabulary
}

// NewIndex builds the name, unit and status vocabularies for c. A nil cfg
// uses symspell.DefaultConfig.
func NewIndex(c *Catalog, cfg *symspell.Config) *Index {
	if cfg == nil {
		cfg = symspell.DefaultConfig()
	}

	ix := &Index{
		catalog:  c,
		names:    newVocabulary(cfg),
		units:    newVocabulary(cfg),
		statuses: newVocabulary(cfg),
	}

	for _, e := range c.entries {
		for _, name := range e.Names() {
			ix.names.add(normalize.Canonical(name), e.Key)
		}
		for _, unit := range e.Units() {
			ix.units.add(normalize.UnitKey(unit), e.Unit)
		}
	}

	for _, status := range []Status{StatusLow, StatusNormal, StatusHigh} {
		for _, word := range StatusTerms[status] {
			ix.statuses.add(normalize.Canonical(word), string(status))
		}
	}

	return ix
}

// Catalog returns the catalog the index was built from.
func (ix *Index) Catalog() *Catalog {
	return ix.catalog
}

// Names is the vocabulary of canonical test names and aliases.
func (ix *Index) Names() *Vocabulary {
	return ix.names
}

// Units is the vocabulary of unit keys, owned by canonical unit strings.
func (ix *Index) Units() *Vocabulary {
	return ix.units
}

// Statuses is the vocabulary of status words.
func (ix *Index) Statuses() *Vocabulary {
	return ix.statuses
}

// UnitAccepted reports whether unit is the canonical unit of entry key or
// one of its recognised variants.
func (ix *Index) UnitAccepted(key, unit string) bool {
	e, ok := ix.catalog.Lookup(key)
	if !ok {
		return false
	}
	uk := normalize.UnitKey(unit)
	if uk == "" {
		return false
	}
	for _, u := range e.Units() {
		if normalize.UnitKey(u) == uk {
			return true
		}
	}
	return false
}
