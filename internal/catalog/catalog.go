// Package catalog holds the immutable set of recognised clinical tests and
// the lookup structures built from it.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ocr-screening/internal/normalize"
)

// ErrInvalidCatalog is wrapped by every catalog construction failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is a validated, read-only collection of entries. It is safe for
// concurrent use once constructed.
type Catalog struct {
	entries []Entry
	byKey   map[string]int
}

// New validates entries and builds a catalog from a private copy of them.
//
// Every key must be unique and non-empty, every name and alias must
// canonicalise to a single key, ranges must be ordered and physical bounds
// must contain the reference range.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	owners := make(map[string]string)

	for i, raw := range entries {
		e := raw.clone()
		e.Key = strings.TrimSpace(e.Key)

		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i, err)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidCatalog, e.Key)
		}

		for _, name := range e.Names() {
			canon := normalize.Canonical(name)
			if canon == "" {
				return nil, fmt.Errorf("%w: %s: empty name or alias %q", ErrInvalidCatalog, e.Key, name)
			}
			if owner, taken := owners[canon]; taken && owner != e.Key {
				return nil, fmt.Errorf("%w: alias %q maps to both %s and %s", ErrInvalidCatalog, name, owner, e.Key)
			}
			owners[canon] = e.Key
		}

		c.byKey[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	return c, nil
}

func validateEntry(e Entry) error {
	if e.Key == "" {
		return errors.New("empty key")
	}
	if strings.TrimSpace(e.DisplayName) == "" {
		return fmt.Errorf("%s: empty display name", e.Key)
	}
	if strings.TrimSpace(e.Unit) == "" {
		return fmt.Errorf("%s: empty unit", e.Key)
	}
	if !e.Reference.valid() {
		return fmt.Errorf("%s: reference range %s is not ordered", e.Key, e.Reference)
	}
	if e.Critical != nil && !e.Critical.valid() {
		return fmt.Errorf("%s: critical range %s is not ordered", e.Key, e.Critical)
	}
	if e.Physical != nil {
		if !e.Physical.valid() {
			return fmt.Errorf("%s: physical range %s is not ordered", e.Key, e.Physical)
		}
		if !e.Physical.Covers(e.Reference) {
			return fmt.Errorf("%s: physical range %s does not contain reference range %s", e.Key, e.Physical, e.Reference)
		}
	}
	return nil
}

// Lookup returns the entry for key.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i].clone(), true
}

// Has reports whether key is in the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Entries returns a copy of all entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// Keys returns the sorted catalog keys.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
