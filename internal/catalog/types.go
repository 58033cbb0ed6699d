package catalog

import (
	"fmt"
	"math"
	"strings"
)

// Status is the position of a value relative to a reference range.
type Status string

const (
	StatusLow    Status = "low"
	StatusNormal Status = "normal"
	StatusHigh   Status = "high"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLow, StatusNormal, StatusHigh:
		return true
	}
	return false
}

// Range is an inclusive [Low, High] interval.
type Range struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Classify places v relative to the range: below Low is low, above High is
// high and anything in between (bounds included) is normal.
func (r Range) Classify(v float64) Status {
	switch {
	case v < r.Low:
		return StatusLow
	case v > r.High:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// Contains reports whether v lies inside the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Low && v <= r.High
}

// Covers reports whether other lies entirely inside r.
func (r Range) Covers(other Range) bool {
	return other.Low >= r.Low && other.High <= r.High
}

func (r Range) valid() bool {
	return !math.IsNaN(r.Low) && !math.IsNaN(r.High) && r.Low <= r.High
}

func (r Range) String() string {
	return fmt.Sprintf("%g-%g", r.Low, r.High)
}

// Entry is one recognised clinical test.
type Entry struct {
	Key         string   `json:"key" yaml:"key"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Unit        string   `json:"unit" yaml:"unit"`
	UnitAliases []string `json:"unit_aliases,omitempty" yaml:"unit_aliases"`
	Reference   Range    `json:"reference_range" yaml:"reference"`
	Critical    *Range   `json:"critical_range,omitempty" yaml:"critical"`
	Physical    *Range   `json:"physical_range,omitempty" yaml:"physical"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases"`
}

// Names returns every spelling that identifies the entry: the key, the
// display name and the aliases.
func (e Entry) Names() []string {
	names := make([]string, 0, len(e.Aliases)+2)
	names = append(names, e.Key, e.DisplayName)
	names = append(names, e.Aliases...)
	return names
}

// Units returns the canonical unit followed by its recognised variants.
func (e Entry) Units() []string {
	units := make([]string, 0, len(e.UnitAliases)+1)
	units = append(units, e.Unit)
	units = append(units, e.UnitAliases...)
	return units
}

// IsCritical reports whether v lies outside the critical range. Entries
// without a critical range never flag.
func (e Entry) IsCritical(v float64) bool {
	return e.Critical != nil && !e.Critical.Contains(v)
}

// PhysicallyPlausible reports whether v lies inside the physical bounds.
// Entries without physical bounds accept everything.
func (e Entry) PhysicallyPlausible(v float64) bool {
	return e.Physical == nil || e.Physical.Contains(v)
}

func (e Entry) clone() Entry {
	out := e
	out.UnitAliases = append([]string(nil), e.UnitAliases...)
	out.Aliases = append([]string(nil), e.Aliases...)
	if e.Critical != nil {
		c := *e.Critical
		out.Critical = &c
	}
	if e.Physical != nil {
		p := *e.Physical
		out.Physical = &p
	}
	return out
}

// StatusTerms is the closed vocabulary of words a report uses to flag a
// result. Single letters are matched exactly only.
var StatusTerms = map[Status][]string{
	StatusLow: {
		"low", "l", "lo", "decreased", "dec", "below", "reduced", "deficient", "deficiency",
	},
	StatusNormal: {
		"normal", "n", "nl", "wnl", "within", "ok", "optimal", "desirable", "adequate", "sufficient",
	},
	StatusHigh: {
		"high", "h", "hi", "elevated", "increased", "inc", "above", "raised",
	},
}

// statusSymbols are flags that carry no letters and would vanish under
// canonicalisation.
var statusSymbols = map[string]Status{
	"↑": StatusHigh,
	"⬆": StatusHigh,
	"▲": StatusHigh,
	"↓": StatusLow,
	"⬇": StatusLow,
	"▼": StatusLow,
}

// StatusSymbol resolves an arrow style flag such as "↑" or "(↓)".
func StatusSymbol(raw string) (Status, bool) {
	trimmed := strings.Trim(strings.TrimSpace(raw), "()[]{} ")
	s, ok := statusSymbols[trimmed]
	return s, ok
}
