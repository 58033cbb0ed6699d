package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseFloat converts a numeric token to float64, accepting a comma as the
// decimal separator ("10,2") as OCR output of European reports often has.
func ParseFloat(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if strings.Count(trimmed, ",") == 1 && !strings.Contains(trimmed, ".") {
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	return strconv.ParseFloat(trimmed, 64)
}

// Fold applies compatibility normalisation, strips combining marks and case
// folds the text. The transformers are stateful, so a fresh chain is built
// per call to keep Fold safe for concurrent use.
func Fold(raw string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, raw)
	if err != nil {
		s = raw
	}
	return cases.Fold().String(s)
}

// Canonical folds raw and replaces everything that is not a letter or digit
// with a single space.
func Canonical(raw string) string {
	if raw == "" {
		return ""
	}

	s := Fold(raw)

	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the canonical words of text.
func Tokens(text string) []string {
	return strings.Fields(Canonical(text))
}

// specimenQualifiers are words that describe how a sample was taken rather
// than which analyte was measured.
var specimenQualifiers = map[string]bool{
	"serum":   true,
	"plasma":  true,
	"blood":   true,
	"whole":   true,
	"venous":  true,
	"s":       true,
	"random":  true,
	"level":   true,
	"levels":  true,
	"test":    true,
	"fasting": true,
}

// StripQualifiers drops specimen qualifier words from a canonical name
// ("serum creatinine" -> "creatinine"). It returns the input unchanged when
// nothing would be left.
func StripQualifiers(canonical string) string {
	tokens := strings.Fields(canonical)
	kept := tokens[:0:0]
	for _, token := range tokens {
		if specimenQualifiers[token] {
			continue
		}
		kept = append(kept, token)
	}
	if len(kept) == 0 {
		return canonical
	}
	return strings.Join(kept, " ")
}

// unitRewrites run in order over a folded, space-free unit string.
var unitRewrites = []struct{ from, to string }{
	{"μ", "u"},
	{"mcg", "ug"},
	{"micro", "u"},
	{"litre", "l"},
	{"liter", "l"},
	{"ltr", "l"},
	{"cumm", "ul"},
	{"mm3", "ul"},
	{"gm/", "g/"},
	{"gms/", "g/"},
	{"percent", "%"},
	{"per", "/"},
	{"\\", "/"},
	{"×", "x"},
}

// UnitKey reduces a unit to a comparison key so that notational variants
// ("g/dL", "G/DL", "g / dl", "gm/dl", "g per dL") compare equal.
func UnitKey(unit string) string {
	s := strings.TrimSpace(Fold(unit))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "µ", "μ")
	s = strings.Join(strings.Fields(s), "")
	for _, rw := range unitRewrites {
		s = strings.ReplaceAll(s, rw.from, rw.to)
	}
	return s
}

// ContainsSequence reports whether needle appears as a contiguous run of
// tokens inside haystack.
func ContainsSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Windows returns every run of size consecutive tokens. The runs share
// tokens' backing array.
func Windows(tokens []string, size int) [][]string {
	if size <= 0 || size > len(tokens) {
		return nil
	}
	out := make([][]string, 0, len(tokens)-size+1)
	for i := 0; i+size <= len(tokens); i++ {
		out = append(out, tokens[i:i+size])
	}
	return out
}
