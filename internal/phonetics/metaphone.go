// Package phonetics encodes lab test names into sound-alike codes so that
// OCR and typing slips such as "kolesterol" still reach "cholesterol".
//
// Codes are built from ASCII letters and digits only; everything else in the
// input is dropped before encoding.
package phonetics

import (
	"strings"
)

// Encoder produces a primary and a secondary phonetic code for a term.
type Encoder interface {
	Encode(text string) (primary, secondary string)
}

// rewrite is an ordered digraph substitution.
type rewrite struct {
	from, to string
}

// Medical spellings borrow heavily from Greek and Latin, so CH reads as K
// (cholesterol, chloride) and the AE/OE ligatures collapse to E
// (haemoglobin, oestradiol).
var primaryRewrites = []rewrite{
	{"PH", "F"},
	{"GH", "F"},
	{"AE", "E"},
	{"OE", "E"},
	{"CK", "K"},
	{"CH", "K"},
	{"QU", "KW"},
	{"TH", "0"},
	{"SH", "X"},
	{"KN", "N"},
	{"WR", "R"},
	{"Y", "I"},
	{"Z", "S"},
}

var secondaryRewrites = []rewrite{
	{"PH", "F"},
	{"AE", "E"},
	{"OE", "E"},
	{"CK", "K"},
	{"KN", "N"},
	{"WR", "R"},
	{"PS", "S"},
}

const codeLength = 6

// MedicalPhonetics implements a simplified double metaphone tuned for lab
// test names.
type MedicalPhonetics struct{}

// NewMedicalPhonetics creates the encoder.
func NewMedicalPhonetics() *MedicalPhonetics {
	return &MedicalPhonetics{}
}

// Encode returns the primary and secondary codes for text.
func (mp *MedicalPhonetics) Encode(text string) (primary, secondary string) {
	letters := lettersOnly(text)
	if letters == "" {
		return "", ""
	}
	return mp.primary(letters), mp.secondary(letters)
}

// primary applies the digraph rewrites, keeps the first letter and drops the
// remaining vowels.
func (mp *MedicalPhonetics) primary(s string) string {
	for _, rw := range primaryRewrites {
		s = strings.ReplaceAll(s, rw.from, rw.to)
	}

	if len(s) > 1 {
		rest := strings.Map(func(r rune) rune {
			switch r {
			case 'A', 'E', 'I', 'O', 'U':
				return -1
			default:
				return r
			}
		}, s[1:])
		s = s[:1] + rest
	}

	return truncate(collapse(s))
}

// secondary builds a consonant skeleton with soft letters folded together.
func (mp *MedicalPhonetics) secondary(s string) string {
	for _, rw := range secondaryRewrites {
		s = strings.ReplaceAll(s, rw.from, rw.to)
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 {
			switch r {
			case 'A', 'E', 'I', 'O', 'U', 'H', 'W', 'Y':
				continue
			}
		}
		switch r {
		case 'C', 'Q':
			b.WriteRune('K')
		case 'G':
			b.WriteRune('J')
		case 'X':
			b.WriteString("KS")
		case 'V':
			b.WriteRune('F')
		case 'Z':
			b.WriteRune('S')
		default:
			b.WriteRune(r)
		}
	}

	return truncate(collapse(b.String()))
}

// Score returns 0.6 when the primary codes agree plus 0.4 when the
// secondary codes agree.
func Score(enc Encoder, a, b string) float64 {
	if enc == nil {
		return 0
	}
	p1, s1 := enc.Encode(a)
	p2, s2 := enc.Encode(b)

	score := 0.0
	if p1 != "" && p1 == p2 {
		score += 0.6
	}
	if s1 != "" && s1 == s2 {
		score += 0.4
	}
	return score
}

// lettersOnly upper-cases text and keeps ASCII letters and digits, so
// "Vitamin B12" and "vitamin-b12" encode alike. The result is pure ASCII,
// which primary and truncate rely on when slicing by byte.
func lettersOnly(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapse(s string) string {
	var b strings.Builder
	var last rune
	for _, r := range s {
		if r != last {
			b.WriteRune(r)
			last = r
		}
	}
	return b.String()
}

func truncate(s string) string {
	if len(s) > codeLength {
		return s[:codeLength]
	}
	return s
}
