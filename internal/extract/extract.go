// Package extract scans report text for "name value [unit] [range] [status]"
// mentions and turns each one into a raw candidate.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/labresult"
	"github.com/ocr-screening/internal/normalize"
)

var (
	// leadingNumber splits a value glued to its unit ("10.2g/dL").
	leadingNumber = regexp.MustCompile(`^([+-]?\d+(?:[.,]\d+)?)(.*)$`)

	// rangeToken matches reference range fragments such as "12.0-15.0",
	// "(70-100)", "<200" or a lone dash.
	rangeToken = regexp.MustCompile(`^(?:[-–]|[\[(]?[<>≤≥]?\d+(?:[.,]\d+)?(?:[-–]\d+(?:[.,]\d+)?)?[\])]?)$`)

	// segmentSplit separates several mentions written on one line.
	segmentSplit = regexp.MustCompile(`[;|]|,\s+`)
)

const maxNameWords = 6

// Extractor finds raw candidates in text. It is stateless.
type Extractor struct {
	statusWords map[string]bool
	logger      zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for skipped lines.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an extractor that recognises the catalog status vocabulary.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		statusWords: make(map[string]bool),
		logger:      zerolog.Nop(),
	}
	for _, words := range catalog.StatusTerms {
		for _, w := range words {
			e.statusWords[w] = true
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the candidates found in text in reading order.
func (e *Extractor) Extract(text string) []labresult.RawCandidate {
	var candidates []labresult.RawCandidate

	for i, line := range strings.Split(text, "\n") {
		for _, segment := range segmentSplit.Split(line, -1) {
			c, ok := e.parseSegment(segment)
			if !ok {
				continue
			}
			c.Line = i + 1
			candidates = append(candidates, c)
		}
	}

	e.logger.Debug().Int("candidates", len(candidates)).Msg("text scanned")
	return candidates
}

func (e *Extractor) parseSegment(segment string) (labresult.RawCandidate, bool) {
	tokens := strings.Fields(segment)

	valueAt := -1
	var value float64
	var glued string
	for i, tok := range tokens {
		if i == 0 {
			continue
		}
		v, rest, ok := parseValue(tok)
		if ok {
			valueAt, value, glued = i, v, rest
			break
		}
	}
	if valueAt < 0 {
		return labresult.RawCandidate{}, false
	}

	nameTokens := tokens[:valueAt]
	if len(nameTokens) > maxNameWords {
		nameTokens = nameTokens[len(nameTokens)-maxNameWords:]
	}
	name := strings.TrimRight(strings.Join(nameTokens, " "), ":=-–. ")
	if !hasLetter(name) {
		return labresult.RawCandidate{}, false
	}

	c := labresult.RawCandidate{Name: name, Value: value}

	rest := tokens[valueAt+1:]
	if glued != "" {
		rest = append([]string{glued}, rest...)
	}

	for _, tok := range rest {
		switch {
		case e.isStatus(tok):
			c.StatusToken = strings.Trim(tok, "()[]*")
			return c, true
		case rangeToken.MatchString(tok):
			continue
		case c.Unit == "" && looksLikeUnit(tok):
			c.Unit = strings.TrimRight(tok, ",.")
		}
	}

	return c, true
}

func (e *Extractor) isStatus(tok string) bool {
	if _, ok := catalog.StatusSymbol(tok); ok {
		return true
	}
	word := strings.ToLower(strings.Trim(tok, "()[]*:.,"))
	return word != "" && e.statusWords[word]
}

// parseValue reads a numeric token, tolerating comparison prefixes and a
// unit glued to the number.
func parseValue(tok string) (float64, string, bool) {
	trimmed := strings.TrimLeft(tok, "<>≤≥=:")
	m := leadingNumber.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, "", false
	}

	rest := m[2]
	// "25-OH" and "1.2.3" are not values; "10.2g/dL" is.
	if rest != "" && !unitStart(rest) {
		return 0, "", false
	}

	v, err := normalize.ParseFloat(m[1])
	if err != nil {
		return 0, "", false
	}
	return v, rest, true
}

func looksLikeUnit(tok string) bool {
	if tok == "" || len([]rune(tok)) > 16 {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) || r == '%' || r == '/' {
			return true
		}
	}
	return false
}

// unitStart reports whether the text glued after a number reads as a unit:
// it starts like one and is more than a date or fraction tail.
func unitStart(s string) bool {
	r := []rune(s)[0]
	if !unicode.IsLetter(r) && r != '%' && r != '/' {
		return false
	}
	return hasLetter(s) || strings.Contains(s, "%")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
