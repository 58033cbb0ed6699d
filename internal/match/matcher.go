package match

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/normalize"
	"github.com/ocr-screening/internal/phonetics"
	"github.com/ocr-screening/internal/similarity"
)

// field describes how one kind of token is searched.
type field struct {
	name      string
	vocab     *catalog.Vocabulary
	key       func(raw string) string
	threshold float64
	skip      map[Method]bool
}

// Matcher runs the strategy cascade against a catalog index. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	index   *catalog.Index
	cfg     Config
	scorer  *Scorer
	encoder phonetics.Encoder
	logger  zerolog.Logger

	names, units, statuses field
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// WithEncoder replaces the phonetic encoder. A nil encoder removes the
// phonetic strategy from the cascade.
func WithEncoder(enc phonetics.Encoder) Option {
	return func(m *Matcher) {
		m.encoder = enc
	}
}

// New creates a matcher over index. An empty strategy list falls back to
// DefaultStrategies.
func New(index *catalog.Index, cfg Config, opts ...Option) *Matcher {
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = DefaultStrategies()
	}
	if cfg.MaxInputRunes <= 0 {
		cfg.MaxInputRunes = DefaultMaxInputRunes
	}

	m := &Matcher{
		index:   index,
		cfg:     cfg,
		scorer:  NewScorerWithConfig(cfg.Weights, cfg.Tiers, cfg.Thresholds.Exact),
		encoder: phonetics.NewMedicalPhonetics(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.names = field{
		name:      "name",
		vocab:     index.Names(),
		key:       normalize.Canonical,
		threshold: cfg.Thresholds.Name,
	}
	m.units = field{
		name:      "unit",
		vocab:     index.Units(),
		key:       normalize.UnitKey,
		threshold: cfg.Thresholds.Unit,
		skip:      map[Method]bool{MethodPhonetic: true},
	}
	m.statuses = field{
		name:      "status",
		vocab:     index.Statuses(),
		key:       statusKey,
		threshold: cfg.Thresholds.Status,
		skip:      map[Method]bool{MethodBlend: true},
	}

	return m
}

// Config returns the configuration in use.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Scorer returns the scorer used to fuse field confidences.
func (m *Matcher) Scorer() *Scorer {
	return m.scorer
}

// MatchName resolves a raw test name to a catalog key.
func (m *Matcher) MatchName(raw string) (Result, bool) {
	return m.cascade(m.names, raw)
}

// MatchUnit resolves a raw unit to a canonical catalog unit.
func (m *Matcher) MatchUnit(raw string) (Result, bool) {
	return m.cascade(m.units, raw)
}

// MatchStatus resolves a raw status token to low, normal or high.
func (m *Matcher) MatchStatus(raw string) (Result, bool) {
	return m.cascade(m.statuses, raw)
}

// NameTooLong reports whether raw is longer, once canonicalised, than the
// matcher will search.
func (m *Matcher) NameTooLong(raw string) bool {
	return m.tooLong(m.names.key(raw))
}

func (m *Matcher) tooLong(text string) bool {
	return utf8.RuneCountInString(text) > m.cfg.MaxInputRunes
}

// MatchTest resolves all fields of one candidate. It fails when the name
// does not resolve, when the value is not finite, or when the resolved key
// has no catalog entry.
func (m *Matcher) MatchTest(name string, value float64, unit, status string) (TestMatch, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return TestMatch{}, false
	}

	nameResult, ok := m.MatchName(name)
	if !ok {
		return TestMatch{}, false
	}

	entry, ok := m.index.Catalog().Lookup(nameResult.Key)
	if !ok {
		m.logger.Warn().Str("key", nameResult.Key).Msg("resolved key missing from catalog")
		return TestMatch{}, false
	}

	tm := TestMatch{
		Key:            entry.Key,
		Value:          value,
		Name:           nameResult,
		Unit:           m.resolveUnit(entry, unit),
		StatusSupplied: strings.TrimSpace(status) != "",
	}
	if tm.StatusSupplied {
		if r, ok := m.MatchStatus(status); ok {
			tm.Status = &r
		}
	}
	tm.Overall = m.scorer.Overall(tm.Name, tm.Unit, tm.Status, tm.StatusSupplied)

	return tm, true
}

// resolveUnit applies the unit policy: a missing unit is assumed to be the
// canonical one, an unresolvable or poor unit defaults to it, and a unit
// that resolves to another catalog unit is kept as is.
func (m *Matcher) resolveUnit(entry catalog.Entry, raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{
			Key:        entry.Unit,
			Term:       entry.Unit,
			Similarity: 0.8,
			Tier:       TierAssumed,
			Method:     MethodAssumed,
		}
	}

	r, ok := m.MatchUnit(raw)
	if !ok || r.Tier == TierLow {
		return Result{
			Key:        entry.Unit,
			Term:       entry.Unit,
			Similarity: 1.0,
			Tier:       TierDefault,
			Method:     MethodDefault,
		}
	}

	if m.index.UnitAccepted(entry.Key, r.Term) {
		r.Key = entry.Unit
	}
	return r
}

func (m *Matcher) cascade(f field, raw string) (Result, bool) {
	text := f.key(raw)
	if text == "" {
		return Result{}, false
	}
	if m.tooLong(text) {
		m.logger.Debug().Str("field", f.name).Int("runes", utf8.RuneCountInString(text)).Msg("input too long")
		return Result{}, false
	}

	for _, method := range m.cfg.Strategies {
		if f.skip[method] {
			continue
		}

		var (
			r  Result
			ok bool
		)
		switch method {
		case MethodExact:
			r, ok = m.exact(f, text)
		case MethodFuzzyIndex:
			r, ok = m.fuzzy(f, text)
		case MethodPhonetic:
			r, ok = m.phonetic(f, text)
		case MethodBlend:
			r, ok = m.blend(f, text)
		}

		if ok {
			m.logger.Debug().
				Str("field", f.name).
				Str("raw", raw).
				Str("key", r.Key).
				Str("method", string(r.Method)).
				Float64("similarity", r.Similarity).
				Msg("matched")
			return r, true
		}
	}

	m.logger.Debug().Str("field", f.name).Str("raw", raw).Msg("no match")
	return Result{}, false
}

func (m *Matcher) exact(f field, text string) (Result, bool) {
	candidates := []string{text}
	if f.name == "name" {
		if stripped := normalize.StripQualifiers(text); stripped != text {
			candidates = append(candidates, stripped)
		}
	}

	for _, c := range candidates {
		if owner, ok := f.vocab.Exact(c); ok {
			return Result{Key: owner, Term: c, Similarity: 1.0, Tier: TierExact, Method: MethodExact}, true
		}
	}
	return Result{}, false
}

func (m *Matcher) fuzzy(f field, text string) (Result, bool) {
	suggestions := f.vocab.Suggest(text, m.cfg.MaxEditDistance)
	if len(suggestions) == 0 {
		return Result{}, false
	}

	best := suggestions[0]
	score := best.Similarity()
	if score < f.threshold {
		return Result{}, false
	}
	return m.result(best.Owner, best.Term, score, MethodFuzzyIndex), true
}

func (m *Matcher) phonetic(f field, text string) (Result, bool) {
	if m.encoder == nil {
		return Result{}, false
	}

	var (
		bestScore float64
		bestTerm  catalog.Term
		found     bool
	)
	for _, term := range f.vocab.Terms() {
		score := m.cfg.Blend.Phonetic*phonetics.Score(m.encoder, text, term.Text) +
			m.cfg.Blend.String*similarity.Combined(text, term.Text, m.cfg.Similarity)
		if !found || score > bestScore {
			bestScore, bestTerm, found = score, term, true
		}
	}

	if !found || bestScore < m.cfg.Thresholds.Phonetic {
		return Result{}, false
	}
	return m.result(bestTerm.Owner, bestTerm.Text, clamp(bestScore), MethodPhonetic), true
}

func (m *Matcher) blend(f field, text string) (Result, bool) {
	var (
		bestScore float64
		bestTerm  catalog.Term
		found     bool
	)
	for _, term := range f.vocab.Terms() {
		score := similarity.Combined(text, term.Text, m.cfg.Similarity)
		if !found || score > bestScore {
			bestScore, bestTerm, found = score, term, true
		}
	}

	if !found || bestScore < f.threshold {
		return Result{}, false
	}
	return m.result(bestTerm.Owner, bestTerm.Text, bestScore, MethodBlend), true
}

func (m *Matcher) result(owner, term string, score float64, method Method) Result {
	return Result{
		Key:        owner,
		Term:       term,
		Similarity: score,
		Tier:       m.scorer.Tier(score),
		Method:     method,
	}
}

// statusKey maps arrow flags to their word and canonicalises the rest.
func statusKey(raw string) string {
	if s, ok := catalog.StatusSymbol(raw); ok {
		return string(s)
	}
	return normalize.Canonical(raw)
}

func clamp(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
