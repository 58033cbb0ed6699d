package match

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/normalize"
	"github.com/ocr-screening/internal/similarity"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	return New(catalog.NewIndex(catalog.Default(), nil), DefaultConfig())
}

func TestMatchNameExactDominance(t *testing.T) {
	m := newTestMatcher(t)

	for _, entry := range catalog.Default().Entries() {
		for _, name := range entry.Names() {
			for _, variant := range []string{name, strings.ToUpper(name), strings.ToLower(name)} {
				r, ok := m.MatchName(variant)
				require.True(t, ok, "MatchName(%q)", variant)
				assert.Equal(t, entry.Key, r.Key, "MatchName(%q)", variant)
				assert.Equal(t, TierExact, r.Tier, "MatchName(%q)", variant)
				assert.Equal(t, MethodExact, r.Method, "MatchName(%q)", variant)
				assert.Equal(t, 1.0, r.Similarity, "MatchName(%q)", variant)
			}
		}
	}
}

func TestMatchNameCascade(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name       string
		raw        string
		wantKey    string
		wantMethod Method
		wantTier   Tier
	}{
		{
			name:       "qualifier stripped",
			raw:        "Fasting Serum Creatinine",
			wantKey:    "creatinine",
			wantMethod: MethodExact,
			wantTier:   TierExact,
		},
		{
			name:       "dropped letter",
			raw:        "Heoglobin",
			wantKey:    "hemoglobin",
			wantMethod: MethodFuzzyIndex,
			wantTier:   TierHigh,
		},
		{
			name:       "transposed letters",
			raw:        "Glucsoe",
			wantKey:    "glucose",
			wantMethod: MethodFuzzyIndex,
			wantTier:   TierHigh,
		},
		{
			name:       "alias typo",
			raw:        "cholestrol",
			wantKey:    "total_cholesterol",
			wantMethod: MethodFuzzyIndex,
			wantTier:   TierHigh,
		},
		{
			name:       "sound-alike spelling",
			raw:        "fosfate",
			wantKey:    "phosphate",
			wantMethod: MethodPhonetic,
			wantTier:   TierHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := m.MatchName(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.wantKey, r.Key)
			assert.Equal(t, tt.wantMethod, r.Method)
			assert.Equal(t, tt.wantTier, r.Tier)
			assert.GreaterOrEqual(t, r.Similarity, 0.0)
			assert.LessOrEqual(t, r.Similarity, 1.0)
		})
	}
}

func TestMatchNameFuzzySimilarity(t *testing.T) {
	m := newTestMatcher(t)

	r, ok := m.MatchName("heoglobin")
	require.True(t, ok)
	assert.InDelta(t, 0.9, r.Similarity, 1e-9)
	assert.Equal(t, "hemoglobin", r.Term)
}

func TestMatchNameNoMatch(t *testing.T) {
	m := newTestMatcher(t)

	for _, raw := range []string{"", "   ", "()", "zzzz", "qqqqq"} {
		_, ok := m.MatchName(raw)
		assert.False(t, ok, "MatchName(%q) should not match", raw)
	}
}

func TestMatchNameThresholdBoundary(t *testing.T) {
	c, err := catalog.New([]catalog.Entry{{
		Key:         "hemoglobin",
		DisplayName: "Hemoglobin",
		Unit:        "g/dL",
		Reference:   catalog.Range{Low: 12, High: 15},
	}})
	require.NoError(t, err)
	index := catalog.NewIndex(c, nil)

	raw := "hemglbn"
	score := similarity.Combined(normalize.Canonical(raw), "hemoglobin", similarity.DefaultWeights())
	require.Greater(t, score, 0.0)

	cfg := DefaultConfig()
	cfg.Strategies = []Method{MethodExact, MethodBlend}

	t.Run("score at threshold matches", func(t *testing.T) {
		cfg.Thresholds.Name = score
		r, ok := New(index, cfg).MatchName(raw)
		require.True(t, ok)
		assert.Equal(t, "hemoglobin", r.Key)
		assert.Equal(t, MethodBlend, r.Method)
		assert.Equal(t, score, r.Similarity)
	})

	t.Run("score just below threshold does not match", func(t *testing.T) {
		cfg.Thresholds.Name = math.Nextafter(score, 1)
		_, ok := New(index, cfg).MatchName(raw)
		assert.False(t, ok)
	})
}

func TestMatchNameStrategySubset(t *testing.T) {
	index := catalog.NewIndex(catalog.Default(), nil)

	cfg := DefaultConfig()
	cfg.Strategies = []Method{MethodExact}
	m := New(index, cfg)

	_, ok := m.MatchName("heoglobin")
	assert.False(t, ok, "fuzzy strategies are disabled")

	r, ok := m.MatchName("Hemoglobin")
	require.True(t, ok)
	assert.Equal(t, MethodExact, r.Method)
}

func TestMatchNameWithoutEncoder(t *testing.T) {
	index := catalog.NewIndex(catalog.Default(), nil)
	m := New(index, DefaultConfig(), WithEncoder(nil))

	r, ok := m.MatchName("fosfate")
	if ok {
		assert.NotEqual(t, MethodPhonetic, r.Method)
	}
}

func TestMatchUnit(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		raw        string
		wantKey    string
		wantMethod Method
	}{
		{"g/dL", "g/dL", MethodExact},
		{"gm/dl", "g/dL", MethodExact},
		{"G / DL", "g/dL", MethodExact},
		{"mEq/L", "mmol/L", MethodExact},
		{"µIU/mL", "µIU/mL", MethodExact},
		{"mg/d1", "mg/dL", MethodFuzzyIndex},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, ok := m.MatchUnit(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.wantKey, r.Key)
			assert.Equal(t, tt.wantMethod, r.Method)
		})
	}

	for _, raw := range []string{"", "  ", "zzzz"} {
		_, ok := m.MatchUnit(raw)
		assert.False(t, ok, "MatchUnit(%q)", raw)
	}
}

func TestMatchStatus(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		raw  string
		want catalog.Status
	}{
		{"Low", catalog.StatusLow},
		{"(High)", catalog.StatusHigh},
		{"H", catalog.StatusHigh},
		{"L", catalog.StatusLow},
		{"↑", catalog.StatusHigh},
		{"(↓)", catalog.StatusLow},
		{"WNL", catalog.StatusNormal},
		{"elevatd", catalog.StatusHigh},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, ok := m.MatchStatus(tt.raw)
			require.True(t, ok)
			assert.Equal(t, string(tt.want), r.Key)
		})
	}

	for _, raw := range []string{"", "zzzz"} {
		_, ok := m.MatchStatus(raw)
		assert.False(t, ok, "MatchStatus(%q)", raw)
	}
}

func TestMatchTest(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name        string
		rawName     string
		unit        string
		status      string
		wantUnit    string
		wantTier    Tier
		wantOverall float64
		wantStatus  string
	}{
		{
			name:        "all fields exact",
			rawName:     "Hemoglobin",
			unit:        "g/dL",
			status:      "Low",
			wantUnit:    "g/dL",
			wantTier:    TierExact,
			wantOverall: 1.0,
			wantStatus:  "low",
		},
		{
			name:        "status absent renormalises",
			rawName:     "Hemoglobin",
			unit:        "g/dL",
			wantUnit:    "g/dL",
			wantTier:    TierExact,
			wantOverall: 1.0,
		},
		{
			name:        "unit absent is assumed",
			rawName:     "Hemoglobin",
			wantUnit:    "g/dL",
			wantTier:    TierAssumed,
			wantOverall: (0.6 + 0.25*0.8) / 0.85,
		},
		{
			name:        "unresolvable unit defaults",
			rawName:     "Hemoglobin",
			unit:        "zzzz",
			wantUnit:    "g/dL",
			wantTier:    TierDefault,
			wantOverall: 1.0,
		},
		{
			name:        "unit variant maps to canonical",
			rawName:     "Hb",
			unit:        "gm/dl",
			wantUnit:    "g/dL",
			wantTier:    TierExact,
			wantOverall: 1.0,
		},
		{
			name:        "foreign unit is kept",
			rawName:     "Hemoglobin",
			unit:        "mg/dL",
			wantUnit:    "mg/dL",
			wantTier:    TierExact,
			wantOverall: 1.0,
		},
		{
			name:        "unresolved status counts as zero",
			rawName:     "Hemoglobin",
			unit:        "g/dL",
			status:      "zzzz",
			wantUnit:    "g/dL",
			wantTier:    TierExact,
			wantOverall: 0.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, ok := m.MatchTest(tt.rawName, 10.2, tt.unit, tt.status)
			require.True(t, ok)
			assert.Equal(t, "hemoglobin", tm.Key)
			assert.Equal(t, tt.wantUnit, tm.Unit.Key)
			assert.Equal(t, tt.wantTier, tm.Unit.Tier)
			assert.InDelta(t, tt.wantOverall, tm.Overall, 1e-9)
			if tt.wantStatus == "" {
				assert.Nil(t, tm.Status)
			} else {
				require.NotNil(t, tm.Status)
				assert.Equal(t, tt.wantStatus, tm.Status.Key)
			}
		})
	}
}

func TestMatchTestRejects(t *testing.T) {
	m := newTestMatcher(t)

	_, ok := m.MatchTest("zzzz", 1, "g/dL", "")
	assert.False(t, ok)

	_, ok = m.MatchTest("Hemoglobin", math.NaN(), "g/dL", "")
	assert.False(t, ok)

	_, ok = m.MatchTest("Hemoglobin", math.Inf(1), "g/dL", "")
	assert.False(t, ok)

	_, ok = m.MatchTest("", 1, "", "")
	assert.False(t, ok)
}

func TestMatcherDeterministic(t *testing.T) {
	m := newTestMatcher(t)

	first, _ := m.MatchTest("Heoglobin", 10.2, "g/dl", "(Low)")
	for i := 0; i < 20; i++ {
		again, _ := m.MatchTest("Heoglobin", 10.2, "g/dl", "(Low)")
		assert.Equal(t, first, again)
	}
}

func TestMatchRejectsOverlongInput(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name  string
		match func(string) (Result, bool)
		raw   string
	}{
		{"repeated letters", m.MatchName, strings.Repeat("ab", 400)},
		{"known name with trailing noise", m.MatchName, "Hemoglobin " + strings.Repeat("x", 60)},
		{"unit", m.MatchUnit, "mg/dl" + strings.Repeat("l", 100)},
		{"status", m.MatchStatus, strings.Repeat("high", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, ok := tt.match(tt.raw)
			assert.False(t, ok)
			assert.Less(t, time.Since(start), time.Second)
		})
	}

	assert.True(t, m.NameTooLong(strings.Repeat("a", DefaultMaxInputRunes+1)))
	assert.False(t, m.NameTooLong(strings.Repeat("a", DefaultMaxInputRunes)))
}

func TestMatchInputBoundIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInputRunes = 5
	m := New(catalog.NewIndex(catalog.Default(), nil), cfg)

	_, ok := m.MatchName("Hemoglobin")
	assert.False(t, ok)

	_, ok = m.MatchName("Hb")
	assert.True(t, ok)
}
