package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocr-screening/internal/match"
	"github.com/ocr-screening/internal/validation"
)

func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 30*time.Second, cfg.OCRTimeout)

	assert.Equal(t, match.DefaultConfig(), cfg.MatchConfig())
	assert.Equal(t, validation.DefaultConfig(), cfg.GuardrailConfig())
	assert.Equal(t, 2, cfg.SymSpellConfig().MaxEditDistance)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("MATCH_NAME_THRESHOLD", "0.65")
	t.Setenv("SIMILARITY_WEIGHT_EDIT", "0.5")
	t.Setenv("GUARDRAIL_TRACE_SIMILARITY", "0.8")

	cfg, err := load(missingEnvFile(t))
	require.NoError(t, err)

	assert.False(t, cfg.IsDev())
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.OCRConfig().Timeout)
	assert.Equal(t, 0.65, cfg.MatchConfig().Thresholds.Name)
	assert.Equal(t, 0.5, cfg.MatchConfig().Similarity.Edit)
	assert.Equal(t, 0.5, cfg.GuardrailConfig().Similarity.Edit)
	assert.Equal(t, 0.8, cfg.GuardrailConfig().TraceSimilarity)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CATALOG_FILE=/etc/catalog.yaml\nOCR_RETRIES=4\n"), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/catalog.yaml", cfg.CatalogFile)
	assert.Equal(t, 4, cfg.OCRRetries)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"threshold above one", "MATCH_UNIT_THRESHOLD", "1.5", "MATCH_UNIT_THRESHOLD"},
		{"negative weight", "MATCH_WEIGHT_STATUS", "-0.1", "MATCH_WEIGHT_* must not be negative"},
		{"bad port", "SERVER_PORT", "0", "SERVER_PORT"},
		{"negative retries", "OCR_RETRIES", "-1", "OCR_RETRIES"},
		{"zero input bound", "MATCH_MAX_INPUT_RUNES", "0", "MATCH_MAX_INPUT_RUNES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := load(missingEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateZeroWeights(t *testing.T) {
	cfg, err := load(missingEnvFile(t))
	require.NoError(t, err)

	cfg.EditWeight, cfg.JaroWeight, cfg.SubstringWeight, cfg.NGramWeight = 0, 0, 0, 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIMILARITY_WEIGHT")
}
