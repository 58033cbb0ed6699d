// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"

	"github.com/ocr-screening/internal/match"
	"github.com/ocr-screening/internal/ocr"
	"github.com/ocr-screening/internal/screening"
	"github.com/ocr-screening/internal/similarity"
	"github.com/ocr-screening/internal/symspell"
	"github.com/ocr-screening/internal/validation"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	ServerHost string `mapstructure:"SERVER_HOST"`
	ServerPort int    `mapstructure:"SERVER_PORT"`

	CatalogFile        string `mapstructure:"CATALOG_FILE"`
	CatalogDatabaseURL string `mapstructure:"CATALOG_DATABASE_URL"`
	DBMaxConns         int    `mapstructure:"DB_MAX_CONNS"`
	DBMaxIdle          int    `mapstructure:"DB_MAX_IDLE"`

	OCRURL     string        `mapstructure:"OCR_URL"`
	OCRTimeout time.Duration `mapstructure:"OCR_TIMEOUT"`
	OCRRetries int           `mapstructure:"OCR_RETRIES"`
	OCRBackoff time.Duration `mapstructure:"OCR_BACKOFF"`

	NameThreshold     float64 `mapstructure:"MATCH_NAME_THRESHOLD"`
	UnitThreshold     float64 `mapstructure:"MATCH_UNIT_THRESHOLD"`
	StatusThreshold   float64 `mapstructure:"MATCH_STATUS_THRESHOLD"`
	ExactThreshold    float64 `mapstructure:"MATCH_EXACT_THRESHOLD"`
	PhoneticThreshold float64 `mapstructure:"MATCH_PHONETIC_THRESHOLD"`

	NameWeight   float64 `mapstructure:"MATCH_WEIGHT_NAME"`
	UnitWeight   float64 `mapstructure:"MATCH_WEIGHT_UNIT"`
	StatusWeight float64 `mapstructure:"MATCH_WEIGHT_STATUS"`

	EditWeight      float64 `mapstructure:"SIMILARITY_WEIGHT_EDIT"`
	JaroWeight      float64 `mapstructure:"SIMILARITY_WEIGHT_JARO"`
	SubstringWeight float64 `mapstructure:"SIMILARITY_WEIGHT_SUBSTRING"`
	NGramWeight     float64 `mapstructure:"SIMILARITY_WEIGHT_NGRAM"`

	MaxEditDistance int `mapstructure:"SYMSPELL_MAX_EDIT_DISTANCE"`
	MaxInputRunes   int `mapstructure:"MATCH_MAX_INPUT_RUNES"`

	TraceSimilarity float64 `mapstructure:"GUARDRAIL_TRACE_SIMILARITY"`
}

// Load reads .env (if present) and the environment over the defaults.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.AutomaticEnv()

	setDefaults(v)

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv picks it up on Unmarshal.
func setDefaults(v *viper.Viper) {
	m := match.DefaultConfig()
	g := validation.DefaultConfig()
	o := ocr.DefaultConfig()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("CATALOG_FILE", "")
	v.SetDefault("CATALOG_DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE", 10)

	v.SetDefault("OCR_URL", o.URL)
	v.SetDefault("OCR_TIMEOUT", o.Timeout)
	v.SetDefault("OCR_RETRIES", o.Retries)
	v.SetDefault("OCR_BACKOFF", o.Backoff)

	v.SetDefault("MATCH_NAME_THRESHOLD", m.Thresholds.Name)
	v.SetDefault("MATCH_UNIT_THRESHOLD", m.Thresholds.Unit)
	v.SetDefault("MATCH_STATUS_THRESHOLD", m.Thresholds.Status)
	v.SetDefault("MATCH_EXACT_THRESHOLD", m.Thresholds.Exact)
	v.SetDefault("MATCH_PHONETIC_THRESHOLD", m.Thresholds.Phonetic)

	v.SetDefault("MATCH_WEIGHT_NAME", m.Weights.Name)
	v.SetDefault("MATCH_WEIGHT_UNIT", m.Weights.Unit)
	v.SetDefault("MATCH_WEIGHT_STATUS", m.Weights.Status)

	v.SetDefault("SIMILARITY_WEIGHT_EDIT", m.Similarity.Edit)
	v.SetDefault("SIMILARITY_WEIGHT_JARO", m.Similarity.Jaro)
	v.SetDefault("SIMILARITY_WEIGHT_SUBSTRING", m.Similarity.Substring)
	v.SetDefault("SIMILARITY_WEIGHT_NGRAM", m.Similarity.NGram)

	v.SetDefault("SYMSPELL_MAX_EDIT_DISTANCE", m.MaxEditDistance)
	v.SetDefault("MATCH_MAX_INPUT_RUNES", m.MaxInputRunes)
	v.SetDefault("GUARDRAIL_TRACE_SIMILARITY", g.TraceSimilarity)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d out of range", c.ServerPort))
	}
	if c.OCRRetries < 0 {
		errs = append(errs, fmt.Errorf("OCR_RETRIES must not be negative"))
	}
	if c.MaxEditDistance < 0 {
		errs = append(errs, fmt.Errorf("SYMSPELL_MAX_EDIT_DISTANCE must not be negative"))
	}
	if c.MaxInputRunes <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_MAX_INPUT_RUNES must be positive"))
	}

	thresholds := map[string]float64{
		"MATCH_NAME_THRESHOLD":       c.NameThreshold,
		"MATCH_UNIT_THRESHOLD":       c.UnitThreshold,
		"MATCH_STATUS_THRESHOLD":     c.StatusThreshold,
		"MATCH_EXACT_THRESHOLD":      c.ExactThreshold,
		"MATCH_PHONETIC_THRESHOLD":   c.PhoneticThreshold,
		"GUARDRAIL_TRACE_SIMILARITY": c.TraceSimilarity,
	}
	for _, key := range sortedKeys(thresholds) {
		if v := thresholds[key]; v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s %g outside [0,1]", key, v))
		}
	}

	if err := checkWeights("MATCH_WEIGHT", c.NameWeight, c.UnitWeight, c.StatusWeight); err != nil {
		errs = append(errs, err)
	}
	if err := checkWeights("SIMILARITY_WEIGHT", c.EditWeight, c.JaroWeight, c.SubstringWeight, c.NGramWeight); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func checkWeights(prefix string, weights ...float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s_* must not be negative", prefix)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("%s_* must not all be zero", prefix)
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MatchConfig projects the settings onto the matcher defaults.
func (c *Config) MatchConfig() match.Config {
	m := match.DefaultConfig()
	m.Thresholds.Name = c.NameThreshold
	m.Thresholds.Unit = c.UnitThreshold
	m.Thresholds.Status = c.StatusThreshold
	m.Thresholds.Exact = c.ExactThreshold
	m.Thresholds.Phonetic = c.PhoneticThreshold
	m.Weights = match.FieldWeights{Name: c.NameWeight, Unit: c.UnitWeight, Status: c.StatusWeight}
	m.Similarity = c.similarityWeights()
	m.MaxEditDistance = c.MaxEditDistance
	m.MaxInputRunes = c.MaxInputRunes
	return m
}

// GuardrailConfig projects the settings onto the guardrail defaults.
func (c *Config) GuardrailConfig() validation.Config {
	g := validation.DefaultConfig()
	g.TraceSimilarity = c.TraceSimilarity
	g.Similarity = c.similarityWeights()
	return g
}

// ScreeningConfig combines MatchConfig and GuardrailConfig.
func (c *Config) ScreeningConfig() screening.Config {
	return screening.Config{
		Match:     c.MatchConfig(),
		Guardrail: c.GuardrailConfig(),
	}
}

// SymSpellConfig is the fuzzy index configuration for the catalog.
func (c *Config) SymSpellConfig() *symspell.Config {
	s := symspell.DefaultConfig()
	s.MaxEditDistance = c.MaxEditDistance
	return s
}

// OCRConfig is the OCR client configuration.
func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		URL:     c.OCRURL,
		Timeout: c.OCRTimeout,
		Retries: c.OCRRetries,
		Backoff: c.OCRBackoff,
	}
}

func (c *Config) similarityWeights() similarity.Weights {
	return similarity.Weights{
		Edit:      c.EditWeight,
		Jaro:      c.JaroWeight,
		Substring: c.SubstringWeight,
		NGram:     c.NGramWeight,
	}
}
