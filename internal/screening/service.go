// Package screening wires extraction, matching, normalisation and the
// guardrail into a single request-scoped pipeline.
package screening

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/extract"
	"github.com/ocr-screening/internal/labresult"
	"github.com/ocr-screening/internal/logging"
	"github.com/ocr-screening/internal/match"
	"github.com/ocr-screening/internal/ocr"
	"github.com/ocr-screening/internal/validation"
)

// Outcome is what a caller should do with a Result.
type Outcome string

const (
	OutcomeResults      Outcome = "results"
	OutcomeNoTestsFound Outcome = "no_tests_found"
	OutcomeUnprocessed  Outcome = "unprocessed"
)

// UnprocessedMessage is shown instead of results when the guardrail
// rejects a batch.
const UnprocessedMessage = "could not process, no results returned"

// ErrNoOCR is returned by ScreenImage when no OCR client is configured.
var ErrNoOCR = errors.New("no ocr service configured")

// TextReader turns an image into text.
type TextReader interface {
	Extract(ctx context.Context, filename string, image io.Reader) (string, error)
}

// Result is the outcome of screening one text.
type Result struct {
	ID                uuid.UUID          `json:"id"`
	Outcome           Outcome            `json:"outcome"`
	Message           string             `json:"message,omitempty"`
	Summary           string             `json:"summary"`
	Verdict           validation.Verdict `json:"verdict"`
	Dropped           []labresult.Drop   `json:"dropped,omitempty"`
	AverageConfidence float64            `json:"average_confidence"`
}

// Records returns the records the caller may show. It is empty unless the
// outcome is OutcomeResults.
func (r Result) Records() []labresult.Record {
	if r.Outcome != OutcomeResults {
		return []labresult.Record{}
	}
	return r.Verdict.Records
}

// Config groups the component configurations.
type Config struct {
	Match     match.Config      `mapstructure:"match" yaml:"match"`
	Guardrail validation.Config `mapstructure:"guardrail" yaml:"guardrail"`
}

// DefaultConfig returns the default component configurations.
func DefaultConfig() Config {
	return Config{
		Match:     match.DefaultConfig(),
		Guardrail: validation.DefaultConfig(),
	}
}

// Service screens report text. It is safe for concurrent use; the only
// shared state is the immutable catalog index.
type Service struct {
	index      *catalog.Index
	extractor  *extract.Extractor
	matcher    *match.Matcher
	normalizer *labresult.Normalizer
	guardrail  *validation.Guardrail
	ocr        TextReader
	logger     zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger passed to every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithOCR enables ScreenImage.
func WithOCR(r TextReader) Option {
	return func(s *Service) {
		s.ocr = r
	}
}

// New builds the pipeline over index.
func New(index *catalog.Index, cfg Config, opts ...Option) *Service {
	s := &Service{
		index:  index,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.extractor = extract.New(extract.WithLogger(s.logger))
	s.matcher = match.New(index, cfg.Match, match.WithLogger(s.logger))
	s.normalizer = labresult.NewNormalizer(s.matcher, index.Catalog(), labresult.WithLogger(s.logger))
	s.guardrail = validation.NewGuardrail(index, cfg.Guardrail, validation.WithLogger(s.logger))
	return s
}

// Catalog returns the catalog the service screens against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.index.Catalog()
}

// Matcher returns the matcher used by the pipeline.
func (s *Service) Matcher() *match.Matcher {
	return s.matcher
}

// Screen extracts candidates from text and screens them.
func (s *Service) Screen(text string) Result {
	return s.ScreenCandidates(text, s.extractor.Extract(text))
}

// ScreenCandidates screens candidates produced elsewhere. text must be the
// source they were extracted from; every record is traced back to it.
func (s *Service) ScreenCandidates(text string, candidates []labresult.RawCandidate) Result {
	id := uuid.New()
	logger := s.logger.With().Str("screening_id", id.String()).Logger()
	defer logging.Timing(logger, "screen")()

	batch := s.normalizer.NormalizeBatch(candidates)
	verdict := s.guardrail.Validate(batch.Records, text)

	res := Result{
		ID:                id,
		Verdict:           verdict,
		Dropped:           batch.Dropped,
		AverageConfidence: batch.AverageConfidence,
	}

	switch {
	case verdict.Status == validation.StatusUnprocessed:
		res.Outcome = OutcomeUnprocessed
		res.Message = UnprocessedMessage
		res.Summary = UnprocessedMessage
	case len(verdict.Records) == 0:
		res.Outcome = OutcomeNoTestsFound
		res.Summary = "no tests found"
	default:
		res.Outcome = OutcomeResults
		res.Summary = Summarize(verdict.Records)
	}

	logger.Info().
		Str("outcome", string(res.Outcome)).
		Str("status", string(verdict.Status)).
		Int("candidates", len(candidates)).
		Int("records", len(verdict.Records)).
		Float64("confidence", verdict.Confidence).
		Msg("screening complete")

	return res
}

// ScreenImage reads text from an image through the OCR service and screens
// it. An image without text yields OutcomeNoTestsFound, not an error.
func (s *Service) ScreenImage(ctx context.Context, filename string, image io.Reader) (Result, error) {
	if s.ocr == nil {
		return Result{}, ErrNoOCR
	}

	text, err := s.ocr.Extract(ctx, filename, image)
	if errors.Is(err, ocr.ErrNoText) {
		return s.Screen(""), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return s.Screen(text), nil
}

// Summarize describes records by status, e.g. "3 tests: 1 low, 2 normal".
func Summarize(records []labresult.Record) string {
	if len(records) == 0 {
		return "no tests found"
	}

	counts := make(map[catalog.Status]int)
	critical := 0
	for _, r := range records {
		counts[r.Status]++
		if r.Critical {
			critical++
		}
	}

	var parts []string
	for _, status := range []catalog.Status{catalog.StatusLow, catalog.StatusNormal, catalog.StatusHigh} {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}

	noun := "tests"
	if len(records) == 1 {
		noun = "test"
	}
	summary := fmt.Sprintf("%d %s: %s", len(records), noun, strings.Join(parts, ", "))
	if critical > 0 {
		summary += fmt.Sprintf(" (%d critical)", critical)
	}
	return summary
}
