package extraction

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/callscribe/internal/transcript"
)

const instrumentationName = "github.com/fyrsmithlabs/callscribe/internal/extraction"

// Config configures an Engine.
type Config struct {
	// Strategies replaces the built-in table when non-empty.
	Strategies []Strategy

	// DisableFallback skips the generic fallback for categorized questions
	// that found nothing.
	DisableFallback bool

	Logger *zap.Logger
}

// Engine maps transcripts and questions to answers. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	strategies      map[Category]*compiledStrategy
	disableFallback bool
	logger          *zap.Logger
	tracer          trace.Tracer
}

// NewEngine compiles the strategy table.
func NewEngine(cfg Config) (*Engine, error) {
	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	compiled := make(map[Category]*compiledStrategy, len(strategies))
	for _, s := range strategies {
		if _, dup := compiled[s.Category]; dup {
			return nil, fmt.Errorf("duplicate strategy for category %s", s.Category)
		}
		cs, err := compileStrategy(s)
		if err != nil {
			return nil, err
		}
		compiled[s.Category] = cs
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		strategies:      compiled,
		disableFallback: cfg.DisableFallback,
		logger:          logger,
		tracer:          otel.Tracer(instrumentationName),
	}, nil
}

var defaultEngine = mustEngine()

func mustEngine() *Engine {
	e, err := NewEngine(Config{})
	if err != nil {
		panic(err)
	}
	return e
}

// Extract runs the default engine over raw, which may be a transcript.Raw or
// any decoded JSON value.
func Extract(raw any, questions []string) ResultMap {
	return defaultEngine.Extract(context.Background(), transcript.FromValue(raw), questions)
}

// Extract normalizes raw and assembles one answer per question.
func (e *Engine) Extract(ctx context.Context, raw transcript.Raw, questions []string) ResultMap {
	ctx, span := e.tracer.Start(ctx, "extraction.extract")
	defer span.End()

	text := raw.Normalize()
	span.SetAttributes(
		attribute.String("transcript.kind", raw.Kind.String()),
		attribute.Int("transcript.length", len(text)),
		attribute.Int("questions", len(questions)),
	)
	e.logger.Debug("extracting answers",
		zap.String("transcript_kind", raw.Kind.String()),
		zap.Int("transcript_length", len(text)),
		zap.Int("questions", len(questions)))

	return e.Assemble(ctx, questions, text)
}

// Assemble classifies and answers each question against already normalized
// text. The result has exactly len(questions) entries in input order.
func (e *Engine) Assemble(ctx context.Context, questions []string, text string) ResultMap {
	start := time.Now()
	defer func() { ExtractDuration.Observe(time.Since(start).Seconds()) }()

	t := NewText(text)
	results := NewResultMap(len(questions))
	for i, q := range questions {
		results.add(q, e.answer(ctx, i, q, t))
	}
	return results
}

// Answer extracts the answer to a single question.
func (e *Engine) Answer(ctx context.Context, question, text string) string {
	return e.answer(ctx, 0, question, NewText(text))
}

func (e *Engine) answer(ctx context.Context, index int, question string, t Text) (answer string) {
	category := Classify(question)
	outcome := outcomeUnanswered

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("answer extraction panicked",
				zap.Int("question_index", index),
				zap.Stringer("category", category),
				zap.Any("panic", r))
			answer = ProcessingError
			outcome = outcomeError
		}
		AnswersTotal.WithLabelValues(category.String(), outcome).Inc()
	}()

	answer = NotAnswered
	if s, ok := e.strategies[category]; ok {
		if a, probeName, ok := s.run(t); ok {
			e.logger.Debug("probe matched",
				zap.Int("question_index", index),
				zap.Stringer("category", category),
				zap.String("probe", probeName))
			answer = a
			outcome = outcomeMatched
		}
	}

	if answer != NotAnswered || (e.disableFallback && category != GenericCategory) {
		return answer
	}

	a, ok, err := genericAnswer(question, t)
	if err != nil {
		e.logger.Warn("fallback extraction failed",
			zap.Int("question_index", index),
			zap.Error(err))
		outcome = outcomeError
		return ProcessingError
	}
	if ok {
		outcome = outcomeFallback
		return a
	}
	return NotAnswered
}
