package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/clock"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/batch"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/confidence"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/extract"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/provider"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/sanitize"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
)

const defaultPreviewLength = 120

// Processor coordinates split, classify, extract, score and aggregate for one
// pasted batch of reminder emails. It holds no per-call state and is safe for
// concurrent use.
type Processor struct {
	logger     *slog.Logger
	clock      clock.Clock
	location   *time.Location
	workers    int
	previewLen int
}

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers bounds how many fragments are processed in parallel.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithClock sets the clock used to decide which payments are still remaining.
func WithClock(c clock.Clock) Option {
	return func(p *Processor) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(p *Processor) { p.location = loc }
}

// WithPreviewLength sets the rune limit for sanitized fragment previews.
func WithPreviewLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.previewLen = n
		}
	}
}

func NewProcessor(logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:     logger,
		clock:      clock.NewReal(),
		workers:    runtime.GOMAXPROCS(0),
		previewLen: defaultPreviewLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the whole batch. Per-fragment problems are reported as result
// values; the only error returned is common.ErrInvalidInput for a mode outside
// the allowed set or text that is not valid UTF-8.
func (p *Processor) Process(ctx context.Context, raw string, mode constants.Mode) (*entity.BatchResult, error) {
	if !mode.Valid() {
		return nil, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("mode must be one of %s", strings.Join(constants.Modes, ", ")), common.ErrInvalidInput)
	}
	if !utf8.ValidString(raw) {
		return nil, common.NewAppError(common.CodeInvalidInput, "input is not valid UTF-8 text", common.ErrInvalidInput)
	}

	fragments := batch.Split(raw)
	results := make([]entity.ExtractionResult, len(fragments))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, frag := range fragments {
		g.Go(func() error {
			results[i] = p.ProcessFragment(ctx, i, frag, mode)
			return nil
		})
	}
	_ = g.Wait()

	out := &entity.BatchResult{
		Mode:                mode,
		Results:             results,
		SchedulesByProvider: BuildSchedules(results, clock.Today(p.clock, p.location)),
	}
	p.logger.InfoContext(ctx, "processor.batch.done",
		"mode", mode,
		"fragments", len(fragments),
		"success", out.Count(entity.KindSuccess),
		"unrecognized", out.Count(entity.KindUnrecognizedProvider),
		"failed", out.Count(entity.KindExtractionFailure),
		"providers", len(out.SchedulesByProvider),
	)
	return out, nil
}

// ProcessFragment handles one already-split fragment. It never panics out to
// the caller: an unexpected panic becomes an extraction failure for this
// fragment only.
func (p *Processor) ProcessFragment(ctx context.Context, index int, fragment string, mode constants.Mode) (res entity.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			msg := sanitize.Redact(fmt.Sprint(r))
			p.logger.ErrorContext(ctx, "processor.fragment.panic", "index", index, "err", msg)
			res = entity.NewFailure(index, "", nil, "internal error while extracting fragment")
		}
	}()

	cls := provider.Classify(fragment)
	if !cls.Recognized() {
		preview := sanitize.Preview(fragment, p.previewLen)
		p.logger.InfoContext(ctx, "processor.fragment.unrecognized",
			"index", index,
			"candidates", len(cls.Candidates),
			"ambiguous", cls.Ambiguous(),
			"preview", preview,
		)
		return entity.NewUnrecognized(index, preview, cls.Candidates)
	}

	prov := cls.Provider
	raw, err := extract.Extract(prov, fragment)
	if err != nil {
		msg := sanitize.Redact(err.Error())
		p.logger.WarnContext(ctx, "processor.fragment.extract_failed", "index", index, "provider", prov, "err", msg)
		return entity.NewFailure(index, prov, nil, msg)
	}
	fields := extract.Normalize(raw)
	expected := extract.Expected(prov)
	payment := toPayment(prov, fields)

	switch mode {
	case constants.ModeLegacy:
		if missing := missingRequired(fields); len(missing) > 0 {
			return p.fail(ctx, index, prov, fragment, missingOf(fields, expected),
				fmt.Sprintf("%s reminder is missing required fields: %s", prov, labels(missing)))
		}
		p.logger.DebugContext(ctx, "processor.fragment.extracted", "index", index, "provider", prov, "mode", mode)
		return entity.NewSuccess(index, payment, nil, nil)

	default:
		if fields.Empty() {
			return p.fail(ctx, index, prov, fragment, missingOf(fields, expected),
				fmt.Sprintf("no payment fields could be extracted from %s reminder", prov))
		}
		report := confidence.Score(fields, expected, fields.Problems)
		p.logger.DebugContext(ctx, "processor.fragment.scored",
			"index", index,
			"provider", prov,
			"confidence", report.Score,
			"warnings", len(report.Warnings),
		)
		score := report.Score
		return entity.NewSuccess(index, payment, &score, report.Warnings)
	}
}

func (p *Processor) fail(ctx context.Context, index int, prov constants.Provider, fragment string, missing []constants.Field, message string) entity.ExtractionResult {
	message = sanitize.Redact(message)
	p.logger.WarnContext(ctx, "processor.fragment.extraction_failed",
		"index", index,
		"provider", prov,
		"missing", fieldNames(missing),
		"reason", message,
		"preview", sanitize.Preview(fragment, p.previewLen),
	)
	return entity.NewFailure(index, prov, missing, message)
}

func toPayment(prov constants.Provider, f extract.Fields) entity.ExtractedPayment {
	pay := entity.ExtractedPayment{
		Provider:         prov,
		DueDate:          f.DueDate,
		InstallmentIndex: f.InstallmentIndex,
		InstallmentTotal: f.InstallmentTotal,
		AutopayEnabled:   f.Autopay,
		Description:      entity.Describe(prov, f.InstallmentIndex, f.InstallmentTotal),
	}
	if f.Amount != nil {
		m := entity.NewMoney(*f.Amount)
		pay.Amount = &m
	}
	return pay
}

func missingRequired(f extract.Fields) []constants.Field {
	var out []constants.Field
	for _, field := range constants.LegacyRequiredFields {
		if !f.Has(field) {
			out = append(out, field)
		}
	}
	return out
}

// missingOf lists expected fields that were not extracted, in canonical order.
func missingOf(f extract.Fields, expected []constants.Field) []constants.Field {
	want := make(map[constants.Field]bool, len(expected))
	for _, field := range expected {
		want[field] = true
	}
	out := []constants.Field{}
	for _, field := range constants.AllFields {
		if want[field] && !f.Has(field) {
			out = append(out, field)
		}
	}
	return out
}

func labels(fields []constants.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Label()
	}
	return strings.Join(parts, ", ")
}

func fieldNames(fields []constants.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
