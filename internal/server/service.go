package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
	"github.com/joseph-ayodele/bnpl-tracker/internal/export"
	"github.com/joseph-ayodele/bnpl-tracker/internal/repository"
)

// ErrNotConfigured is returned when a call needs a collaborator (queue,
// storage, exporter) the server was started without.
var ErrNotConfigured = errors.New("not configured on this server")

// Extractor runs one pasted batch synchronously.
type Extractor interface {
	Process(ctx context.Context, raw string, mode constants.Mode) (*entity.BatchResult, error)
}

// Submitter queues a batch for background extraction.
type Submitter interface {
	Submit(ctx context.Context, text string, mode constants.Mode) (uuid.UUID, error)
}

// Limits bound incoming requests.
type Limits struct {
	MaxInputBytes int
	DefaultMode   constants.Mode
}

// ExtractionService is the transport-neutral surface shared by the gRPC and
// HTTP servers. Queue, repo and exporter are optional; calls that need them
// fail with ErrNotConfigured.
type ExtractionService struct {
	proc     Extractor
	queue    Submitter
	repo     repository.ScheduleRepository
	exporter *export.Service
	limits   Limits
	logger   *slog.Logger
}

func NewExtractionService(proc Extractor, queue Submitter, repo repository.ScheduleRepository, exporter *export.Service, limits Limits, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if !limits.DefaultMode.Valid() {
		limits.DefaultMode = constants.ModeScored
	}
	return &ExtractionService{
		proc:     proc,
		queue:    queue,
		repo:     repo,
		exporter: exporter,
		limits:   limits,
		logger:   logger,
	}
}

// ExtractRequest is the body accepted by both transports.
type ExtractRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

// PaymentQuery is the string form of repository.PaymentFilter.
type PaymentQuery struct {
	BatchID  string
	Provider string
	From     string
	To       string
	Limit    int
}

func (s *ExtractionService) validate(req ExtractRequest) (constants.Mode, error) {
	v := common.NewValidator().
		Field("text", req.Text, common.ValidUTF8, common.MaxBytes(s.limits.MaxInputBytes))
	if req.Mode != "" {
		v.Field("mode", req.Mode, common.OneOf(constants.Modes...))
	}
	if v.HasErrors() {
		return "", common.NewAppError(common.CodeInvalidInput, v.ErrorMessage(), common.ErrInvalidInput)
	}
	if req.Mode == "" {
		return s.limits.DefaultMode, nil
	}
	return constants.Mode(req.Mode), nil
}

// Extract processes req synchronously.
func (s *ExtractionService) Extract(ctx context.Context, req ExtractRequest) (*entity.BatchResult, error) {
	mode, err := s.validate(req)
	if err != nil {
		s.logger.Warn("extract.rejected", "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, err
	}
	res, err := s.proc.Process(ctx, req.Text, mode)
	if err != nil {
		s.logger.Error("extract.failed", "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, err
	}
	s.logger.Info("extract.ok",
		"request_id", common.RequestIDFromContext(ctx),
		"mode", mode,
		"fragments", len(res.Results),
		"successes", res.Count(entity.KindSuccess),
	)
	return res, nil
}

// Submit queues req and returns the batch id to poll.
func (s *ExtractionService) Submit(ctx context.Context, req ExtractRequest) (uuid.UUID, error) {
	if s.queue == nil {
		return uuid.Nil, common.NewAppError(common.CodeInternal, "submit", ErrNotConfigured)
	}
	mode, err := s.validate(req)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := s.queue.Submit(ctx, req.Text, mode)
	if err != nil {
		s.logger.Error("submit.failed", "request_id", common.RequestIDFromContext(ctx), "error", err)
		return uuid.Nil, err
	}
	s.logger.Info("submit.ok", "request_id", common.RequestIDFromContext(ctx), "batch_id", id, "mode", mode)
	return id, nil
}

// Batch looks up a stored batch by id.
func (s *ExtractionService) Batch(ctx context.Context, id string) (*entity.BatchRecord, error) {
	if s.repo == nil {
		return nil, common.NewAppError(common.CodeInternal, "get batch", ErrNotConfigured)
	}
	v := common.NewValidator().Field("batch_id", id, common.Required, common.UUID)
	if v.HasErrors() {
		return nil, common.NewAppError(common.CodeInvalidInput, v.ErrorMessage(), common.ErrInvalidInput)
	}
	return s.repo.GetBatch(ctx, uuid.MustParse(id))
}

// Payments lists stored payments matching q.
func (s *ExtractionService) Payments(ctx context.Context, q PaymentQuery) ([]entity.StoredPayment, error) {
	if s.repo == nil {
		return nil, common.NewAppError(common.CodeInternal, "list payments", ErrNotConfigured)
	}
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, f)
}

// ExportPayments renders stored payments matching q as an XLSX workbook.
func (s *ExtractionService) ExportPayments(ctx context.Context, q PaymentQuery) ([]byte, error) {
	if s.exporter == nil {
		return nil, common.NewAppError(common.CodeInternal, "export payments", ErrNotConfigured)
	}
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportPaymentsXLSX(ctx, f)
}

func (q PaymentQuery) filter() (repository.PaymentFilter, error) {
	var (
		f repository.PaymentFilter
		v = common.NewValidator()
	)
	if q.BatchID != "" {
		if id, err := uuid.Parse(q.BatchID); err == nil {
			f.BatchID = &id
		} else {
			v.Field("batch_id", q.BatchID, common.UUID)
		}
	}
	if q.Provider != "" {
		p, ok := constants.Canonicalize(q.Provider)
		if !ok {
			v.Field("provider", q.Provider, common.OneOf(constants.AsStringSlice()...))
		}
		f.Provider = p
	}
	f.From = parseBound(v, "from", q.From)
	f.To = parseBound(v, "to", q.To)
	if q.Limit < 0 {
		v.Field("limit", q.Limit, func(name string, value interface{}) *common.ValidationError {
			return &common.ValidationError{Field: name, Value: value, Message: "must not be negative"}
		})
	}
	f.Limit = q.Limit
	if v.HasErrors() {
		return f, common.NewAppError(common.CodeInvalidInput, v.ErrorMessage(), common.ErrInvalidInput)
	}
	return f, nil
}

func parseBound(v *common.Validator, name, s string) *dates.Date {
	if s == "" {
		return nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		v.Field(name, s, func(field string, value interface{}) *common.ValidationError {
			return &common.ValidationError{Field: field, Value: value, Message: "must be a date such as 2025-01-31"}
		})
		return nil
	}
	return &d
}

// ExportExtract processes req and renders the result as an XLSX workbook.
func (s *ExtractionService) ExportExtract(ctx context.Context, req ExtractRequest) ([]byte, error) {
	if s.exporter == nil {
		return nil, common.NewAppError(common.CodeInternal, "export batch", ErrNotConfigured)
	}
	res, err := s.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportSchedulesXLSX(res)
}
