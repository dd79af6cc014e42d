package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/schema"
)

const (
	requestIDHeader = "x-request-id"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Pinger reports whether backing storage is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer exposes ExtractionService as JSON over HTTP.
type HTTPServer struct {
	svc     *ExtractionService
	db      Pinger
	maxBody int64
	logger  *slog.Logger
}

// NewHTTPServer builds the handler. db may be nil, in which case /healthz
// only reports the process as up.
func NewHTTPServer(svc *ExtractionService, db Pinger, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	var maxBody int64
	if n := svc.limits.MaxInputBytes; n > 0 {
		// JSON escaping can double the text; leave room for the envelope
		maxBody = int64(n)*2 + 4096
	}
	return &HTTPServer{svc: svc, db: db, maxBody: maxBody, logger: logger}
}

// Handler returns the gin engine with all routes mounted.
func (h *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(h.requestID(), h.accessLog(), gin.CustomRecovery(h.recovered))

	r.GET("/healthz", h.health)

	v1 := r.Group("/v1")
	v1.GET("/schema", h.schema)
	v1.POST("/extract", h.extract)
	v1.POST("/extract/export", h.extractExport)
	v1.POST("/batches", h.submit)
	v1.GET("/batches/:id", h.batch)
	v1.GET("/payments", h.payments)
	v1.GET("/payments/export", h.paymentsExport)
	return r
}

func (h *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (h *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("http.request",
			"request_id", common.RequestIDFromContext(c.Request.Context()),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (h *HTTPServer) recovered(c *gin.Context, rec any) {
	h.logger.Error("http.panic", "request_id", common.RequestIDFromContext(c.Request.Context()), "panic", rec)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": common.CodeInternal, "error": "internal error"})
}

func (h *HTTPServer) fail(c *gin.Context, err error) {
	code := common.HTTPStatus(err)
	body := gin.H{"code": common.CodeInternal, "error": "internal error"}
	var appErr *common.AppError
	if errors.As(err, &appErr) && code < http.StatusInternalServerError {
		body = gin.H{"code": appErr.Code, "error": appErr.Message}
	} else if code == http.StatusNotFound {
		body = gin.H{"code": common.CodeNotFound, "error": err.Error()}
	}
	if code >= http.StatusInternalServerError {
		h.logger.Error("http.request.failed", "request_id", common.RequestIDFromContext(c.Request.Context()), "error", err)
	}
	c.AbortWithStatusJSON(code, body)
}

func (h *HTTPServer) bind(c *gin.Context) (ExtractRequest, bool) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.NewAppError(common.CodeInvalidInput, "request body must be JSON {text, mode}", common.ErrInvalidInput))
		return req, false
	}
	return req, true
}

func (h *HTTPServer) health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("http.health.db_unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPServer) schema(c *gin.Context) {
	c.JSON(http.StatusOK, schema.BuildBatchResultJSONSchema())
}

func (h *HTTPServer) extract(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.svc.Extract(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *HTTPServer) extractExport(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	data, err := h.svc.ExportExtract(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bnpl-schedule.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *HTTPServer) submit(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	id, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"batch_id": id.String()})
}

func (h *HTTPServer) batch(c *gin.Context) {
	rec, err := h.svc.Batch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *HTTPServer) paymentQuery(c *gin.Context) (PaymentQuery, bool) {
	q := PaymentQuery{
		BatchID:  c.Query("batch_id"),
		Provider: c.Query("provider"),
		From:     c.Query("from"),
		To:       c.Query("to"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, common.NewAppError(common.CodeInvalidInput, "limit must be an integer", common.ErrInvalidInput))
			return q, false
		}
		q.Limit = n
	}
	return q, true
}

func (h *HTTPServer) payments(c *gin.Context) {
	q, ok := h.paymentQuery(c)
	if !ok {
		return
	}
	payments, err := h.svc.Payments(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *HTTPServer) paymentsExport(c *gin.Context) {
	q, ok := h.paymentQuery(c)
	if !ok {
		return
	}
	data, err := h.svc.ExportPayments(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bnpl-payments.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
