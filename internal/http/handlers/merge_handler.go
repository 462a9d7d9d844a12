// Mail-merge HTTP handlers.
//
// This file exposes the generation endpoints:
//   - POST /preflight   (read-only eligibility scan of the mapped sheet range)
//   - GET  /mapping     (canonical mapping version for a mapping payload)
//   - POST /generate    (render documents and enqueue one send per row)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results and sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tventures02/loi-automater/internal/contentkey"
	"github.com/tventures02/loi-automater/internal/http/middleware"
	"github.com/tventures02/loi-automater/internal/services"
	"github.com/tventures02/loi-automater/internal/tabular"
	"github.com/tventures02/loi-automater/internal/utils"
)

//
// Service contracts (context-aware)
//

// PreflightService evaluates a mapping against the source sheet without
// writing anything.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PreflightService interface {
	Preflight(ctx context.Context, req services.PreflightRequest) (services.PreflightResult, error)
}

// GenerateService renders one document per eligible row and appends the
// resulting items to the send queue.
type GenerateService interface {
	Generate(ctx context.Context, req services.GenerateRequest) (services.GenerationSummary, error)
}

// SendService drains queued items under the caller's credit budget.
type SendService interface {
	Send(ctx context.Context, userID string, req services.SendRequest) (services.SendSummary, error)
}

// CreditService reports the caller's remaining daily budget.
type CreditService interface {
	Snapshot(ctx context.Context, userID string, isPremium bool, freeDailyCap int) (services.CreditState, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for preflight, generation, the send queue,
// credits, and templates. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	preSvc  PreflightService
	genSvc  GenerateService
	sendSvc SendService
	credSvc CreditService

	// db backs the queue and template endpoints, which are thin enough to
	// call the repository directly.
	db *gorm.DB

	// freeDailyCap is the configured free-plan budget applied to every
	// request; clients never choose their own cap.
	freeDailyCap int
}

// New constructs and returns a Handlers instance bound to the given services.
func New(pre PreflightService, gen GenerateService, send SendService, cred CreditService, db *gorm.DB, freeDailyCap int) *Handlers {
	return &Handlers{preSvc: pre, genSvc: gen, sendSvc: send, credSvc: cred, db: db, freeDailyCap: freeDailyCap}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// isPremium reads the plan flag from the query string. The plan is asserted
// by the caller's session today; the budget math treats it as advisory.
func isPremium(c *gin.Context) bool {
	switch strings.ToLower(c.Query("premium")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// MappingVersionRequest is the JSON payload for computing a mapping version.
type MappingVersionRequest struct {
	Mapping map[string]string `json:"mapping" binding:"required"`
}

// MappingVersionResponse carries the canonical version tag for a mapping.
type MappingVersionResponse struct {
	MappingVersion string `json:"mapping_version" example:"m_Zm9vYmFyYW"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// Preflight godoc
// @ID          preflight
// @Summary     Check a mapping before generation
// @Description Scans the mapped sheet range read-only and reports row eligibility counts plus a sample output name.
// @Tags        Merge
// @Accept      json
// @Produce     json
//
// @Param       body  body  services.PreflightRequest  true  "Sheet, mapping, and name pattern"
//
// @Success     200  {object}  services.PreflightResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Sheet not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /preflight [post]
func (h *Handlers) Preflight(c *gin.Context) {
	var req services.PreflightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.preSvc.Preflight(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, tabular.ErrSheetNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "sheet not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodePreflightFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// MappingVersion godoc
// @ID          mappingVersion
// @Summary     Compute the canonical mapping version
// @Description Returns the order- and case-insensitive version tag used in dedup keys for the given mapping.
// @Tags        Merge
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.MappingVersionRequest  true  "Mapping payload"
//
// @Success     200  {object}  handlers.MappingVersionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /mapping [post]
func (h *Handlers) MappingVersion(c *gin.Context) {
	var req MappingVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Mapping) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mapping required")
		return
	}
	ok(c, http.StatusOK, MappingVersionResponse{MappingVersion: contentkey.MappingVersion(req.Mapping)})
}

// Generate godoc
// @ID          generate
// @Summary     Render documents and enqueue sends
// @Description Renders one document per eligible row, skips duplicates and invalid emails, and appends queue items. Per-row failures are reported, not fatal.
// @Tags        Merge
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    services.GenerateRequest  true  "Sheet, mapping, pattern, and template"
//
// @Success     200  {object}  services.GenerationSummary
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Sheet not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sum, err := h.genSvc.Generate(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoTemplate):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template_doc_id required")
		case errors.Is(err, services.ErrNoEmailColumn):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email column required (email_column or __email mapping entry)")
		case errors.Is(err, tabular.ErrSheetNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "sheet not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		}
		return
	}
	middleware.AddDocumentsGenerated(sum.Created)
	ok(c, http.StatusOK, sum)
}
