// Send-queue HTTP handlers.
//
// This file exposes REST endpoints for the durable send queue:
//   - GET  /queue            (list items, paginated, ETag support)
//   - GET  /queue/status     (existence, columns, per-status counts)
//   - POST /queue/ensure     (create the queue or append missing columns)
//   - POST /queue/requeue    (move failed items back to queued)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tventures02/loi-automater/internal/domain"
	"github.com/tventures02/loi-automater/internal/repo"
)

//
// DTOs
//

// ListQueueResponse wraps a page of queue items and pagination information.
type ListQueueResponse struct {
	Items      []domain.QueueItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

// EnsureQueueResponse reports the queue contract after an ensure call.
type EnsureQueueResponse struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Created bool     `json:"created"`
}

// RequeueRequest optionally narrows a requeue to specific item ids.
type RequeueRequest struct {
	// IDs limits the requeue; empty means every failed item.
	IDs []string `json:"ids"`
}

// RequeueResponse reports how many items went back to queued.
type RequeueResponse struct {
	Requeued int64 `json:"requeued"`
}

//
// Handlers
//

// ListQueue godoc
// @ID          listQueue
// @Summary     List queue items (paginated)
// @Description Returns a page of send-queue items, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Queue
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListQueueResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Queue not created yet"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [get]
func (h *Handlers) ListQueue(c *gin.Context) {
	ctx := c.Request.Context()
	if !repo.QueueExists(h.db) {
		fail(c, http.StatusNotFound, ErrCodeQueueMissing, "send queue not created yet")
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	count, maxTS, err := repo.QueueStats(ctx, h.db)
	if err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"queue:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	total, err := repo.CountItems(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	items, err := repo.ListItemsPage(ctx, h.db, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListQueueResponse{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// QueueStatus godoc
// @ID          queueStatus
// @Summary     Inspect the send queue
// @Description Reports whether the queue exists, its column contract, and per-status item counts.
// @Tags        Queue
// @Produce     json
//
// @Success     200  {object} repo.QueueStatus
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/status [get]
func (h *Handlers) QueueStatus(c *gin.Context) {
	st, err := repo.GetQueueStatus(c.Request.Context(), h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// EnsureQueue godoc
// @ID          ensureQueue
// @Summary     Create or repair the send queue
// @Description Creates the queue table when absent; otherwise appends any missing columns without reordering existing ones. Idempotent.
// @Tags        Queue
// @Produce     json
//
// @Success     200  {object} handlers.EnsureQueueResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/ensure [post]
func (h *Handlers) EnsureQueue(c *gin.Context) {
	name, columns, created, err := repo.EnsureQueue(h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, EnsureQueueResponse{Name: name, Columns: columns, Created: created})
}

// RequeueFailed godoc
// @ID          requeueFailed
// @Summary     Requeue failed items
// @Description Moves failed items back to queued for another send attempt. An empty body requeues all failed items.
// @Tags        Queue
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RequeueRequest  false "Optional id filter"
//
// @Success     200  {object} handlers.RequeueResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Queue not created yet"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/requeue [post]
func (h *Handlers) RequeueFailed(c *gin.Context) {
	if !repo.QueueExists(h.db) {
		fail(c, http.StatusNotFound, ErrCodeQueueMissing, "send queue not created yet")
		return
	}

	var req RequeueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	n, err := repo.RequeueFailed(c.Request.Context(), h.db, req.IDs)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, RequeueResponse{Requeued: n})
}
