// Send and credit HTTP handlers.
//
// This file exposes the delivery endpoints:
//   - POST /send      (drain queued items under the daily credit budget)
//   - GET  /credits   (current budget snapshot, folded with provider quota)
//
// Both endpoints key the ledger by the X-User-ID identity. A held ledger
// lock surfaces as 429 so clients retry instead of stacking workers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tventures02/loi-automater/internal/http/middleware"
	"github.com/tventures02/loi-automater/internal/services"
)

// SendBatchRequest is the JSON payload for a send run.
type SendBatchRequest struct {
	// Limit caps how many queued items are attempted; 0 means all.
	Limit int `json:"limit"`
	// IsPremium requests the premium (uncapped) plan for this run.
	IsPremium bool `json:"is_premium"`
}

// SendBatch godoc
// @ID          sendBatch
// @Summary     Send queued documents
// @Description Reserves credits, sends up to the granted number of queued items oldest first, and commits the true sent count. Per-item failures are reported, not fatal.
// @Tags        Send
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SendBatchRequest  false  "Batch options"
//
// @Success     200  {object}  services.SendSummary
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Queue not created yet"
// @Failure     429  {object}  handlers.ErrorResponse  "Ledger busy, retry later"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /send [post]
func (h *Handlers) SendBatch(c *gin.Context) {
	var req SendBatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Limit < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "limit must be >= 0")
		return
	}

	sum, err := h.sendSvc.Send(c.Request.Context(), userID(c), services.SendRequest{
		Limit:        req.Limit,
		IsPremium:    req.IsPremium,
		FreeDailyCap: h.freeDailyCap,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQueueMissing):
			fail(c, http.StatusNotFound, ErrCodeQueueMissing, "send queue not created yet")
		case errors.Is(err, services.ErrBusy):
			fail(c, http.StatusTooManyRequests, ErrCodeBusy, "another send is updating your credits, try again shortly")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSendFailed, err.Error())
		}
		return
	}
	middleware.AddCreditsGranted(sum.Granted)
	middleware.AddEmailsSent("sent", sum.Sent)
	middleware.AddEmailsSent("failed", sum.Failed)
	ok(c, http.StatusOK, sum)
}

// GetCredits godoc
// @ID          getCredits
// @Summary     Current credit budget
// @Description Returns today's usage, live reservations, and the effective credits left after folding in the mail provider's remaining quota.
// @Tags        Send
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       premium    query   string  false "Premium plan flag"      example(true)
//
// @Success     200  {object}  services.CreditState
// @Failure     429  {object}  handlers.ErrorResponse  "Ledger busy, retry later"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /credits [get]
func (h *Handlers) GetCredits(c *gin.Context) {
	st, err := h.credSvc.Snapshot(c.Request.Context(), userID(c), isPremium(c), h.freeDailyCap)
	if err != nil {
		if errors.Is(err, services.ErrBusy) {
			fail(c, http.StatusTooManyRequests, ErrCodeBusy, "credits are being updated, try again shortly")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}
