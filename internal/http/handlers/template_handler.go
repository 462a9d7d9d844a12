// Template and document HTTP handlers.
//
// This file exposes REST endpoints for template and rendered-document
// resources:
//   - POST /templates        (create)
//   - GET  /templates/{id}   (fetch)
//   - GET  /documents/{id}   (fetch a rendered document)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tventures02/loi-automater/internal/document"
	"github.com/tventures02/loi-automater/internal/domain"
	"github.com/tventures02/loi-automater/internal/repo"
)

// CreateTemplateRequest is the JSON payload for creating a template.
type CreateTemplateRequest struct {
	// Name labels the template (1-255 chars).
	Name string `json:"name" binding:"required,min=1,max=255" example:"LOI letter"`
	// Body is the structured document content with {{placeholder}} tokens.
	Body document.Body `json:"body" binding:"required"`
}

// CreateTemplate godoc
// @ID          createTemplate
// @Summary     Create a template
// @Description Stores a structured template whose text runs may contain {{placeholder}} tokens.
// @Tags        Templates
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateTemplateRequest  true  "Template payload"
//
// @Success     201  {object}  domain.Template
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /templates [post]
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if len(req.Body.Elements) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template body must contain at least one element")
		return
	}

	raw, err := req.Body.Marshal()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unserializable template body")
		return
	}
	tpl := &domain.Template{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(req.Name),
		Body: raw,
	}
	if err := repo.CreateTemplate(c.Request.Context(), h.db, tpl); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, tpl)
}

// GetTemplate godoc
// @ID          getTemplate
// @Summary     Fetch a template
// @Tags        Templates
// @Produce     json
//
// @Param       id  path  string  true  "Template ID"
//
// @Success     200  {object}  domain.Template
// @Failure     404  {object}  handlers.ErrorResponse  "Template not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /templates/{id} [get]
func (h *Handlers) GetTemplate(c *gin.Context) {
	tpl, err := repo.GetTemplate(c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "template not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, tpl)
}

// GetDocument godoc
// @ID          getDocument
// @Summary     Fetch a rendered document
// @Description Returns a document produced by a generation run. Queue items link here via their doc_url.
// @Tags        Templates
// @Produce     json
//
// @Param       id  path  string  true  "Document ID"
//
// @Success     200  {object}  domain.Document
// @Failure     404  {object}  handlers.ErrorResponse  "Document not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /documents/{id} [get]
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, err := repo.GetDocument(c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "document not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, doc)
}
