// Package services – GenerateService
//
// The generation orchestrator drives one batch run: it walks the source rows
// in order, derives each row's content key, skips duplicates and invalid
// emails, renders a document per surviving row, and bulk-appends the new
// queue items in one store round-trip at the end.
//
// Failure isolation is the central rule here: a row that fails to render is
// recorded as a failed status and never aborts the batch. Only systemic
// problems (unreadable source sheet, a queue table that cannot be created,
// a failing bulk append) surface as errors.
//
// Two concurrent runs over the same source are not serialized; both may pass
// the duplicate check before either appends. The queue's primary key wins
// that race (the loser's rows are skipped at append time), so duplicates
// cannot land, but the loser will have rendered orphan documents. Accepted;
// see the append path in the repo layer.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tventures02/loi-automater/internal/contentkey"
	"github.com/tventures02/loi-automater/internal/document"
	"github.com/tventures02/loi-automater/internal/domain"
	"github.com/tventures02/loi-automater/internal/repo"
	"github.com/tventures02/loi-automater/internal/tabular"
)

// Row outcome labels used in GenerationSummary statuses.
const (
	RowCreated = "created"
	RowSkipped = "skipped"
	RowFailed  = "failed"
)

// GenerateRequest describes one generation run.
type GenerateRequest struct {
	SheetName   string            `json:"sheet_name"`
	Mapping     map[string]string `json:"mapping"`
	EmailColumn string            `json:"email_column"`
	Pattern     string            `json:"pattern"`
	TemplateID  string            `json:"template_doc_id"`
}

// RowStatus is the per-row outcome of a generation run.
type RowStatus struct {
	Row         int    `json:"row"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

// GenerationSummary aggregates a run. SkippedInvalid counts duplicate skips
// and invalid-email skips together.
type GenerationSummary struct {
	Created        int         `json:"created"`
	SkippedInvalid int         `json:"skipped_invalid"`
	Failed         int         `json:"failed"`
	Statuses       []RowStatus `json:"statuses"`
}

// GenerateService orchestrates preflighted rows into rendered documents and
// queue items.
type GenerateService struct {
	DB       *gorm.DB
	Source   tabular.Source
	Renderer *document.Renderer

	// MaxColumns caps scan width; 0 means DefaultMaxColumns.
	MaxColumns int
}

// NewGenerateService constructs a GenerateService.
func NewGenerateService(db *gorm.DB, src tabular.Source, r *document.Renderer) *GenerateService {
	return &GenerateService{DB: db, Source: src, Renderer: r, MaxColumns: DefaultMaxColumns}
}

func (s *GenerateService) maxCols() int {
	if s.MaxColumns > 0 {
		return s.MaxColumns
	}
	return DefaultMaxColumns
}

// Generate runs one batch. Rows are processed strictly in source order and
// the final append preserves that order.
func (s *GenerateService) Generate(ctx context.Context, req GenerateRequest) (GenerationSummary, error) {
	var summary GenerationSummary

	if req.TemplateID == "" {
		return summary, ErrNoTemplate
	}
	placeholders, emailLetter, err := splitMapping(req.Mapping, req.EmailColumn)
	if err != nil {
		return summary, err
	}

	window, err := s.Source.ReadWindow(ctx, req.SheetName, s.maxCols())
	if err != nil {
		return summary, err
	}

	if _, _, _, err := repo.EnsureQueue(s.DB); err != nil {
		return summary, fmt.Errorf("ensure queue: %w", err)
	}
	// One snapshot per run; extended in memory as rows are accepted so a
	// duplicate within the same run is caught too.
	existing, err := repo.ListExistingIDs(ctx, s.DB)
	if err != nil {
		return summary, fmt.Errorf("load existing ids: %w", err)
	}

	mappingVersion := contentkey.MappingVersion(placeholders)
	var pending []domain.QueueItem

	for row := 2; row <= len(window); row++ {
		values := rowValues(window, row, placeholders)
		email := cellAt(window, row, emailLetter)
		key := contentkey.Make(req.TemplateID, mappingVersion, email, values)

		if _, dup := existing[key]; dup {
			summary.SkippedInvalid++
			summary.Statuses = append(summary.Statuses, RowStatus{Row: row, Status: RowSkipped, Message: "duplicate"})
			continue
		}
		if !validEmail(email) {
			summary.SkippedInvalid++
			summary.Statuses = append(summary.Statuses, RowStatus{Row: row, Status: RowSkipped, Message: "invalid or empty email"})
			continue
		}

		fileName := document.SubstitutePattern(req.Pattern, values)
		doc, err := s.Renderer.Render(ctx, req.TemplateID, fileName, values)
		if err != nil {
			// Per-row isolation: record and move on.
			summary.Failed++
			summary.Statuses = append(summary.Statuses, RowStatus{Row: row, Status: RowFailed, Message: err.Error()})
			continue
		}

		pending = append(pending, domain.QueueItem{
			ID:             key,
			SourceSheet:    req.SheetName,
			SourceRow:      row,
			Email:          normalizeEmail(email),
			DocID:          doc.ID,
			DocURL:         doc.URL,
			TemplateID:     req.TemplateID,
			MappingVersion: mappingVersion,
			Status:         domain.StatusQueued,
		})
		existing[key] = struct{}{}
		summary.Created++
		summary.Statuses = append(summary.Statuses, RowStatus{Row: row, Status: RowCreated, DocumentURL: doc.URL})
	}

	appended, err := repo.AppendItems(ctx, s.DB, pending)
	if err != nil {
		// Rendered documents are not rolled back; orphans are accepted.
		return summary, fmt.Errorf("append queue items: %w", err)
	}
	if appended < len(pending) {
		log.Warn().
			Int("pending", len(pending)).
			Int("appended", appended).
			Msg("concurrent run appended overlapping keys first")
	}
	return summary, nil
}
