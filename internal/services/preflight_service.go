// Package services – PreflightService
//
// Preflight scans the source sheet without mutating anything and tells the
// user what a generation run would do: how many rows carry a validly-shaped
// email, how many are invalid, and how many valid rows have empty mapped
// cells. It also previews the output file name for the first data row so the
// user can sanity-check the naming pattern before committing to a run.
//
// Malformed requests (no email column) produce an ok:false result with a
// reason instead of an error: a partial answer is more useful to the caller
// than a rejection. Only systemic failures (the sheet cannot be read) return
// an error.
package services

import (
	"context"
	"errors"

	"github.com/tventures02/loi-automater/internal/document"
	"github.com/tventures02/loi-automater/internal/tabular"
)

// DefaultMaxColumns bounds the width of source-sheet scans.
const DefaultMaxColumns = 52

// PreflightRequest describes the range and mapping to evaluate.
type PreflightRequest struct {
	// SheetName selects the source sheet; empty means the source's default.
	SheetName string `json:"sheet_name"`
	// Mapping maps placeholder names to column letters. The reserved
	// "__email" entry may carry the recipient column.
	Mapping map[string]string `json:"mapping"`
	// EmailColumn is the recipient column letter; overrides __email.
	EmailColumn string `json:"email_column"`
	// Pattern is the output file-name pattern with {{placeholder}} tokens.
	Pattern string `json:"pattern"`
}

// PreflightResult summarizes a scan. OK is true iff at least one row is
// eligible for generation.
type PreflightResult struct {
	OK                bool   `json:"ok"`
	Reason            string `json:"reason,omitempty"`
	TotalRows         int    `json:"total_rows"`
	EligibleRows      int    `json:"eligible_rows"`
	InvalidEmails     int    `json:"invalid_emails"`
	MissingValuesRows int    `json:"missing_values_rows"`
	SampleFileName    string `json:"sample_file_name,omitempty"`
}

// PreflightService evaluates generation requests read-only.
type PreflightService struct {
	// Source is the injected tabular backend.
	Source tabular.Source
	// MaxColumns caps scan width; 0 means DefaultMaxColumns.
	MaxColumns int
}

// NewPreflightService constructs a PreflightService over the given source.
func NewPreflightService(src tabular.Source) *PreflightService {
	return &PreflightService{Source: src, MaxColumns: DefaultMaxColumns}
}

func (s *PreflightService) maxCols() int {
	if s.MaxColumns > 0 {
		return s.MaxColumns
	}
	return DefaultMaxColumns
}

// Preflight scans the mapped range and computes eligibility counts and a
// sample output name. Safe to call repeatedly and concurrently with
// generation; it never writes.
func (s *PreflightService) Preflight(ctx context.Context, req PreflightRequest) (PreflightResult, error) {
	placeholders, emailLetter, err := splitMapping(req.Mapping, req.EmailColumn)
	if err != nil {
		if errors.Is(err, ErrNoEmailColumn) {
			return PreflightResult{OK: false, Reason: ErrNoEmailColumn.Error()}, nil
		}
		return PreflightResult{OK: false, Reason: err.Error()}, nil
	}

	window, err := s.Source.ReadWindow(ctx, req.SheetName, s.maxCols())
	if err != nil {
		return PreflightResult{}, err
	}

	res := PreflightResult{}
	for row := 2; row <= len(window); row++ {
		res.TotalRows++

		email := cellAt(window, row, emailLetter)
		if !validEmail(email) {
			res.InvalidEmails++
			continue
		}
		res.EligibleRows++

		// Empty mapped cells are informational, not disqualifying.
		for name := range placeholders {
			if cellAt(window, row, placeholders[name]) == "" {
				res.MissingValuesRows++
				break
			}
		}
	}

	if len(window) >= 2 {
		res.SampleFileName = document.SubstitutePattern(req.Pattern, rowValues(window, 2, placeholders))
	}
	res.OK = res.EligibleRows > 0
	return res, nil
}
