// Package tabular abstracts the row/column data source that mail-merge rows
// are read from. The rest of the system addresses cells by (sheet name, row,
// column letter) and never reaches for an ambient "active sheet": callers
// inject a Source, which keeps the core testable without a live spreadsheet
// session. Two implementations ship with the package: an in-memory source
// for tests and seeding, and a CSV-directory source for file-based inputs.
package tabular

import (
	"context"
	"errors"
	"sync"

	"github.com/tventures02/loi-automater/internal/colref"
)

// ErrSheetNotFound indicates the named sheet does not exist in the source.
var ErrSheetNotFound = errors.New("sheet not found")

// Source is a read-only view over sheet-shaped data. Implementations must be
// safe for concurrent use.
type Source interface {
	// ReadWindow returns the rows of the named sheet, header row first,
	// with every row truncated to at most maxCols cells. maxCols bounds the
	// cost of a scan; values <= 0 mean "no cap".
	ReadWindow(ctx context.Context, sheet string, maxCols int) ([][]string, error)
}

// Cell addresses a single cell of a window by 1-based row number and column
// letter. Out-of-range coordinates yield "" rather than an error: a sheet is
// conceptually unbounded and absent cells are simply empty.
func Cell(window [][]string, row int, letter string) string {
	col, err := colref.LetterToIndex(letter)
	if err != nil || row < 1 || row > len(window) {
		return ""
	}
	cells := window[row-1]
	if col > len(cells) {
		return ""
	}
	return cells[col-1]
}

// MemorySource is an in-memory Source keyed by sheet name.
type MemorySource struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{sheets: make(map[string][][]string)}
}

// SetSheet replaces the contents of a sheet. Rows are stored as given;
// the first row is treated as the header by consumers.
func (m *MemorySource) SetSheet(name string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	m.sheets[name] = cp
}

// ReadWindow implements Source.
func (m *MemorySource) ReadWindow(_ context.Context, sheet string, maxCols int) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.sheets[sheet]
	if !ok {
		return nil, ErrSheetNotFound
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		if maxCols > 0 && len(r) > maxCols {
			r = r[:maxCols]
		}
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}
