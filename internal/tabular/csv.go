package tabular

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
)

// CSVSource resolves sheet names to CSV files inside a base directory
// ("Sheet1" → <dir>/Sheet1.csv). Useful for driving merges from exported
// spreadsheet data without a live spreadsheet backend.
type CSVSource struct {
	dir string
}

// NewCSVSource returns a Source reading <dir>/<sheet>.csv files.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// ReadWindow implements Source.
func (s *CSVSource) ReadWindow(_ context.Context, sheet string, maxCols int) ([][]string, error) {
	// Sheet names come from request payloads; strip path separators so a
	// crafted name cannot escape the base directory.
	name := filepath.Base(strings.TrimSpace(sheet))
	if name == "" || name == "." {
		return nil, ErrSheetNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, name+".csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSheetNotFound
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are fine; absent cells read as ""
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if maxCols > 0 {
		for i, row := range records {
			if len(row) > maxCols {
				records[i] = row[:maxCols]
			}
		}
	}
	return records, nil
}
