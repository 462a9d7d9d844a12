package services

import (
	"regexp"
	"strings"

	"github.com/tventures02/loi-automater/internal/colref"
	"github.com/tventures02/loi-automater/internal/tabular"
)

// EmailMappingKey is the reserved mapping entry naming the recipient column.
// Requests may pass the email column either through this key or through a
// dedicated field; the dedicated field wins when both are present.
const EmailMappingKey = "__email"

// emailRE is the standard address-shape check used by preflight and
// generation. It deliberately tests shape only, not deliverability.
var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// validEmail reports whether s looks like an email address.
func validEmail(s string) bool {
	return emailRE.MatchString(strings.TrimSpace(s))
}

// normalizeEmail trims and lowercases an address for storage and hashing.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// splitMapping separates a request mapping into placeholder→column-letter
// pairs and the email column letter. Every referenced column letter is
// validated through the column codec; a bad letter or a missing email column
// is a validation failure.
func splitMapping(mapping map[string]string, emailColumn string) (placeholders map[string]string, emailLetter string, err error) {
	placeholders = make(map[string]string, len(mapping))
	for name, letter := range mapping {
		if name == EmailMappingKey {
			if emailColumn == "" {
				emailColumn = letter
			}
			continue
		}
		if _, err := colref.LetterToIndex(letter); err != nil {
			return nil, "", err
		}
		placeholders[name] = strings.ToUpper(strings.TrimSpace(letter))
	}

	emailColumn = strings.ToUpper(strings.TrimSpace(emailColumn))
	if emailColumn == "" {
		return nil, "", ErrNoEmailColumn
	}
	if _, err := colref.LetterToIndex(emailColumn); err != nil {
		return nil, "", err
	}
	return placeholders, emailColumn, nil
}

// rowValues resolves every mapped placeholder to its cell value for one row
// of a window. Absent cells resolve to "".
func rowValues(window [][]string, row int, placeholders map[string]string) map[string]string {
	values := make(map[string]string, len(placeholders))
	for name, letter := range placeholders {
		values[name] = cellAt(window, row, letter)
	}
	return values
}

// cellAt reads one trimmed cell of a window by 1-based row and column letter.
func cellAt(window [][]string, row int, letter string) string {
	return strings.TrimSpace(tabular.Cell(window, row, letter))
}
