// Package colref converts between spreadsheet column letters ("A", "B", ...,
// "AA") and 1-based numeric column indices. Letters form a bijective base-26
// numeral system: A=1 ... Z=26, AA=27, AZ=52, BA=53, and so on.
//
// Both directions are pure and round-trip exactly:
//
//	IndexToLetter(LetterToIndex(s)) == s   for every valid letter string
//	LetterToIndex(IndexToLetter(n)) == n   for every n >= 1
package colref

import (
	"fmt"
	"strings"
)

// LetterToIndex returns the 1-based column index for a column letter string.
// The input is case-insensitive and must be a non-empty run of A–Z characters;
// anything else is rejected with an error.
func LetterToIndex(letter string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(letter))
	if s == "" {
		return 0, fmt.Errorf("colref: empty column letter")
	}
	n := 0
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("colref: invalid column letter %q", letter)
		}
		n = n*26 + int(r-'A') + 1
	}
	return n, nil
}

// IndexToLetter returns the column letter string for a 1-based column index.
// Index values below 1 are rejected with an error.
func IndexToLetter(index int) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("colref: invalid column index %d", index)
	}
	var b []byte
	for n := index; n > 0; {
		n-- // bijective base-26 has no zero digit
		b = append(b, byte('A'+n%26))
		n /= 26
	}
	// digits were collected least-significant first
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}
