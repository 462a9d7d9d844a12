// Package document implements the mail-merge document model and renderer.
//
// A document body is a flat list of structural elements (paragraphs, list
// items, tables) whose text is carried in styled runs. Rendering deep-copies
// a template's element tree into a new document and substitutes placeholder
// tokens, so templates are never mutated. Bodies serialize to JSON and are
// persisted by the store layer as JSON columns.
package document

import "encoding/json"

// Element kinds understood by the renderer. Anything else is skipped with a
// diagnostic log entry instead of failing the whole render.
const (
	KindParagraph = "paragraph"
	KindListItem  = "list_item"
	KindTable     = "table"
)

// Run is a span of text with uniform inline formatting.
type Run struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// Cell is one table cell, holding its own runs.
type Cell struct {
	Runs []Run `json:"runs"`
}

// Element is one top-level structural element of a document body.
//
// Kind selects which fields are meaningful: paragraphs and list items carry
// Runs; list items additionally carry Glyph and Nesting; tables carry Rows.
type Element struct {
	Kind    string   `json:"kind"`
	Runs    []Run    `json:"runs,omitempty"`
	Glyph   string   `json:"glyph,omitempty"`   // list item bullet/number glyph type
	Nesting int      `json:"nesting,omitempty"` // list item nesting level
	Rows    [][]Cell `json:"rows,omitempty"`    // table rows
}

// Body is the root of a document's content.
type Body struct {
	Elements []Element `json:"elements"`
}

// Marshal serializes a body for storage.
func (b Body) Marshal() ([]byte, error) { return json.Marshal(b) }

// ParseBody deserializes a stored body.
func ParseBody(raw []byte) (Body, error) {
	var b Body
	err := json.Unmarshal(raw, &b)
	return b, err
}

// clone returns a deep copy of an element.
func (e Element) clone() Element {
	out := Element{Kind: e.Kind, Glyph: e.Glyph, Nesting: e.Nesting}
	out.Runs = append([]Run(nil), e.Runs...)
	if e.Rows != nil {
		out.Rows = make([][]Cell, len(e.Rows))
		for i, row := range e.Rows {
			out.Rows[i] = make([]Cell, len(row))
			for j, cell := range row {
				out.Rows[i][j] = Cell{Runs: append([]Run(nil), cell.Runs...)}
			}
		}
	}
	return out
}
