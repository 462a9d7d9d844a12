package document

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tventures02/loi-automater/internal/domain"
)

// ErrDocumentCreation marks failures to open a template or create/save the
// rendered document. Callers running batch generation must catch it per row
// and record a failed row instead of aborting the batch.
var ErrDocumentCreation = errors.New("document creation failed")

// Store is the persistence surface the renderer needs: a template store
// keyed by opaque string ids, and a sink for rendered documents.
type Store interface {
	// GetTemplate fetches a template body by id.
	GetTemplate(ctx context.Context, id string) (*domain.Template, error)

	// CreateDocument persists a rendered document.
	CreateDocument(ctx context.Context, doc *domain.Document) error
}

// Renderer renders documents from stored templates.
type Renderer struct {
	Store Store

	// URLPrefix is prepended to the document id to form DocURL.
	URLPrefix string
}

// NewRenderer constructs a Renderer over the given store.
func NewRenderer(store Store) *Renderer {
	return &Renderer{Store: store, URLPrefix: "/api/v1/documents/"}
}

// Render opens the template, deep-copies every supported structural element
// into a fresh document, substitutes placeholder values, and persists the
// result. Unsupported element kinds are skipped with a log entry; a single
// odd element never aborts the render.
func (r *Renderer) Render(ctx context.Context, templateID, fileName string, values map[string]string) (*domain.Document, error) {
	tpl, err := r.Store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("%w: open template %s: %v", ErrDocumentCreation, templateID, err)
	}
	body, err := ParseBody(tpl.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: template %s body: %v", ErrDocumentCreation, templateID, err)
	}

	out := Body{Elements: make([]Element, 0, len(body.Elements))}
	for i, el := range body.Elements {
		switch el.Kind {
		case KindParagraph, KindListItem, KindTable:
			out.Elements = append(out.Elements, substituteElement(el.clone(), values))
		default:
			log.Debug().
				Str("template_id", templateID).
				Int("index", i).
				Str("kind", el.Kind).
				Msg("skipping unsupported element")
		}
	}

	raw, err := out.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: marshal body: %v", ErrDocumentCreation, err)
	}

	doc := &domain.Document{
		ID:         uuid.NewString(),
		Name:       fileName,
		TemplateID: templateID,
		Body:       raw,
		CreatedAt:  time.Now().UTC(),
	}
	doc.URL = r.URLPrefix + doc.ID

	if err := r.Store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: save document: %v", ErrDocumentCreation, err)
	}
	return doc, nil
}

// substituteElement replaces placeholder tokens in every run of an element.
func substituteElement(el Element, values map[string]string) Element {
	for i := range el.Runs {
		el.Runs[i].Text = Substitute(el.Runs[i].Text, values)
	}
	for i := range el.Rows {
		for j := range el.Rows[i] {
			for k := range el.Rows[i][j].Runs {
				el.Rows[i][j].Runs[k].Text = Substitute(el.Rows[i][j].Runs[k].Text, values)
			}
		}
	}
	return el
}

// Substitute replaces placeholder tokens in s with their mapped values.
// Two syntaxes are supported: "{{name}}", and "<name>" matched both exactly
// and case-insensitively against the lowercased placeholder name.
func Substitute(s string, values map[string]string) string {
	for name, val := range values {
		s = strings.ReplaceAll(s, "{{"+name+"}}", val)
		s = strings.ReplaceAll(s, "<"+name+">", val)
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta("<"+strings.ToLower(name)+">"))
		s = re.ReplaceAllLiteralString(s, val)
	}
	return s
}

// SubstitutePattern fills "{{token}}" placeholders in a file-name pattern.
// Name patterns only use the brace syntax; angle brackets are left alone so
// literal angled text in names survives.
func SubstitutePattern(pattern string, values map[string]string) string {
	for name, val := range values {
		pattern = strings.ReplaceAll(pattern, "{{"+name+"}}", val)
	}
	return pattern
}
