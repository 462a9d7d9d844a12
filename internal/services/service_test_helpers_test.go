package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tventures02/loi-automater/internal/document"
	"github.com/tventures02/loi-automater/internal/domain"
	"github.com/tventures02/loi-automater/internal/repo"
	"github.com/tventures02/loi-automater/internal/tabular"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// seedTemplate stores a single-paragraph template and returns its id.
func seedTemplate(t *testing.T, db *gorm.DB) string {
	t.Helper()
	body, err := document.Body{Elements: []document.Element{
		{Kind: document.KindParagraph, Runs: []document.Run{{Text: "Dear {{name}}, re: {{address}}"}}},
	}}.Marshal()
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	tpl := &domain.Template{ID: "tpl-1", Name: "LOI", Body: body}
	if err := repo.CreateTemplate(context.Background(), db, tpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return tpl.ID
}

// dealsSheet is a three-row source: header plus rows addressed A=email,
// B=name, C=address.
func dealsSheet() *tabular.MemorySource {
	src := tabular.NewMemorySource()
	src.SetSheet("Deals", [][]string{
		{"Email", "Name", "Address"},
		{"jane@example.com", "Jane", "12 Main St"},
		{"john@example.com", "John", "5 Oak Ave"},
		{"mia@example.com", "Mia", "9 Elm Rd"},
	})
	return src
}

func dealsMapping() map[string]string {
	return map[string]string{"name": "B", "address": "C"}
}
