package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Template is a source document used for mail-merge rendering. Body holds
// the structured element tree (see internal/document) serialized as JSON.
type Template struct {
	ID        string         `json:"id"   gorm:"type:TEXT NOT NULL;primaryKey"`
	Name      string         `json:"name" gorm:"type:TEXT NOT NULL"`
	Body      datatypes.JSON `json:"body" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Template.
func (Template) TableName() string { return "templates" }

// Document is a rendered output: a deep copy of a template's element tree
// with placeholder tokens substituted. Documents are never mutated after
// creation; failed batch appends can leave orphans behind, which is accepted
// and handled by manual cleanup.
type Document struct {
	ID         string         `json:"id"          gorm:"type:TEXT NOT NULL;primaryKey"`
	Name       string         `json:"name"        gorm:"type:TEXT NOT NULL"`
	TemplateID string         `json:"template_id" gorm:"type:TEXT NOT NULL;index"`
	URL        string         `json:"url"         gorm:"type:TEXT NOT NULL"`
	Body       datatypes.JSON `json:"body"        gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }
