// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for templates and
// rendered documents, plus DocumentStore, a small adapter satisfying the
// renderer's store interface.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tventures02/loi-automater/internal/domain"
)

// CreateTemplate inserts a template row.
func CreateTemplate(ctx context.Context, db *gorm.DB, tpl *domain.Template) error {
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(tpl).Error
}

// GetTemplate fetches a template by id, or ErrNotFound.
func GetTemplate(ctx context.Context, db *gorm.DB, id string) (*domain.Template, error) {
	var tpl domain.Template
	err := db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// CreateDocument inserts a rendered document row.
func CreateDocument(ctx context.Context, db *gorm.DB, doc *domain.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(doc).Error
}

// GetDocument fetches a rendered document by id, or ErrNotFound.
func GetDocument(ctx context.Context, db *gorm.DB, id string) (*domain.Document, error) {
	var doc domain.Document
	err := db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DocumentStore adapts the repository functions to the narrow store
// interface consumed by the document renderer.
type DocumentStore struct {
	DB *gorm.DB
}

// GetTemplate implements document.Store.
func (s DocumentStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	return GetTemplate(ctx, s.DB, id)
}

// CreateDocument implements document.Store.
func (s DocumentStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	return CreateDocument(ctx, s.DB, doc)
}
