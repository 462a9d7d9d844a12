// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the credit ledger's persistence port:
// plain get/put of the single per-user counter row. All normalization logic
// (day rollover, stale-hold reclamation, cap math) lives in the credit
// service, which calls these helpers while holding the per-user lock.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tventures02/loi-automater/internal/domain"
)

// GetLedger fetches the ledger row for a user, or ErrNotFound when the user
// has never reserved or spent credits.
func GetLedger(ctx context.Context, db *gorm.DB, userID string) (*domain.CreditLedger, error) {
	var row domain.CreditLedger
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// PutLedger upserts the ledger row for a user, replacing all counter fields.
func PutLedger(ctx context.Context, db *gorm.DB, row *domain.CreditLedger) error {
	row.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"date_key", "used", "reserved", "reserved_at", "updated_at"}),
		}).
		Create(row).Error
}
