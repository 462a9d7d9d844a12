// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the send queue.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an item is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - AppendItems maps primary-key violations to ErrDuplicate per item; two
//     generation runs racing the same source rows surface here instead of
//     double-inserting.
//   - On other DB errors the raw gorm error is propagated.
//
// The queue's dedup contract lives one level up: the orchestrator checks
// ListExistingIDs before building items, so AppendItems normally never sees
// a collision.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tventures02/loi-automater/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a queue row with the same ContentKey id already
// exists.
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation recognizes primary-key/unique failures from the pure-Go
// sqlite driver, which often reports them as plain-text errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// QueueStatus describes existence and emptiness of the queue table.
type QueueStatus struct {
	Exists bool `json:"exists"`
	Empty  bool `json:"empty"`
}

// QueueExists reports whether the send queue table has been created.
func QueueExists(db *gorm.DB) bool {
	return db.Migrator().HasTable(&domain.QueueItem{})
}

// GetQueueStatus returns existence and emptiness of the queue in one call.
func GetQueueStatus(ctx context.Context, db *gorm.DB) (QueueStatus, error) {
	st := QueueStatus{Exists: QueueExists(db), Empty: true}
	if !st.Exists {
		return st, nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(&domain.QueueItem{}).Count(&count).Error; err != nil {
		return st, err
	}
	st.Empty = count == 0
	return st, nil
}

// EnsureQueue idempotently guarantees the queue table exists with the
// canonical schema. An existing table missing newly-introduced columns gets
// them appended; existing columns are never reordered or touched. It returns
// the table name, the canonical column list, and whether the table was
// created by this call.
func EnsureQueue(db *gorm.DB) (name string, columns []string, newlyCreated bool, err error) {
	name = domain.QueueItem{}.TableName()
	columns = append([]string(nil), domain.QueueColumns...)
	existed := QueueExists(db)
	if err = db.AutoMigrate(&domain.QueueItem{}); err != nil {
		return name, columns, false, err
	}
	return name, columns, !existed, nil
}

// AppendItems bulk-inserts queue rows in the order given and returns how many
// were persisted. An empty input is a no-op. Items whose id already exists
// are skipped (the insert falls back to row-at-a-time on a unique violation)
// and do not fail the batch.
func AppendItems(ctx context.Context, db *gorm.DB, items []domain.QueueItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		items[i].UpdatedAt = now
	}

	if err := db.WithContext(ctx).Create(&items).Error; err == nil {
		return len(items), nil
	} else if !isUniqueViolation(err) {
		return 0, err
	}

	// A concurrent run appended one of our keys between snapshot and write.
	// Insert individually so the rest of the batch still lands.
	inserted := 0
	for i := range items {
		err := db.WithContext(ctx).Create(&items[i]).Error
		switch {
		case err == nil:
			inserted++
		case isUniqueViolation(err):
			// lost the race for this key; the existing row wins
		default:
			return inserted, err
		}
	}
	return inserted, nil
}

// ListExistingIDs returns the set of all queue row ids. The orchestrator
// loads this once per run and extends it in memory as it creates new items.
func ListExistingIDs(ctx context.Context, db *gorm.DB) (map[string]struct{}, error) {
	var ids []string
	if err := db.WithContext(ctx).Model(&domain.QueueItem{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// GetItem fetches a single queue row by id, or ErrNotFound.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.QueueItem, error) {
	var item domain.QueueItem
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByStatus returns up to limit queue rows with the given status in
// creation order (FIFO). limit <= 0 means no limit.
func ListByStatus(ctx context.Context, db *gorm.DB, status string, limit int) ([]domain.QueueItem, error) {
	q := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var items []domain.QueueItem
	err := q.Find(&items).Error
	return items, err
}

// CountItems returns the total number of queue rows.
func CountItems(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.QueueItem{}).Count(&count).Error
	return count, err
}

// ListItemsPage returns a page of queue rows ordered newest-first.
func ListItemsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}

// MarkSending transitions a queued item to sending and bumps its attempt
// counter. Only rows currently queued are eligible; returns ErrNotFound when
// the row is missing or in another state, so two senders cannot both claim
// the same row.
func MarkSending(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("id = ? AND status = ?", id, domain.StatusQueued).
		Updates(map[string]any{
			"status":     domain.StatusSending,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSent finalizes a sending item: status becomes sent, SentAt is stamped,
// and LastError is cleared.
func MarkSent(ctx context.Context, db *gorm.DB, id string, sentAt time.Time) error {
	res := db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("id = ? AND status = ?", id, domain.StatusSending).
		Updates(map[string]any{
			"status":     domain.StatusSent,
			"sent_at":    sentAt.UTC(),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a failure for a queued or sending item.
func MarkFailed(ctx context.Context, db *gorm.DB, id, message string) error {
	res := db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("id = ? AND status IN ?", id, []string{domain.StatusQueued, domain.StatusSending}).
		Updates(map[string]any{
			"status":     domain.StatusFailed,
			"last_error": message,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RequeueFailed moves failed items back to queued for another attempt.
// With no ids it requeues every failed row; otherwise only the listed ones.
// Returns the number of rows transitioned.
func RequeueFailed(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.QueueItem{}).
		Where("status = ?", domain.StatusFailed)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Updates(map[string]any{
		"status":     domain.StatusQueued,
		"updated_at": time.Now().UTC(),
	})
	return res.RowsAffected, res.Error
}
