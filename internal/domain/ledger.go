package domain

import "time"

// CreditLedger holds the per-user daily send counters. One row per user; the
// row carries the day it refers to and is lazily reset whenever DateKey no
// longer matches "today" in the account's timezone.
//
// Invariant (maintained by the credit service under its per-user lock):
// Used + Reserved never exceeds the user's daily cap, and Reserved is never
// negative. ReservedAt records the last reservation mutation so that holds
// abandoned by a crashed client can be reclaimed after a TTL.
type CreditLedger struct {
	UserID     string     `json:"user_id"  gorm:"type:TEXT NOT NULL;primaryKey"`
	DateKey    string     `json:"date_key" gorm:"type:TEXT NOT NULL"`
	Used       int        `json:"used"     gorm:"type:INTEGER NOT NULL;default:0"`
	Reserved   int        `json:"reserved" gorm:"type:INTEGER NOT NULL;default:0"`
	ReservedAt *time.Time `json:"reserved_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name for CreditLedger.
func (CreditLedger) TableName() string { return "credit_ledger" }
