// Package domain defines the persistence models for the send queue, the
// credit ledger, and rendered documents. These types are mapped with GORM
// and form the core data layer of the mail-merge application.
package domain

import "time"

// Queue item statuses. Transitions are one-directional
// (queued → sending → sent, or queued/sending → failed) except for
// an explicit requeue of a failed item back to queued.
const (
	StatusQueued  = "queued"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// QueueColumns is the canonical, order-significant column list of the queue
// table. New columns are appended to the right; existing positions are never
// reordered, so queues created by older deployments keep working.
var QueueColumns = []string{
	"id",
	"source_sheet",
	"source_row",
	"email",
	"doc_id",
	"doc_url",
	"template_id",
	"mapping_version",
	"status",
	"sent_at",
	"attempts",
	"last_error",
	"created_at",
	"updated_at",
}

// QueueItem is one row of the send queue: a single generation request that
// has been rendered (or accepted body-only) and is waiting to be emailed.
//
// Fields:
//   - ID: the request's ContentKey; unique and immutable, acts as the
//     dedup primary key. Uniqueness is checked by the orchestrator against
//     a snapshot of existing ids before insert; the DB key is a backstop.
//   - SourceSheet / SourceRow: provenance pointer to the originating row
//     (informational, not unique).
//   - Email: normalized recipient address.
//   - DocID / DocURL: rendered document identity; empty in body-only mode.
//   - TemplateID / MappingVersion: audit provenance.
//   - Status: queued | sending | sent | failed.
//   - SentAt: set only on the transition to sent.
//   - Attempts: send attempts so far; monotonically non-decreasing.
//   - LastError: most recent failure message, cleared on success.
type QueueItem struct {
	ID             string     `json:"id"              gorm:"type:TEXT NOT NULL;primaryKey"`
	SourceSheet    string     `json:"source_sheet"    gorm:"type:TEXT NOT NULL"`
	SourceRow      int        `json:"source_row"      gorm:"type:INTEGER NOT NULL"`
	Email          string     `json:"email"           gorm:"type:TEXT NOT NULL;index"`
	DocID          string     `json:"doc_id"          gorm:"type:TEXT"`
	DocURL         string     `json:"doc_url"         gorm:"type:TEXT"`
	TemplateID     string     `json:"template_id"     gorm:"type:TEXT"`
	MappingVersion string     `json:"mapping_version" gorm:"type:TEXT"`
	Status         string     `json:"status"          gorm:"type:TEXT NOT NULL;index;check:status IN ('queued','sending','sent','failed')"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	Attempts       int        `json:"attempts"        gorm:"type:INTEGER NOT NULL;default:0"`
	LastError      string     `json:"last_error,omitempty" gorm:"type:TEXT"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for QueueItem.
func (QueueItem) TableName() string { return "send_queue" }
