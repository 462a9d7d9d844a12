// Package services – SendService
//
// The send pipeline drains queued items under the credit budget: it reserves
// credits for the batch, performs the sends outside the lock, and commits
// the true sent count afterwards so a partial failure still settles the
// reservation correctly. Queue rows move queued → sending → sent, or to
// failed with the error recorded for a later requeue.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tventures02/loi-automater/internal/document"
	"github.com/tventures02/loi-automater/internal/domain"
	"github.com/tventures02/loi-automater/internal/mail"
	"github.com/tventures02/loi-automater/internal/repo"
)

// DefaultSendSubject is used when no subject pattern is configured.
const DefaultSendSubject = "Your document: {{name}}"

// SendRequest bounds one send run.
type SendRequest struct {
	// Limit caps how many queued items to attempt; 0 means all queued.
	Limit int `json:"limit"`
	// IsPremium and FreeDailyCap resolve the user's credit cap.
	IsPremium    bool `json:"is_premium"`
	FreeDailyCap int  `json:"free_daily_cap"`
}

// SendItemStatus is the per-item outcome of a send run.
type SendItemStatus struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SendSummary aggregates a send run.
type SendSummary struct {
	Requested int              `json:"requested"`
	Granted   int              `json:"granted"`
	Sent      int              `json:"sent"`
	Failed    int              `json:"failed"`
	Used      int              `json:"used"`
	Reserved  int              `json:"reserved"`
	Items     []SendItemStatus `json:"items"`
}

// SendService drains the queue through the mail channel.
type SendService struct {
	DB      *gorm.DB
	Credits *CreditService
	Mailer  mail.Mailer

	// Subject is the message subject pattern; {{name}} expands to the
	// document name. Empty means DefaultSendSubject.
	Subject string
}

// NewSendService constructs a SendService.
func NewSendService(db *gorm.DB, credits *CreditService, mailer mail.Mailer) *SendService {
	return &SendService{DB: db, Credits: credits, Mailer: mailer, Subject: DefaultSendSubject}
}

// Send reserves credits, attempts up to the granted number of queued items
// in FIFO order, and commits the result. The reservation is held only in
// the ledger, never as a lock across sends.
func (s *SendService) Send(ctx context.Context, userID string, req SendRequest) (SendSummary, error) {
	var summary SendSummary

	if !repo.QueueExists(s.DB) {
		return summary, ErrQueueMissing
	}

	items, err := repo.ListByStatus(ctx, s.DB, domain.StatusQueued, req.Limit)
	if err != nil {
		return summary, fmt.Errorf("list queued: %w", err)
	}
	summary.Requested = len(items)
	if len(items) == 0 {
		return summary, nil
	}

	grant, err := s.Credits.Reserve(ctx, userID, len(items), req.IsPremium, req.FreeDailyCap)
	if err != nil {
		return summary, err
	}
	summary.Granted = grant.Granted
	items = items[:grant.Granted]

	for i := range items {
		item := &items[i]
		if err := repo.MarkSending(ctx, s.DB, item.ID); err != nil {
			// Another invocation claimed this row first; it costs us
			// nothing and the unused credit is released at commit.
			summary.Items = append(summary.Items, SendItemStatus{ID: item.ID, Email: item.Email, Status: RowSkipped, Message: "already claimed"})
			continue
		}

		msg := mail.Message{
			To:      item.Email,
			Subject: s.subjectFor(ctx, item),
			Body:    item.DocURL,
		}
		if err := s.Mailer.Send(ctx, msg); err != nil {
			summary.Failed++
			summary.Items = append(summary.Items, SendItemStatus{ID: item.ID, Email: item.Email, Status: domain.StatusFailed, Message: err.Error()})
			if mErr := repo.MarkFailed(ctx, s.DB, item.ID, err.Error()); mErr != nil {
				log.Error().Err(mErr).Str("id", item.ID).Msg("mark failed")
			}
			continue
		}

		summary.Sent++
		summary.Items = append(summary.Items, SendItemStatus{ID: item.ID, Email: item.Email, Status: domain.StatusSent})
		if mErr := repo.MarkSent(ctx, s.DB, item.ID, s.Credits.clock()); mErr != nil {
			log.Error().Err(mErr).Str("id", item.ID).Msg("mark sent")
		}
	}

	// Exactly one commit per grant, whatever the sends did.
	used, reserved, err := s.Credits.Commit(ctx, userID, grant.Granted, summary.Sent)
	if err != nil {
		return summary, err
	}
	summary.Used = used
	summary.Reserved = reserved
	return summary, nil
}

// subjectFor expands the subject pattern for one item. The rendered document
// name travels with the document row, not the queue row, so the pattern is
// filled from the document store when a doc id is present.
func (s *SendService) subjectFor(ctx context.Context, item *domain.QueueItem) string {
	pattern := s.Subject
	if pattern == "" {
		pattern = DefaultSendSubject
	}
	name := item.ID
	if item.DocID != "" {
		if doc, err := repo.GetDocument(ctx, s.DB, item.DocID); err == nil {
			name = doc.Name
		}
	}
	return document.SubstitutePattern(pattern, map[string]string{"name": name})
}
