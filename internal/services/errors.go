// Package services defines the business logic for preflight, document
// generation, the send queue, and the credit ledger. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrBusy is returned when the per-user credit lock could not be
	// acquired within its wait bound: another send is in progress and the
	// caller should retry shortly.
	ErrBusy = errors.New("another send is in progress")

	// ErrNoEmailColumn is returned when neither the email column field nor
	// the mapping's __email entry names a recipient column.
	ErrNoEmailColumn = errors.New("no email column mapped")

	// ErrNoTemplate is returned when a generate request carries no
	// template id.
	ErrNoTemplate = errors.New("no template selected")

	// ErrQueueMissing indicates the send queue table does not exist where
	// an operation requires it.
	ErrQueueMissing = errors.New("send queue does not exist")
)
