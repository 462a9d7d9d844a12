// Package mail abstracts the outbound email channel. The send pipeline only
// needs two capabilities: deliver one message, and report how many messages
// the underlying provider will still accept today. The provider's own daily
// ceiling is independent of the product's credit cap; the credit service
// takes the minimum of the two.
package mail

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the outbound channel consumed by the send pipeline.
// Implementations must be safe for concurrent use.
type Mailer interface {
	// Send delivers a single message.
	Send(ctx context.Context, msg Message) error

	// RemainingQuota reports how many more messages the provider will
	// accept in the current day. Unlimited providers return a large value.
	RemainingQuota(ctx context.Context) (int, error)
}

// MemoryMailer records messages in memory. Used in tests and local runs.
// Quota counts down per send; RejectTo simulates per-recipient failures.
type MemoryMailer struct {
	mu       sync.Mutex
	sent     []Message
	quota    int
	RejectTo map[string]bool
}

// NewMemoryMailer returns a MemoryMailer with the given daily quota.
func NewMemoryMailer(quota int) *MemoryMailer {
	return &MemoryMailer{quota: quota, RejectTo: make(map[string]bool)}
}

// Send implements Mailer.
func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RejectTo[msg.To] {
		return fmt.Errorf("recipient rejected: %s", msg.To)
	}
	if m.quota <= 0 {
		return errors.New("daily quota exhausted")
	}
	m.quota--
	m.sent = append(m.sent, msg)
	return nil
}

// RemainingQuota implements Mailer.
func (m *MemoryMailer) RemainingQuota(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quota, nil
}

// Sent returns a copy of the messages delivered so far.
func (m *MemoryMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
