// Package services – CreditService
//
// The credit ledger governs how many messages a user may send per calendar
// day. Counters (used, reserved) live in one durable row per user; every
// mutation happens inside the user's lock as a single read-normalize-write
// cycle. Normalization is lazy: a row whose stored day differs from "today"
// in the configured timezone is reset on the spot, and a reservation older
// than the TTL with no commit is reclaimed as abandoned. There is no
// background sweep.
//
// Reservation is deliberately decoupled in time from sending: callers
// reserve, send outside the lock, then commit the true sent count. The lock
// is held only for the ledger cycle itself, never across network sends.
package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tventures02/loi-automater/internal/domain"
	"github.com/tventures02/loi-automater/internal/lock"
	"github.com/tventures02/loi-automater/internal/mail"
	"github.com/tventures02/loi-automater/internal/repo"
)

// Plan names reported in grants and snapshots.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// UnlimitedCap stands in for "no daily cap" on premium accounts. Large
// enough that the arithmetic below never exhausts it, small enough that
// int math never overflows.
const UnlimitedCap = math.MaxInt32

// Defaults for the lock wait and the stale-reservation TTL.
const (
	DefaultLockWait   = 10 * time.Second
	DefaultReserveTTL = 15 * time.Minute
)

// Grant is the outcome of a reservation attempt. Granted may be less than
// the ask (partial grant) or zero; callers must send at most Granted.
type Grant struct {
	Plan    string `json:"plan"`
	Cap     int    `json:"cap"`
	Today   string `json:"today"`
	Used    int    `json:"used"`
	Granted int    `json:"granted"`
}

// CreditState is a read-only snapshot of a user's budget, folded together
// with the mail provider's own remaining daily quota. The effective ceiling
// is always the more restrictive of the product cap and the provider quota.
type CreditState struct {
	Plan                string `json:"plan"`
	Cap                 int    `json:"cap"`
	Today               string `json:"today"`
	UsedToday           int    `json:"used_today"`
	Reserved            int    `json:"reserved"`
	ProviderQuota       int    `json:"provider_quota"`
	CreditsLeftPlan     int    `json:"credits_left_plan"`
	CreditsAvailableNow int    `json:"credits_available_now"`
	CreditsLeft         int    `json:"credits_left"`
}

// CreditService owns all ledger mutations.
type CreditService struct {
	DB     *gorm.DB
	Locker lock.Locker
	Mailer mail.Mailer

	// LockWait bounds lock acquisition; 0 means DefaultLockWait.
	LockWait time.Duration
	// ReserveTTL ages out abandoned reservations; 0 means DefaultReserveTTL.
	ReserveTTL time.Duration
	// Location fixes the calendar day; nil means UTC.
	Location *time.Location

	// now is a test seam for the clock.
	now func() time.Time
}

// NewCreditService constructs a CreditService with default lock wait and TTL.
func NewCreditService(db *gorm.DB, locker lock.Locker, mailer mail.Mailer, loc *time.Location) *CreditService {
	return &CreditService{
		DB:         db,
		Locker:     locker,
		Mailer:     mailer,
		LockWait:   DefaultLockWait,
		ReserveTTL: DefaultReserveTTL,
		Location:   loc,
		now:        time.Now,
	}
}

func (s *CreditService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *CreditService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *CreditService) lockWait() time.Duration {
	if s.LockWait > 0 {
		return s.LockWait
	}
	return DefaultLockWait
}

func (s *CreditService) reserveTTL() time.Duration {
	if s.ReserveTTL > 0 {
		return s.ReserveTTL
	}
	return DefaultReserveTTL
}

// dateKey renders a time as the calendar day in the account timezone.
func (s *CreditService) dateKey(t time.Time) string {
	return t.In(s.location()).Format("2006-01-02")
}

// capFor resolves the daily cap for a plan.
func capFor(isPremium bool, freeDailyCap int) (plan string, cap int) {
	if isPremium {
		return PlanPremium, UnlimitedCap
	}
	if freeDailyCap < 0 {
		freeDailyCap = 0
	}
	return PlanFree, freeDailyCap
}

// acquire wraps the locker and maps its timeout to ErrBusy.
func (s *CreditService) acquire(userID string) (func(), error) {
	release, err := s.Locker.Acquire("credits:"+userID, s.lockWait())
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, ErrBusy
		}
		return nil, err
	}
	return release, nil
}

// loadNormalized reads the user's ledger row and applies lazy normalization:
// day rollover resets both counters before any other logic runs, and a
// reservation past the TTL is reclaimed. Must be called under the lock.
func (s *CreditService) loadNormalized(ctx context.Context, userID string, now time.Time) (*domain.CreditLedger, error) {
	today := s.dateKey(now)
	row, err := repo.GetLedger(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return &domain.CreditLedger{UserID: userID, DateKey: today}, nil
	}
	if err != nil {
		return nil, err
	}

	if row.DateKey != today {
		row.DateKey = today
		row.Used = 0
		row.Reserved = 0
		row.ReservedAt = nil
		return row, nil
	}
	if row.Reserved > 0 && (row.ReservedAt == nil || now.Sub(*row.ReservedAt) > s.reserveTTL()) {
		// Abandoned hold: no commit arrived within the TTL.
		row.Reserved = 0
		row.ReservedAt = nil
	}
	return row, nil
}

// Reserve places a provisional hold on up to ask credits for today.
// The grant never exceeds cap - used - reserved and may be zero.
func (s *CreditService) Reserve(ctx context.Context, userID string, ask int, isPremium bool, freeDailyCap int) (Grant, error) {
	release, err := s.acquire(userID)
	if err != nil {
		return Grant{}, err
	}
	defer release()

	now := s.clock()
	row, err := s.loadNormalized(ctx, userID, now)
	if err != nil {
		return Grant{}, err
	}

	plan, cap := capFor(isPremium, freeDailyCap)
	remaining := cap - row.Used - row.Reserved
	if remaining < 0 {
		remaining = 0
	}
	granted := ask
	if granted > remaining {
		granted = remaining
	}
	if granted < 0 {
		granted = 0
	}

	if granted > 0 {
		row.Reserved += granted
		ts := now.UTC()
		row.ReservedAt = &ts
	}
	if err := repo.PutLedger(ctx, s.DB, row); err != nil {
		return Grant{}, err
	}

	return Grant{Plan: plan, Cap: cap, Today: row.DateKey, Used: row.Used, Granted: granted}, nil
}

// Commit settles a reservation: used grows by the true sent count and the
// whole granted hold is released, clamped so reserved never goes negative
// even on a double commit. Must be called exactly once per grant, including
// partial and zero-send outcomes.
func (s *CreditService) Commit(ctx context.Context, userID string, granted, sent int) (used, reserved int, err error) {
	release, err := s.acquire(userID)
	if err != nil {
		return 0, 0, err
	}
	defer release()

	now := s.clock()
	row, err := s.loadNormalized(ctx, userID, now)
	if err != nil {
		return 0, 0, err
	}

	if sent > 0 {
		row.Used += sent
	}
	if granted > 0 {
		row.Reserved -= granted
	}
	if row.Reserved < 0 {
		row.Reserved = 0
	}
	if row.Reserved == 0 {
		row.ReservedAt = nil
	}
	if err := repo.PutLedger(ctx, s.DB, row); err != nil {
		return 0, 0, err
	}
	return row.Used, row.Reserved, nil
}

// Snapshot reports the user's current budget. It takes the lock so it never
// races the normalization logic, persists any normalization it performed,
// and folds in the mail provider's remaining daily quota.
func (s *CreditService) Snapshot(ctx context.Context, userID string, isPremium bool, freeDailyCap int) (CreditState, error) {
	release, err := s.acquire(userID)
	if err != nil {
		return CreditState{}, err
	}
	defer release()

	now := s.clock()
	row, err := s.loadNormalized(ctx, userID, now)
	if err != nil {
		return CreditState{}, err
	}
	if err := repo.PutLedger(ctx, s.DB, row); err != nil {
		return CreditState{}, err
	}

	quota, err := s.Mailer.RemainingQuota(ctx)
	if err != nil {
		return CreditState{}, err
	}

	plan, cap := capFor(isPremium, freeDailyCap)
	leftPlan := clampNonNegative(cap - row.Used)
	availableNow := clampNonNegative(cap - row.Used - row.Reserved)

	return CreditState{
		Plan:                plan,
		Cap:                 cap,
		Today:               row.DateKey,
		UsedToday:           row.Used,
		Reserved:            row.Reserved,
		ProviderQuota:       quota,
		CreditsLeftPlan:     leftPlan,
		CreditsAvailableNow: minInt(quota, availableNow),
		CreditsLeft:         minInt(quota, leftPlan),
	}, nil
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
