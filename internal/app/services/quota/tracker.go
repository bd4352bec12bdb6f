// Package quota enforces the daily meme-generation limits and the rotating
// asset-selection policy.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/shabikihub/shabiki/internal/app/storage"
	"github.com/shabikihub/shabiki/pkg/logger"
)

// dayFormat is the calendar-day key used for all day-scoped documents.
const dayFormat = "2006-01-02"

// Limits configures the daily budgets. Values come from configuration, not
// hard-coded constants, and are echoed back in status responses.
type Limits struct {
	Global   int
	PerGuest int
}

// Status is the read-only view of a guest's generation allowance. It does not
// reserve anything.
type Status struct {
	Date        string `json:"date"`
	GlobalCount int    `json:"globalCount"`
	GlobalLimit int    `json:"globalLimit"`
	UserCount   int    `json:"userCount"`
	UserLimit   int    `json:"userLimit"`
}

// Tracker coordinates the day-keyed quota and rotation documents behind the
// MetaStore. The clock is injected so day rollover is testable without
// wall-clock sleeps; state resets lazily on the first operation of a new UTC
// day because every store call carries the current day key.
type Tracker struct {
	meta     storage.MetaStore
	limits   Limits
	poolSize int
	now      func() time.Time
	log      *logger.Logger
}

// New creates a tracker over the given meta store.
func New(meta storage.MetaStore, limits Limits, poolSize int, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewDefault("quota")
	}
	if limits.Global <= 0 {
		limits.Global = 10
	}
	if limits.PerGuest <= 0 {
		limits.PerGuest = 1
	}
	return &Tracker{
		meta:     meta,
		limits:   limits,
		poolSize: poolSize,
		now:      time.Now,
		log:      log,
	}
}

// WithClock overrides the tracker clock. Intended for tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Limits returns the configured budgets.
func (t *Tracker) Limits() Limits {
	return t.limits
}

func (t *Tracker) day() string {
	return t.now().UTC().Format(dayFormat)
}

// CheckAndReserve checks both daily limits for the guest and, when allowed,
// consumes one unit in the same atomic step. It returns
// storage.ErrGlobalLimitReached or storage.ErrGuestLimitReached when a budget
// is exhausted.
func (t *Tracker) CheckAndReserve(ctx context.Context, guestID string) error {
	day := t.day()
	if err := t.meta.ReserveGeneration(ctx, day, guestID, t.limits.Global, t.limits.PerGuest); err != nil {
		return err
	}
	t.log.WithField("day", day).WithField("guest", guestID).Debug("generation slot reserved")
	return nil
}

// NextAsset picks the index of the next rotation-pool asset for today:
// lowest unused index first, round-robin once the pool is exhausted.
func (t *Tracker) NextAsset(ctx context.Context) (int, error) {
	if t.poolSize <= 0 {
		return 0, fmt.Errorf("no rotation pool configured")
	}
	return t.meta.NextAssetIndex(ctx, t.day(), t.poolSize)
}

// Status reports today's counters for the guest without reserving a slot.
func (t *Tracker) Status(ctx context.Context, guestID string) (Status, error) {
	gs, err := t.meta.GenerationStatus(ctx, t.day(), guestID)
	if err != nil {
		return Status{}, err
	}

	userCount := gs.GuestCount
	if userCount > t.limits.PerGuest {
		userCount = t.limits.PerGuest
	}
	return Status{
		Date:        gs.Day,
		GlobalCount: gs.GlobalCount,
		GlobalLimit: t.limits.Global,
		UserCount:   userCount,
		UserLimit:   t.limits.PerGuest,
	}, nil
}
