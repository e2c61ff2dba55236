// Package attempts tracks failed login and passcode attempts per user and
// turns the count into an escalating lockout.
//
// Records are read, incremented in memory by the caller, then written back.
// The read and the write are separate cache calls, so two concurrent failures
// for the same user can lose an increment.
package attempts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-account/pkg/cache"
	"github.com/tendant/simple-account/pkg/errors"
)

// Namespace is the cache key prefix for attempt records.
const Namespace = "user-login-attempts"

// DefaultTTL applies to records that carry no block period.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultMinAttemptsToBlock is the failure count at which lockout starts.
const DefaultMinAttemptsToBlock = 3

// BlockPeriod is the lockout length stored on a record. BlockNone means the
// record is not blocked.
type BlockPeriod string

const (
	BlockNone BlockPeriod = ""
	Block1m   BlockPeriod = "1m"
	Block5m   BlockPeriod = "5m"
	Block15m  BlockPeriod = "15m"
	Block30m  BlockPeriod = "30m"
)

// Operation names the check that failed.
type Operation string

const (
	OperationLogin            Operation = "login"
	OperationValidatePasscode Operation = "validatePasscode"
)

// Record is the stored attempt state of one user.
type Record struct {
	Attempts            int         `json:"attempts"`
	AttemptsBlockPeriod BlockPeriod `json:"attemptsBlockPeriod,omitempty"`
}

// Blocked reports whether the record carries an active block period.
func (r Record) Blocked() bool {
	return r.AttemptsBlockPeriod != BlockNone
}

// Increment returns a copy with one more attempt.
func (r Record) Increment() Record {
	r.Attempts++
	return r
}

type step struct {
	threshold int
	period    BlockPeriod
	duration  time.Duration
}

// steps must stay sorted by threshold.
var steps = []step{
	{0, Block1m, time.Minute},
	{3, Block5m, 5 * time.Minute},
	{6, Block15m, 15 * time.Minute},
	{10, Block30m, 30 * time.Minute},
}

// BlockPeriodFor maps a failure count to a lockout. tries must be at least
// minBlock; the step is chosen on tries-minBlock using the greatest threshold
// not above it.
func BlockPeriodFor(tries, minBlock int) (BlockPeriod, time.Duration, error) {
	if tries < minBlock {
		return BlockNone, 0, errors.InvalidArgument(
			fmt.Sprintf("tries must be integer and >= %d, got %d", minBlock, tries))
	}
	relative := tries - minBlock
	selected := steps[0]
	for _, s := range steps {
		if relative < s.threshold {
			break
		}
		selected = s
	}
	return selected.period, selected.duration, nil
}

// Ledger persists attempt records in a cache namespace.
type Ledger struct {
	cache    cache.Cache
	minBlock int
}

// NewLedger namespaces c under Namespace. minBlock below 1 falls back to DefaultMinAttemptsToBlock.
func NewLedger(c cache.Cache, minBlock int) *Ledger {
	if minBlock < 1 {
		minBlock = DefaultMinAttemptsToBlock
	}
	return &Ledger{
		cache:    cache.Prefixed(c, Namespace),
		minBlock: minBlock,
	}
}

// BlockPeriodFor applies the ledger's threshold to BlockPeriodFor.
func (l *Ledger) BlockPeriodFor(tries int) (BlockPeriod, time.Duration, error) {
	return BlockPeriodFor(tries, l.minBlock)
}

// GetAttempts returns the stored record or the zero record.
func (l *Ledger) GetAttempts(ctx context.Context, userID uuid.UUID) (Record, error) {
	raw, ok, err := l.cache.Get(ctx, userID.String())
	if err != nil {
		return Record{}, fmt.Errorf("failed to get attempts for user %s: %w", userID, err)
	}
	if !ok {
		return Record{}, nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.Warn("Discarding unreadable attempts record", "userId", userID, "err", err)
		return Record{}, nil
	}
	return rec, nil
}

// SetAttempts overwrites the record. A zero ttl means DefaultTTL.
func (l *Ledger) SetAttempts(ctx context.Context, userID uuid.UUID, rec Record, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode attempts record: %w", err)
	}
	if err := l.cache.Set(ctx, userID.String(), string(data), ttl); err != nil {
		return fmt.Errorf("failed to set attempts for user %s: %w", userID, err)
	}
	return nil
}

// DeleteAttempts clears the record. Clearing an absent record is not an error.
func (l *Ledger) DeleteAttempts(ctx context.Context, userID uuid.UUID) error {
	if _, err := l.cache.Delete(ctx, userID.String()); err != nil {
		return fmt.Errorf("failed to delete attempts for user %s: %w", userID, err)
	}
	return nil
}

// ClassifyFailure persists an already incremented record and returns the error
// the caller should surface. At or above the threshold the record gets a block
// period and expires with it; below it the record keeps DefaultTTL. The write
// completes before the error is returned.
func (l *Ledger) ClassifyFailure(ctx context.Context, userID uuid.UUID, op Operation, rec Record) error {
	if rec.Attempts >= l.minBlock {
		period, ttl, err := l.BlockPeriodFor(rec.Attempts)
		if err != nil {
			return err
		}
		rec.AttemptsBlockPeriod = period
		if err := l.SetAttempts(ctx, userID, rec, ttl); err != nil {
			return errors.InternalWrap(err, "failed to record attempt")
		}
		slog.Info("User blocked after failed attempts", "userId", userID, "operation", op, "attempts", rec.Attempts, "period", period)
		return errors.ExceededAttempts(string(period))
	}

	if err := l.SetAttempts(ctx, userID, rec, 0); err != nil {
		return errors.InternalWrap(err, "failed to record attempt")
	}
	if op == OperationLogin {
		return errors.InvalidCredentials()
	}
	return errors.InvalidPasscode()
}
