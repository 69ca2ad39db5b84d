package quota

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoneAvailable indicates every listed account is at or over its daily
// limit. Terminal for the current run; capacity returns only with the next
// day rollover.
var ErrNoneAvailable = errors.New("no account with available token quota")

// Scheduler picks the account that serves a run. The caller-supplied id
// order is a priority order, not round-robin.
type Scheduler struct {
	ledger     *Ledger
	dailyLimit int64
	logger     *slog.Logger
}

// NewScheduler creates a scheduler over the given ledger. dailyLimit is
// applied when auto-registering accounts the ledger has not seen.
func NewScheduler(ledger *Ledger, dailyLimit int64, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		ledger:     ledger,
		dailyLimit: dailyLimit,
		logger:     logger,
	}
}

// Select returns the first account in priority order with remaining daily
// quota. Accounts absent from the ledger are auto-registered and returned
// immediately. Returns ErrNoneAvailable when every account is exhausted.
func (s *Scheduler) Select(accountIDs []string) (string, error) {
	if len(accountIDs) == 0 {
		return "", fmt.Errorf("%w: no account ids supplied", ErrNoneAvailable)
	}

	if err := s.ledger.ResetIfNewDay(); err != nil {
		return "", err
	}

	for _, id := range accountIDs {
		acc, ok := s.ledger.Lookup(id)
		if !ok {
			if err := s.ledger.Register(id, s.dailyLimit); err != nil {
				return "", err
			}
			s.logger.Debug("Auto-registered account", slog.String("account", id))
			return id, nil
		}

		if acc.DailyUsage < acc.DailyLimit {
			return id, nil
		}
		s.logger.Debug("Account over daily limit, skipping",
			slog.String("account", id),
			slog.Int64("daily_usage", acc.DailyUsage),
			slog.Int64("daily_limit", acc.DailyLimit),
		)
	}

	return "", ErrNoneAvailable
}
