package quota

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultDailyLimit is applied to accounts registered without an explicit limit.
const DefaultDailyLimit = 1_000_000

const dateLayout = "2006-01-02"

// Account holds token accounting for one billing account.
type Account struct {
	DailyLimit int64 `json:"daily_limit"`
	DailyUsage int64 `json:"daily_usage"`
	TotalUsage int64 `json:"total_usage"`
}

// AccountSummary is a read-only projection of one account's usage.
type AccountSummary struct {
	ID          string  `json:"id"`
	DailyLimit  int64   `json:"daily_limit"`
	DailyUsage  int64   `json:"daily_usage"`
	Remaining   int64   `json:"remaining"`
	PercentUsed float64 `json:"percent_used"`
	TotalUsage  int64   `json:"total_usage"`
}

// ledgerState is the persisted document shape.
type ledgerState struct {
	Accounts    map[string]*Account `json:"accounts"`
	LastUpdated string              `json:"last_updated"`
}

// Ledger tracks per-account usage with daily rollover. Every mutation is
// persisted through the store before it returns, so a crash loses at most
// the in-flight operation.
type Ledger struct {
	mu     sync.Mutex
	state  ledgerState
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger loads persisted state from the store, or starts empty when the
// store has no document yet.
func NewLedger(store Store, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Ledger{
		store:  store,
		logger: logger,
		now:    time.Now,
	}

	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	if state.Accounts == nil {
		state.Accounts = make(map[string]*Account)
	}
	if state.LastUpdated == "" {
		state.LastUpdated = l.now().Format(dateLayout)
	}
	l.state = state

	return l, nil
}

// Register creates the account with zero usage if absent, otherwise updates
// only its daily limit. Idempotent.
func (l *Ledger) Register(accountID string, dailyLimit int64) error {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if acc, ok := l.state.Accounts[accountID]; ok {
		acc.DailyLimit = dailyLimit
	} else {
		l.state.Accounts[accountID] = &Account{DailyLimit: dailyLimit}
	}

	return l.save()
}

// ResetIfNewDay zeroes every account's daily usage when the stored date
// differs from the current date. Must run before any read that drives
// scheduling so stale counters never leak across a day boundary.
func (l *Ledger) ResetIfNewDay() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetIfNewDayLocked()
}

func (l *Ledger) resetIfNewDayLocked() error {
	today := l.now().Format(dateLayout)
	if today == l.state.LastUpdated {
		return nil
	}

	l.logger.Info("New day detected, resetting daily token counters",
		slog.String("previous_date", l.state.LastUpdated),
		slog.String("current_date", today),
	)
	for _, acc := range l.state.Accounts {
		acc.DailyUsage = 0
	}
	l.state.LastUpdated = today

	return l.save()
}

// RecordUsage adds tokens to the account's daily and lifetime counters.
// Unknown accounts are auto-registered with the default limit. Overage past
// the daily limit is recorded, not rejected; enforcement happens at
// selection time.
func (l *Ledger) RecordUsage(accountID string, tokens int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.state.Accounts[accountID]
	if !ok {
		acc = &Account{DailyLimit: DefaultDailyLimit}
		l.state.Accounts[accountID] = acc
	}

	acc.DailyUsage += tokens
	acc.TotalUsage += tokens

	return l.save()
}

// Usage returns the daily and total counters for one account.
func (l *Ledger) Usage(accountID string) (daily, total int64, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, found := l.state.Accounts[accountID]
	if !found {
		return 0, 0, false
	}
	return acc.DailyUsage, acc.TotalUsage, true
}

// Lookup returns a snapshot of one account.
func (l *Ledger) Lookup(accountID string) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, found := l.state.Accounts[accountID]
	if !found {
		return Account{}, false
	}
	return *acc, true
}

// Summary returns a usage projection for every registered account.
func (l *Ledger) Summary() []AccountSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.resetIfNewDayLocked(); err != nil {
		l.logger.Warn("Daily reset during summary failed", slog.String("error", err.Error()))
	}

	out := make([]AccountSummary, 0, len(l.state.Accounts))
	for id, acc := range l.state.Accounts {
		percent := 0.0
		if acc.DailyLimit > 0 {
			percent = float64(acc.DailyUsage) / float64(acc.DailyLimit) * 100
		}
		out = append(out, AccountSummary{
			ID:          id,
			DailyLimit:  acc.DailyLimit,
			DailyUsage:  acc.DailyUsage,
			Remaining:   acc.DailyLimit - acc.DailyUsage,
			PercentUsed: percent,
			TotalUsage:  acc.TotalUsage,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// save persists the full ledger document. Callers must hold the mutex.
func (l *Ledger) save() error {
	if err := l.store.Save(l.state); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}
