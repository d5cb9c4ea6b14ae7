// Package ledger holds the authoritative in-memory collection of expenses and
// persists it, as a whole, to a key-value store after every mutation.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// DefaultStorageKey is the key the ledger is stored under.
const DefaultStorageKey = "expenseTrackerData"

// PersistenceError reports that the ledger could not be written to or read
// from its store. The in-memory state remains valid when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "ledger " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Draft is the user supplied part of a new expense.
type Draft struct {
	Name     string
	Amount   float64
	Currency core.Currency
	Category string
}

// Ledger is safe for concurrent use; every operation runs to completion
// under a single lock.
type Ledger struct {
	mu         sync.Mutex
	store      storage.Store
	key        string
	records    []core.Expense
	categories map[string]struct{}
	catOrder   []string
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

type Option func(*Ledger)

// WithClock overrides the source of creation dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStorageKey changes the key the ledger is stored under.
func WithStorageKey(key string) Option {
	return func(l *Ledger) {
		if strings.TrimSpace(key) != "" {
			l.key = key
		}
	}
}

// WithCategories restricts Add to the given categories. Without it any
// non-empty category is accepted.
func WithCategories(categories ...string) Option {
	return func(l *Ledger) {
		for _, c := range categories {
			if c = strings.TrimSpace(c); c != "" {
				if l.categories == nil {
					l.categories = make(map[string]struct{})
				}
				if _, dup := l.categories[c]; !dup {
					l.categories[c] = struct{}{}
					l.catOrder = append(l.catOrder, c)
				}
			}
		}
	}
}

// New returns an empty ledger backed by store. Call Load to read existing data.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		key:    DefaultStorageKey,
		now:    time.Now,
		newID:  newID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// newID returns a UUIDv7: a millisecond timestamp followed by random bits.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Add validates d, appends the resulting expense and saves the ledger.
//
// A *core.ValidationError means nothing was added. A *PersistenceError means
// the expense was added in memory but could not be saved.
func (l *Ledger) Add(ctx context.Context, d Draft) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := core.Expense{
		Name:      strings.TrimSpace(d.Name),
		Amount:    d.Amount,
		Currency:  d.Currency,
		Category:  strings.TrimSpace(d.Category),
		Date:      core.NewDate(now),
		Timestamp: now.UnixMilli(),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if l.categories != nil {
		if _, ok := l.categories[e.Category]; !ok {
			return core.Expense{}, &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
		}
	}
	e.ID = l.newID()

	l.records = append(l.records, e)
	l.logger.InfoContext(ctx, "Expense added",
		"id", e.ID,
		"name", e.Name,
		"amount", e.Amount,
		"currency", e.Currency,
		"category", e.Category)

	return e, l.save(ctx)
}

// Remove deletes the expense with the given id and reports whether it existed.
// The ledger is saved even when nothing was removed.
func (l *Ledger) Remove(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := false
	kept := l.records[:0:0]
	for _, e := range l.records {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	l.records = kept

	if removed {
		l.logger.InfoContext(ctx, "Expense removed", "id", id)
	}
	return removed, l.save(ctx)
}

// Clear removes every expense and returns how many there were.
func (l *Ledger) Clear(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.records)
	l.records = nil
	l.logger.InfoContext(ctx, "Ledger cleared", "removed", n)
	return n, l.save(ctx)
}

// Load replaces the in-memory state with the stored ledger. Missing,
// unreadable or malformed data leaves the ledger empty; failures are logged
// and never returned.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = nil
	data, err := l.store.Get(ctx, l.key)
	if errors.Is(err, storage.ErrNotFound) {
		l.logger.InfoContext(ctx, "No stored ledger, starting empty", "key", l.key)
		return
	}
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to read ledger, starting empty", "key", l.key, "error", err)
		return
	}

	var records []core.Expense
	if err := json.Unmarshal(data, &records); err != nil {
		l.logger.ErrorContext(ctx, "Stored ledger is malformed, starting empty", "key", l.key, "error", err)
		return
	}
	for i := range records {
		records[i].Currency = records[i].Currency.OrDefault()
	}
	l.records = records
	l.logger.InfoContext(ctx, "Ledger loaded", "key", l.key, "count", len(records))
}

// Save writes the full ledger to the store.
func (l *Ledger) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx)
}

func (l *Ledger) save(ctx context.Context) error {
	records := l.records
	if records == nil {
		records = []core.Expense{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		l.logger.ErrorContext(ctx, "Failed to save ledger", "key", l.key, "count", len(records), "error", err)
		return &PersistenceError{Op: "save", Err: fmt.Errorf("write %s: %w", l.key, err)}
	}
	return nil
}

// All returns a copy of every expense in insertion order.
func (l *Ledger) All() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Expense, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of expenses.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Categories returns the configured categories in the order given, or nil
// when categories are free text.
func (l *Ledger) Categories() []string {
	if l.catOrder == nil {
		return nil
	}
	return append([]string(nil), l.catOrder...)
}
