package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// failingStore lets tests switch reads and writes into error mode.
type failingStore struct {
	*storage.MemoryStore
	getErr error
	setErr error
	sets   int
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func newFailingStore() *failingStore {
	return &failingStore{MemoryStore: storage.NewMemoryStore()}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// steppingClock returns a clock advancing by one millisecond per call.
func steppingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func newTestLedger(store storage.Store, opts ...Option) *Ledger {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(store, opts...)
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(storage.NewMemoryStore())

	const n = 200
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		e, err := l.Add(ctx, Draft{Name: fmt.Sprintf("item %d", i), Amount: 1, Currency: core.USD, Category: "Food"})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if e.ID == "" || seen[e.ID] {
			t.Fatalf("duplicate or empty id %q at %d", e.ID, i)
		}
		seen[e.ID] = true
	}
	if l.Len() != n {
		t.Fatalf("expected %d records, got %d", n, l.Len())
	}
}

func TestAddSetsDateAndTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 30, 23, 30, 0, 0, time.UTC)
	l := newTestLedger(storage.NewMemoryStore(),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { return "fixed" }))

	e, err := l.Add(context.Background(), Draft{Name: "  Coffee ", Amount: 4.5, Currency: core.USD, Category: " Food "})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID != "fixed" || e.Name != "Coffee" || e.Category != "Food" {
		t.Fatalf("unexpected record %+v", e)
	}
	if e.Date.String() != "2025-06-30" || e.Timestamp != now.UnixMilli() {
		t.Fatalf("unexpected date/timestamp: %s %d", e.Date, e.Timestamp)
	}
}

func TestAddValidation(t *testing.T) {
	store := newFailingStore()
	l := newTestLedger(store, WithCategories("Food", "Leisure"))

	cases := []struct {
		name string
		d    Draft
		want error
	}{
		{"empty name", Draft{Name: " ", Amount: 1, Currency: core.USD, Category: "Food"}, core.ErrEmptyName},
		{"zero amount", Draft{Name: "a", Amount: 0, Currency: core.USD, Category: "Food"}, core.ErrInvalidAmount},
		{"negative amount", Draft{Name: "a", Amount: -1, Currency: core.USD, Category: "Food"}, core.ErrInvalidAmount},
		{"bad currency", Draft{Name: "a", Amount: 1, Currency: "BTC", Category: "Food"}, core.ErrUnsupportedCurrency},
		{"empty category", Draft{Name: "a", Amount: 1, Currency: core.USD}, core.ErrEmptyCategory},
		{"unknown category", Draft{Name: "a", Amount: 1, Currency: core.USD, Category: "Travel"}, core.ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Add(context.Background(), tc.d)
			var verr *core.ValidationError
			if !errors.As(err, &verr) || !errors.Is(err, tc.want) {
				t.Fatalf("expected validation error %v, got %v", tc.want, err)
			}
		})
	}
	if l.Len() != 0 {
		t.Fatalf("rejected drafts must not be added, got %d", l.Len())
	}
	if store.sets != 0 {
		t.Fatalf("rejected drafts must not trigger persistence, got %d writes", store.sets)
	}
}

func TestFreeTextCategories(t *testing.T) {
	l := newTestLedger(storage.NewMemoryStore())
	if l.Categories() != nil {
		t.Fatalf("expected no category restriction")
	}
	if _, err := l.Add(context.Background(), Draft{Name: "a", Amount: 1, Currency: core.EUR, Category: "Anything"}); err != nil {
		t.Fatalf("free text category should be accepted: %v", err)
	}

	restricted := newTestLedger(storage.NewMemoryStore(), WithCategories("Food", " ", "Bills", "Food"))
	got := restricted.Categories()
	if len(got) != 2 || got[0] != "Food" || got[1] != "Bills" {
		t.Fatalf("unexpected categories %v", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	l := newTestLedger(store)

	e, _ := l.Add(ctx, Draft{Name: "Book", Amount: 15, Currency: core.USD, Category: "Leisure"})
	keep, _ := l.Add(ctx, Draft{Name: "Tea", Amount: 3, Currency: core.GBP, Category: "Food"})

	removed, err := l.Remove(ctx, e.ID)
	if err != nil || !removed {
		t.Fatalf("first remove: removed=%v err=%v", removed, err)
	}
	removed, err = l.Remove(ctx, e.ID)
	if err != nil || removed {
		t.Fatalf("second remove should be a no-op: removed=%v err=%v", removed, err)
	}
	all := l.All()
	if len(all) != 1 || all[0].ID != keep.ID {
		t.Fatalf("unexpected remaining records %+v", all)
	}
	if store.sets != 4 {
		t.Fatalf("every mutation must persist, got %d writes", store.sets)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(storage.NewMemoryStore())
	for i := 0; i < 3; i++ {
		l.Add(ctx, Draft{Name: "x", Amount: 1, Currency: core.USD, Category: "c"})
	}
	n, err := l.Clear(ctx)
	if err != nil || n != 3 {
		t.Fatalf("clear: n=%d err=%v", n, err)
	}
	if n, _ := l.Clear(ctx); n != 0 {
		t.Fatalf("clearing an empty ledger should report 0, got %d", n)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := newTestLedger(store, WithClock(steppingClock(time.Now())))

	l.Add(ctx, Draft{Name: "Coffee", Amount: 4.5, Currency: core.USD, Category: "Food"})
	l.Add(ctx, Draft{Name: "Croissant", Amount: 2.2, Currency: core.EUR, Category: "Food"})
	l.Add(ctx, Draft{Name: "Ramen", Amount: 1200, Currency: core.JPY, Category: "Food"})
	if err := l.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := newTestLedger(store)
	reloaded.Load(ctx)

	want, got := l.All(), reloaded.All()
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Amount != want[i].Amount || got[i].Currency != want[i].Currency ||
			got[i].Timestamp != want[i].Timestamp || got[i].Date.String() != want[i].Date.String() {
			t.Fatalf("record %d differs:\n got %+v\nwant %+v", i, got[i], want[i])
		}
	}
}

func TestLoadDefaultsMissingCurrency(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	legacy := `[{"id":"a","name":"Old","amount":10,"category":"Food","date":"2024-01-01","timestamp":1704067200000},
	            {"id":"b","name":"New","amount":5,"currency":"EUR","category":"Food","date":"2024-01-02","timestamp":1704153600000}]`
	store.Set(ctx, DefaultStorageKey, []byte(legacy))

	l := newTestLedger(store)
	l.Load(ctx)
	all := l.All()
	if len(all) != 2 || all[0].Currency != core.USD || all[1].Currency != core.EUR {
		t.Fatalf("unexpected currencies after load: %+v", all)
	}
}

func TestLoadRecoversToEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		l := newTestLedger(storage.NewMemoryStore())
		l.Load(ctx)
		if l.Len() != 0 {
			t.Fatalf("expected empty ledger")
		}
	})

	t.Run("malformed content", func(t *testing.T) {
		store := storage.NewMemoryStore()
		l := newTestLedger(store)
		l.Add(ctx, Draft{Name: "x", Amount: 1, Currency: core.USD, Category: "c"})
		store.Set(ctx, DefaultStorageKey, []byte(`{"not":"an array"`))
		l.Load(ctx)
		if l.Len() != 0 {
			t.Fatalf("malformed data must reset the ledger, got %d", l.Len())
		}
	})

	t.Run("unreadable store", func(t *testing.T) {
		store := newFailingStore()
		store.getErr = storage.ErrUnavailable
		l := newTestLedger(store)
		l.Load(ctx)
		if l.Len() != 0 {
			t.Fatalf("expected empty ledger")
		}
	})
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	store.setErr = storage.ErrStoreFull
	l := newTestLedger(store)

	e, err := l.Add(ctx, Draft{Name: "Coffee", Amount: 4.5, Currency: core.USD, Category: "Food"})
	var perr *PersistenceError
	if !errors.As(err, &perr) || !errors.Is(err, storage.ErrStoreFull) {
		t.Fatalf("expected PersistenceError wrapping ErrStoreFull, got %v", err)
	}
	if e.ID == "" || l.Len() != 1 {
		t.Fatalf("expense must be kept in memory after a failed save")
	}

	removed, err := l.Remove(ctx, e.ID)
	if !removed || !errors.As(err, &perr) {
		t.Fatalf("remove should apply and report the save failure: removed=%v err=%v", removed, err)
	}

	store.setErr = nil
	if err := l.Save(ctx); err != nil {
		t.Fatalf("save after recovery: %v", err)
	}
}

func TestStorageKey(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := newTestLedger(store, WithStorageKey("custom"))
	l.Add(ctx, Draft{Name: "x", Amount: 1, Currency: core.USD, Category: "c"})

	if _, err := store.Get(ctx, "custom"); err != nil {
		t.Fatalf("expected data under custom key: %v", err)
	}
	if _, err := store.Get(ctx, DefaultStorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("default key should be untouched, got %v", err)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	l := newTestLedger(storage.NewMemoryStore())
	l.Add(context.Background(), Draft{Name: "x", Amount: 1, Currency: core.USD, Category: "c"})
	all := l.All()
	all[0].Name = "mutated"
	if l.All()[0].Name != "x" {
		t.Fatalf("All must not expose internal state")
	}
}
