package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vacancybot/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "bot.db"),
		BusyTimeout: time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestUpsertSubscriberLifecycle(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.UpsertSubscriber(ctx, Subscriber{TelegramID: 111, Username: "alice", FirstName: "Alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	subs, err := st.ActiveSubscribers(ctx)
	if err != nil {
		t.Fatalf("ActiveSubscribers: %v", err)
	}
	if len(subs) != 1 || subs[0].TelegramID != 111 || subs[0].Username != "alice" {
		t.Fatalf("unexpected subscribers: %+v", subs)
	}

	// Re-subscribing with empty profile fields keeps the stored ones.
	if err := st.UpsertSubscriber(ctx, Subscriber{TelegramID: 111}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	subs, _ = st.ActiveSubscribers(ctx)
	if subs[0].Username != "alice" || subs[0].FirstName != "Alice" {
		t.Fatalf("profile fields clobbered: %+v", subs[0])
	}
}

func TestDeactivateAndReactivate(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.UpsertSubscriber(ctx, Subscriber{TelegramID: 111, FirstName: "Alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.DeactivateSubscriber(ctx, 111); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	// Deactivating twice is a no-op, not an error.
	if err := st.DeactivateSubscriber(ctx, 111); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}

	subs, err := st.ActiveSubscribers(ctx)
	if err != nil {
		t.Fatalf("ActiveSubscribers: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("deactivated subscriber still listed: %+v", subs)
	}

	// /start after /stop reactivates the same row.
	if err := st.UpsertSubscriber(ctx, Subscriber{TelegramID: 111}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	subs, _ = st.ActiveSubscribers(ctx)
	if len(subs) != 1 || subs[0].FirstName != "Alice" {
		t.Fatalf("reactivation lost the row: %+v", subs)
	}

	counts, err := st.SubscriberCounts(ctx)
	if err != nil {
		t.Fatalf("SubscriberCounts: %v", err)
	}
	if counts.Total != 1 || counts.Active != 1 {
		t.Fatalf("counts = %+v, want total 1 active 1", counts)
	}
}

func TestSubscriberCounts(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		if err := st.UpsertSubscriber(ctx, Subscriber{TelegramID: id}); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}
	if err := st.DeactivateSubscriber(ctx, 2); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	counts, err := st.SubscriberCounts(ctx)
	if err != nil {
		t.Fatalf("SubscriberCounts: %v", err)
	}
	if counts.Total != 3 || counts.Active != 2 {
		t.Fatalf("counts = %+v, want total 3 active 2", counts)
	}
}

func TestMarkSeenIdempotent(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	inserted, err := st.MarkSeen(ctx, "12345")
	if err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if !inserted {
		t.Fatal("first MarkSeen should report inserted")
	}

	inserted, err = st.MarkSeen(ctx, "12345")
	if err != nil {
		t.Fatalf("second MarkSeen: %v", err)
	}
	if inserted {
		t.Fatal("second MarkSeen should report not inserted")
	}

	seen, err := st.IsSeen(ctx, "12345")
	if err != nil {
		t.Fatalf("IsSeen: %v", err)
	}
	if !seen {
		t.Fatal("IsSeen should report true after MarkSeen")
	}

	seen, err = st.IsSeen(ctx, "99999")
	if err != nil {
		t.Fatalf("IsSeen unknown: %v", err)
	}
	if seen {
		t.Fatal("IsSeen should report false for unknown id")
	}
}

func TestMarkSeenEmptyID(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	inserted, err := st.MarkSeen(context.Background(), "")
	if err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if inserted {
		t.Fatal("empty id must not be recorded")
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bot.db")
	ctx := context.Background()

	st, err := Open(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := st.MarkSeen(ctx, "42"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	seen, err := st.IsSeen(ctx, "42")
	if err != nil {
		t.Fatalf("IsSeen: %v", err)
	}
	if !seen {
		t.Fatal("seen id lost across reopen")
	}
}
