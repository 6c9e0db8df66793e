package storage

import (
	"context"
	"time"
)

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Subscriber is a chat user who opted into notifications.
//
// A row is created once per TelegramID and never hard-deleted; unsubscribing
// (or an unreachable recipient) only clears Active.
type Subscriber struct {
	TelegramID int64
	Username   string
	FirstName  string
	Active     bool
	CreatedAt  time.Time
}

// Counts reports the subscriber population.
type Counts struct {
	Active int
	Total  int
}

// Store is the persistence API used by the poller, notifier and command
// handlers.
type Store interface {
	// UpsertSubscriber creates or reactivates a subscriber. Display fields
	// are refreshed when non-empty; an empty value never blanks a stored one.
	UpsertSubscriber(ctx context.Context, sub Subscriber) error

	// DeactivateSubscriber clears the active flag. Idempotent; unknown ids
	// are a no-op.
	DeactivateSubscriber(ctx context.Context, telegramID int64) error

	ActiveSubscribers(ctx context.Context) ([]Subscriber, error)
	SubscriberCounts(ctx context.Context) (Counts, error)

	// MarkSeen records a vacancy identifier. It reports whether the id was
	// newly recorded; a duplicate is a silent no-op (false, nil), which is
	// what makes racing catch-up tasks safe.
	MarkSeen(ctx context.Context, vacancyID string) (bool, error)

	IsSeen(ctx context.Context, vacancyID string) (bool, error)

	Close() error
}
