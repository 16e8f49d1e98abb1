package api

import (
	"context"
	"time"

	"focusdash/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	EnsureUser(ctx context.Context, id string) (domain.User, error)

	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error

	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)
	CreateNote(ctx context.Context, n domain.Note) (domain.Note, error)
	DeleteNote(ctx context.Context, userID, id string) error

	ListSessions(ctx context.Context, userID string) ([]domain.FocusSession, error)
	ListSessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.FocusSession, error)
	CreateSession(ctx context.Context, fs domain.FocusSession) (domain.FocusSession, error)

	CheckHealth(ctx context.Context) (int, error)
}

// Deduper suppresses duplicate focus-session submissions. The sessions
// table is append-only, so a retried interval-completion post would
// otherwise create a second row.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when the insert fails so
	// the client may retry.
	Remove(ctx context.Context, userID, key string) error
}

// Advisor is the external text-generation service behind the advice
// endpoint.
type Advisor interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
