package ports

import (
	"context"

	"timebot/internal/domain"
)

// EntryStore persists time entries. Implementations return domain.ErrAlreadyActive
// when an insert would give a user a second active entry, and wrap any other
// failure in *domain.StoreError.
type EntryStore interface {
	// ActiveEntry returns the user's running entry, or nil when there is none.
	ActiveEntry(ctx context.Context, userID string) (*domain.TimeEntry, error)
	// LatestEntry returns the entry with the greatest start time, or nil.
	LatestEntry(ctx context.Context, userID string) (*domain.TimeEntry, error)
	InsertEntry(ctx context.Context, e *domain.TimeEntry) error
	UpdateEntry(ctx context.Context, id int64, u domain.EntryUpdate) error
}

// ProjectStore reads the projects a user may assign.
type ProjectStore interface {
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
}

// Store is what the storage adapters provide.
type Store interface {
	EntryStore
	ProjectStore
	Ping(ctx context.Context) error
	Close() error
}

// Locker serializes work per key across bot instances.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Messenger delivers reply text back to the chat platform.
type Messenger interface {
	PostText(ctx context.Context, channelID, text string) error
}
