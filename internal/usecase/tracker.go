package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"timebot/internal/domain"
	"timebot/internal/ports"
	"timebot/internal/requestid"
)

// Tracker applies the time entry lifecycle rules on top of an entry store.
type Tracker struct {
	Log      *slog.Logger
	Entries  ports.EntryStore
	Projects ports.ProjectStore
	// Locker is optional. When set, every mutating operation holds the
	// user's lock for its whole read-then-write sequence.
	Locker ports.Locker
	// Now defaults to time.Now.
	Now func() time.Time
	// VerifyProjectOwner rejects projects outside the user's own list.
	VerifyProjectOwner bool
}

var errNotInitialized = errors.New("tracker not initialized: missing dependencies")

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

func (t *Tracker) logger() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}

// withUserLock runs fn while holding the per-user lock, if a locker is configured.
func (t *Tracker) withUserLock(ctx context.Context, userID string, fn func() error) error {
	if t.Entries == nil {
		return errNotInitialized
	}
	if t.Locker == nil {
		return fn()
	}
	unlock, err := t.Locker.Lock(ctx, "timer:user:"+userID)
	if err != nil {
		return &domain.StoreError{Op: "lock", Err: err}
	}
	defer unlock()
	return fn()
}

// StartTracking opens a new running entry for the user.
func (t *Tracker) StartTracking(ctx context.Context, userID, channelID string) (*domain.TimeEntry, error) {
	var started *domain.TimeEntry
	err := t.withUserLock(ctx, userID, func() error {
		active, err := t.Entries.ActiveEntry(ctx, userID)
		if err != nil {
			return err
		}
		if active != nil {
			return domain.ErrAlreadyActive
		}
		e := &domain.TimeEntry{
			UserID:    userID,
			StartTime: t.now(),
			IsActive:  true,
		}
		if channelID != "" {
			e.ChannelID = &channelID
		}
		if err := t.Entries.InsertEntry(ctx, e); err != nil {
			return err
		}
		started = e
		return nil
	})
	t.logResult(ctx, "start_tracking", userID, err)
	return started, err
}

// StopTracking finishes the user's running entry.
func (t *Tracker) StopTracking(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	var stopped *domain.TimeEntry
	err := t.withUserLock(ctx, userID, func() error {
		active, err := t.Entries.ActiveEntry(ctx, userID)
		if err != nil {
			return err
		}
		if active == nil {
			return domain.ErrNoActiveEntry
		}
		upd := active.Finish(t.now())
		if err := t.Entries.UpdateEntry(ctx, active.ID, upd); err != nil {
			return err
		}
		stopped = active
		return nil
	})
	t.logResult(ctx, "stop_tracking", userID, err)
	return stopped, err
}

// AddNote sets the title of the user's most recently started entry,
// running or not.
func (t *Tracker) AddNote(ctx context.Context, userID, note string) error {
	err := t.withUserLock(ctx, userID, func() error {
		latest, err := t.Entries.LatestEntry(ctx, userID)
		if err != nil {
			return err
		}
		if latest == nil {
			return domain.ErrNoEntryFound
		}
		return t.Entries.UpdateEntry(ctx, latest.ID, domain.EntryUpdate{Title: &note})
	})
	t.logResult(ctx, "add_note", userID, err)
	return err
}

// CreateManualEntry records a finished entry of the given length ending now.
// It does not look at the user's running entry.
func (t *Tracker) CreateManualEntry(ctx context.Context, userID string, durationMinutes float64, title *string) (*domain.TimeEntry, error) {
	if !validMinutes(durationMinutes) {
		t.logResult(ctx, "manual_entry", userID, domain.ErrInvalidDuration)
		return nil, domain.ErrInvalidDuration
	}
	var created *domain.TimeEntry
	err := t.withUserLock(ctx, userID, func() error {
		now := t.now()
		secs := int64(math.Floor(durationMinutes * 60))
		start := now.Add(-time.Duration(durationMinutes * float64(time.Minute)))
		e := &domain.TimeEntry{
			UserID:          userID,
			StartTime:       start,
			EndTime:         &now,
			DurationSeconds: &secs,
			IsActive:        false,
			Title:           title,
		}
		if err := t.Entries.InsertEntry(ctx, e); err != nil {
			return err
		}
		created = e
		return nil
	})
	t.logResult(ctx, "manual_entry", userID, err)
	return created, err
}

// AssignProject attaches a project to the user's running entry. The id is
// trusted as given unless VerifyProjectOwner is set.
func (t *Tracker) AssignProject(ctx context.Context, userID string, projectID int64) error {
	err := t.withUserLock(ctx, userID, func() error {
		active, err := t.Entries.ActiveEntry(ctx, userID)
		if err != nil {
			return err
		}
		if active == nil {
			return domain.ErrNoActiveEntry
		}
		if t.VerifyProjectOwner {
			if err := t.checkOwner(ctx, userID, projectID); err != nil {
				return err
			}
		}
		return t.Entries.UpdateEntry(ctx, active.ID, domain.EntryUpdate{ProjectID: &projectID})
	})
	t.logResult(ctx, "assign_project", userID, err)
	return err
}

func (t *Tracker) checkOwner(ctx context.Context, userID string, projectID int64) error {
	projects, err := t.ListProjectsForAssignment(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if p.ID == projectID {
			return nil
		}
	}
	return domain.ErrProjectNotOwned
}

// ListProjectsForAssignment returns the user's projects; an empty list is not an error.
func (t *Tracker) ListProjectsForAssignment(ctx context.Context, userID string) ([]domain.Project, error) {
	if t.Projects == nil {
		return nil, errNotInitialized
	}
	projects, err := t.Projects.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

func (t *Tracker) logResult(ctx context.Context, op, userID string, err error) {
	log := t.logger().With(
		slog.String("request_id", requestid.From(ctx)),
		slog.String("op", op),
		slog.String("user", userID),
	)
	switch {
	case err == nil:
		log.Info("operation succeeded")
	case errors.Is(err, domain.ErrStoreQuery), errors.Is(err, errNotInitialized):
		log.Error("operation failed", slog.String("error", err.Error()))
	default:
		log.Warn("operation rejected", slog.String("reason", err.Error()))
	}
}
