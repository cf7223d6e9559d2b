package domain

import "time"

// TimeEntry is one tracked span of time owned by a chat user.
type TimeEntry struct {
	ID              int64
	UserID          string
	ChannelID       *string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int64 // Set only once the entry is finished
	IsActive        bool
	Title           *string
	ProjectID       *int64
}

// EntryUpdate lists the mutable columns of an entry. Nil fields are left untouched.
type EntryUpdate struct {
	EndTime         *time.Time
	DurationSeconds *int64
	IsActive        *bool
	Title           *string
	ProjectID       *int64
}

// Finish stops the entry at end and fills in its duration.
// An end before the start (clock skew between hosts) is clamped to the start.
func (e *TimeEntry) Finish(end time.Time) EntryUpdate {
	end = end.UTC()
	if end.Before(e.StartTime) {
		end = e.StartTime
	}
	dur := int64(end.Sub(e.StartTime) / time.Second)
	active := false
	e.EndTime = &end
	e.DurationSeconds = &dur
	e.IsActive = false
	return EntryUpdate{EndTime: &end, DurationSeconds: &dur, IsActive: &active}
}

// Duration returns the recorded duration, or the elapsed time for a running entry.
func (e TimeEntry) Duration(now time.Time) time.Duration {
	if e.DurationSeconds != nil {
		return time.Duration(*e.DurationSeconds) * time.Second
	}
	if now.Before(e.StartTime) {
		return 0
	}
	return now.Sub(e.StartTime)
}
