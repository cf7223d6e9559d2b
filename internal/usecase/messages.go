package usecase

import (
	"errors"
	"fmt"
	"time"

	"timebot/internal/domain"
)

// Fixed confirmation texts.
const (
	MsgStarted       = ":stopwatch: Started tracking time."
	MsgNoteAdded     = ":memo: Note added to your latest entry."
	MsgProjectSet    = ":file_folder: Project assigned to the running entry."
	MsgNoProjects    = "You have no projects to assign yet."
	msgStoppedPrefix = ":checkered_flag: Stopped tracking. Duration: "
	msgManualPrefix  = ":white_check_mark: Manual entry created: "
)

// Reply turns an operation outcome into the text shown to the user.
// success is returned when err is nil.
func Reply(err error, success string) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, domain.ErrAlreadyActive):
		return "You already have a running timer. Stop it before starting a new one."
	case errors.Is(err, domain.ErrNoActiveEntry):
		return "You don't have a running timer."
	case errors.Is(err, domain.ErrNoEntryFound):
		return "No time entry found to add a note to."
	case errors.Is(err, domain.ErrInvalidDuration):
		return "Please enter a valid duration in minutes (a number greater than 0)."
	case errors.Is(err, domain.ErrProjectNotOwned):
		return "That project is not one of yours."
	default:
		return "Error: " + err.Error()
	}
}

// StoppedMessage confirms a stopped entry with its duration.
func StoppedMessage(e *domain.TimeEntry) string {
	return msgStoppedPrefix + FormatDuration(e.Duration(time.Time{}))
}

// ManualMessage confirms a manual entry.
func ManualMessage(e *domain.TimeEntry) string {
	s := msgManualPrefix + FormatDuration(e.Duration(time.Time{}))
	if e.Title != nil && *e.Title != "" {
		s += fmt.Sprintf(" (%s)", *e.Title)
	}
	return s
}

// FormatDuration renders d as "1h 05m 09s", dropping leading zero units.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
