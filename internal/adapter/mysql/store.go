package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"timebot/internal/domain"
)

// errDuplicateEntry is MySQL's ER_DUP_ENTRY.
const errDuplicateEntry = 1062

const entryColumns = `id, user_id, channel_id, start_time, end_time, duration, title, is_active, project_id`

// Client implements ports.Store on top of MySQL.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClient opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	// Conservative pool defaults; can be adjusted via env later.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return NewClientFromDB(db, log), nil
}

// NewClientFromDB wraps an already opened handle.
func NewClientFromDB(db *sql.DB, log *slog.Logger) *Client {
	return &Client{db: db, log: log}
}

func (c *Client) ActiveEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM time_entries
WHERE user_id = ? AND is_active = TRUE
ORDER BY start_time
LIMIT 1`
	return c.queryEntry(ctx, "active entry", q, userID)
}

func (c *Client) LatestEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM time_entries
WHERE user_id = ?
ORDER BY start_time DESC, id DESC
LIMIT 1`
	return c.queryEntry(ctx, "latest entry", q, userID)
}

func (c *Client) queryEntry(ctx context.Context, op, q string, args ...any) (*domain.TimeEntry, error) {
	var (
		e         domain.TimeEntry
		channel   sql.NullString
		end       sql.NullTime
		duration  sql.NullInt64
		title     sql.NullString
		projectID sql.NullInt64
	)
	err := c.db.QueryRowContext(ctx, q, args...).Scan(
		&e.ID, &e.UserID, &channel, &e.StartTime, &end, &duration, &title, &e.IsActive, &projectID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	e.StartTime = e.StartTime.UTC()
	if channel.Valid {
		e.ChannelID = &channel.String
	}
	if end.Valid {
		t := end.Time.UTC()
		e.EndTime = &t
	}
	if duration.Valid {
		e.DurationSeconds = &duration.Int64
	}
	if title.Valid {
		e.Title = &title.String
	}
	if projectID.Valid {
		e.ProjectID = &projectID.Int64
	}
	return &e, nil
}

// InsertEntry stores e and sets its ID. A second active entry for the same
// user trips uq_time_entries_one_active and maps to domain.ErrAlreadyActive.
func (c *Client) InsertEntry(ctx context.Context, e *domain.TimeEntry) error {
	const q = `
INSERT INTO time_entries
  (user_id, channel_id, start_time, end_time, duration, title, is_active, project_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)`
	var end interface{}
	if e.EndTime != nil {
		end = e.EndTime.UTC()
	}
	res, err := c.db.ExecContext(ctx, q,
		e.UserID,
		nullable(e.ChannelID),
		e.StartTime.UTC(),
		end,
		nullable(e.DurationSeconds),
		nullable(e.Title),
		e.IsActive,
		nullable(e.ProjectID),
	)
	if err != nil {
		var me *mysqldrv.MySQLError
		if errors.As(err, &me) && me.Number == errDuplicateEntry {
			return domain.ErrAlreadyActive
		}
		return &domain.StoreError{Op: "insert entry", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &domain.StoreError{Op: "insert entry", Err: err}
	}
	e.ID = id
	c.log.Debug("mysql inserted entry", slog.Int64("id", id), slog.String("user", e.UserID))
	return nil
}

// UpdateEntry writes the non-nil fields of u to the entry with the given id.
func (c *Client) UpdateEntry(ctx context.Context, id int64, u domain.EntryUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	if u.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, u.EndTime.UTC())
	}
	if u.DurationSeconds != nil {
		sets = append(sets, "duration = ?")
		args = append(args, *u.DurationSeconds)
	}
	if u.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *u.IsActive)
	}
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.ProjectID != nil {
		sets = append(sets, "project_id = ?")
		args = append(args, *u.ProjectID)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := "UPDATE time_entries SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := c.db.ExecContext(ctx, q, args...); err != nil {
		return &domain.StoreError{Op: "update entry", Err: err}
	}
	c.log.Debug("mysql updated entry", slog.Int64("id", id), slog.Int("columns", len(sets)))
	return nil
}

func (c *Client) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT id, user_id, name FROM projects WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, &domain.StoreError{Op: "list projects", Err: err}
	}
	defer rows.Close()
	out := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name); err != nil {
			return nil, &domain.StoreError{Op: "list projects", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list projects", Err: err}
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

// Close closes the underlying DB.
func (c *Client) Close() error { return c.db.Close() }

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
