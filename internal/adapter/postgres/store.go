// Package postgres stores time entries in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"timebot/internal/domain"
)

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

const entryColumns = `id, user_id, channel_id, start_time, end_time, duration, title, is_active, project_id`

// Client implements ports.Store on top of a pgx pool.
type Client struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewClient connects to dsn and pings the server before returning.
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("postgres: DSN is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &Client{pool: pool, log: log}, nil
}

func (c *Client) ActiveEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM time_entries
WHERE user_id = $1 AND is_active
ORDER BY start_time
LIMIT 1`
	return c.queryEntry(ctx, "active entry", q, userID)
}

func (c *Client) LatestEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM time_entries
WHERE user_id = $1
ORDER BY start_time DESC, id DESC
LIMIT 1`
	return c.queryEntry(ctx, "latest entry", q, userID)
}

func (c *Client) queryEntry(ctx context.Context, op, q string, args ...any) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	err := c.pool.QueryRow(ctx, q, args...).Scan(
		&e.ID, &e.UserID, &e.ChannelID, &e.StartTime, &e.EndTime, &e.DurationSeconds, &e.Title, &e.IsActive, &e.ProjectID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	e.StartTime = e.StartTime.UTC()
	if e.EndTime != nil {
		t := e.EndTime.UTC()
		e.EndTime = &t
	}
	return &e, nil
}

// InsertEntry stores e and sets its ID. The partial unique index on active
// rows turns a second running entry into domain.ErrAlreadyActive.
func (c *Client) InsertEntry(ctx context.Context, e *domain.TimeEntry) error {
	const q = `
INSERT INTO time_entries
  (user_id, channel_id, start_time, end_time, duration, title, is_active, project_id)
VALUES
  ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := c.pool.QueryRow(ctx, q,
		e.UserID, e.ChannelID, e.StartTime.UTC(), e.EndTime, e.DurationSeconds, e.Title, e.IsActive, e.ProjectID,
	).Scan(&e.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyActive
		}
		return &domain.StoreError{Op: "insert entry", Err: err}
	}
	c.log.Debug("postgres inserted entry", slog.Int64("id", e.ID), slog.String("user", e.UserID))
	return nil
}

// UpdateEntry writes the non-nil fields of u to the entry with the given id.
func (c *Client) UpdateEntry(ctx context.Context, id int64, u domain.EntryUpdate) error {
	q, args := buildUpdate(id, u)
	if q == "" {
		return nil
	}
	if _, err := c.pool.Exec(ctx, q, args...); err != nil {
		return &domain.StoreError{Op: "update entry", Err: err}
	}
	return nil
}

func buildUpdate(id int64, u domain.EntryUpdate) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.EndTime != nil {
		add("end_time", u.EndTime.UTC())
	}
	if u.DurationSeconds != nil {
		add("duration", *u.DurationSeconds)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.ProjectID != nil {
		add("project_id", *u.ProjectID)
	}
	if len(sets) == 0 {
		return "", nil
	}
	args = append(args, id)
	return fmt.Sprintf("UPDATE time_entries SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)), args
}

func (c *Client) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := c.pool.Query(ctx, "SELECT id, user_id, name FROM projects WHERE user_id = $1 ORDER BY name", userID)
	if err != nil {
		return nil, &domain.StoreError{Op: "list projects", Err: err}
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Project, error) {
		var p domain.Project
		err := row.Scan(&p.ID, &p.UserID, &p.Name)
		return p, err
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "list projects", Err: err}
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

func (c *Client) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Client) Close() error {
	c.pool.Close()
	return nil
}
