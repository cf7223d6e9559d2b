package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/mysql/*.sql sql/postgres/*.sql
var migrationsFS embed.FS

// dialect holds the per-driver bits of the migrator.
type dialect struct {
	sqlDriver   string // database/sql driver name
	dir         string
	ddl         string
	insertApply string
}

var dialects = map[string]dialect{
	"mysql": {
		sqlDriver: "mysql",
		dir:       "sql/mysql",
		ddl: `CREATE TABLE IF NOT EXISTS schema_migrations (
        version BIGINT PRIMARY KEY,
        applied_at DATETIME(6) NOT NULL
    ) ENGINE=InnoDB;`,
		insertApply: "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)",
	},
	"postgres": {
		sqlDriver: "pgx",
		dir:       "sql/postgres",
		ddl: `CREATE TABLE IF NOT EXISTS schema_migrations (
        version BIGINT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL
    );`,
		insertApply: "INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2)",
	},
}

// Run applies pending migrations for driver ("mysql" or "postgres") found under
// internal/migrate/sql/<driver>. Migrations must be named like 0001_description.sql
// and are executed in lexicographic order. Each file is executed as a single
// statement batch; a MySQL DSN must include multiStatements=true.
func Run(ctx context.Context, driver, dsn string, log *slog.Logger) error {
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		return err
	}

	files, err := fs.Glob(migrationsFS, d.dir+"/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	applied, err := loadApplied(ctx, db)
	if err != nil {
		return err
	}

	for _, f := range files {
		base := path.Base(f)
		ver, err := parseVersion(base)
		if err != nil {
			return fmt.Errorf("invalid migration filename %q: %w", base, err)
		}
		if applied[ver] {
			log.Debug("migration already applied", slog.Int("version", ver), slog.String("file", base))
			continue
		}
		b, err := fs.ReadFile(migrationsFS, f)
		if err != nil {
			return err
		}
		log.Info("applying migration", slog.String("driver", driver), slog.Int("version", ver), slog.String("file", base))
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("applying %s: %w", base, err)
		}
		if _, err := db.ExecContext(ctx, d.insertApply, ver, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

func loadApplied(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	m := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		m[v] = true
	}
	return m, rows.Err()
}

func parseVersion(name string) (int, error) {
	// Expect prefix like 0001_...
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return 0, fmt.Errorf("missing prefix number")
	}
	return strconv.Atoi(name[:i])
}
