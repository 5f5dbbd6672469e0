package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pasur-go/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenAndMigrate opens the sqlite database at dbPath and applies any embedded
// migrations that have not run yet. ":memory:" opens a private in-memory
// database limited to one connection.
func OpenAndMigrate(dbPath string) (*sql.DB, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open opens and pings the database without migrating it.
func Open(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("DATABASE_PATH is required")
	}
	if looksLikeFilePath(dbPath) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if dbPath == ":memory:" {
		// Every new connection would see an empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func sqliteDSN(dbPath string) string {
	switch {
	case dbPath == ":memory:":
		return "file::memory:?_foreign_keys=on"
	case strings.HasPrefix(dbPath, "file:"):
		return dbPath
	}
	// _busy_timeout keeps concurrent match writers from failing with SQLITE_BUSY.
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", dbPath)
}

func looksLikeFilePath(p string) bool {
	return p != ":memory:" && !strings.HasPrefix(p, "file:")
}

// Migrate applies pending migrations in file name order and returns the
// versions it applied. Each migration runs in its own transaction.
func Migrate(db *sql.DB) ([]string, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := loadAppliedVersions(db)
	if err != nil {
		return nil, err
	}
	migs, err := listMigrationFiles(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range migs {
		if applied[m] {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return ran, err
		}
		logging.L.WithField("version", m).Info("applied migration")
		ran = append(ran, m)
	}
	return ran, nil
}

func applyMigration(db *sql.DB, name string) error {
	body, err := fs.ReadFile(migrationsFS, "migrations/"+name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := execSQLScript(tx, string(body)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func loadAppliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		out[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration versions: %w", err)
	}
	return out, nil
}

func listMigrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

type sqlExecer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// execSQLScript splits on ';' once line comments are gone. The schema files
// hold no triggers and no string literals containing ';'.
func execSQLScript(exec sqlExecer, script string) error {
	for _, p := range strings.Split(stripLineComments(script), ";") {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		if _, err := exec.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// stripLineComments drops "--" comments outside quoted text, keeping newlines.
func stripLineComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			b.WriteByte(ch)
			if ch == quote {
				// A doubled quote is an escaped quote, not the end.
				if i+1 < len(s) && s[i+1] == quote {
					b.WriteByte(ch)
					i++
					continue
				}
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
			b.WriteByte(ch)
		case ch == '-' && i+1 < len(s) && s[i+1] == '-':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
