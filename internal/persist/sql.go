package persist

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"manaforge/internal/catalog"
	"manaforge/internal/progress"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLConfig selects the backend. SQLitePath is used for sqlite,
// PostgresDSN for postgres.
type SQLConfig struct {
	Dialect     Dialect
	SQLitePath  string
	PostgresDSN string

	AscensionThreshold float64
	Clock              progress.Clock
	Rand               *rand.Rand
	Logger             *log.Logger
}

// SQLService stores one JSON payload row per credential and one row of
// catalog data, both written transactionally.
type SQLService struct {
	dialect Dialect
	db      *sql.DB
	auth    *authority
	logger  *log.Logger
}

// OpenSQL opens and migrates the database, then seeds the catalog row
// on first run.
func OpenSQL(cfg SQLConfig) (*SQLService, error) {
	if cfg.Dialect == "" {
		cfg.Dialect = DialectSQLite
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	var driverName, dsn string
	switch cfg.Dialect {
	case DialectSQLite:
		driverName = "sqlite"
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = filepath.Join("tmp", "manaforge.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dsn = path
	case DialectPostgres:
		driverName = "pgx"
		dsn = strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, errors.New("postgres dialect requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}
	if cfg.Dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Dialect, err)
	}

	s := &SQLService{
		dialect: cfg.Dialect,
		db:      db,
		logger:  cfg.Logger,
	}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.seedCatalog(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	// The stored catalog row is what clients are served, so the
	// confirmation authority must validate against the same data, not
	// the compiled-in seed an operator may have edited away from.
	cat, err := s.FetchStaticCatalogs(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.auth = newAuthority(cat, cfg.AscensionThreshold, cfg.Clock, cfg.Rand)
	s.logger.Printf("database: dialect=%s", cfg.Dialect)
	return s, nil
}

func (s *SQLService) Close() error { return s.db.Close() }

func (s *SQLService) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *SQLService) applyMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate schema migrations: %w", err)
	}

	pattern := fmt.Sprintf("migrations/%s/*.sql", s.dialect)
	files, err := fs.Glob(migrationFS, pattern)
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		version := filepath.Base(file)
		if applied[version] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)", s.bind(1), s.bind(2))
		if _, err := tx.ExecContext(ctx, q, version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
		s.logger.Printf("database: applied migration %s", version)
	}
	return nil
}

// seedCatalog writes the built-in catalog on first run. An existing
// row is left alone so operators can edit game data in place.
func (s *SQLService) seedCatalog(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalogs").Scan(&n); err != nil {
		return fmt.Errorf("count catalogs: %w", err)
	}
	if n > 0 {
		return nil
	}
	payload, err := json.Marshal(catalog.Seed())
	if err != nil {
		return fmt.Errorf("marshal seed catalog: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO catalogs (id, payload, updated_at) VALUES (1, %s, %s)", s.bind(1), s.bind(2))
	if _, err := s.db.ExecContext(ctx, q, string(payload), s.nowValue()); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func (s *SQLService) nowValue() any {
	now := time.Now().UTC()
	if s.dialect == DialectPostgres {
		return now
	}
	return now.Format(time.RFC3339Nano)
}

func (s *SQLService) FetchStaticCatalogs(ctx context.Context) (catalog.Catalog, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM catalogs WHERE id = 1").Scan(&payload)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	var cat catalog.Catalog
	if err := json.Unmarshal([]byte(payload), &cat); err != nil {
		return catalog.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return cat, nil
}

func (s *SQLService) LoadProgress(ctx context.Context, credential string) (progress.SaveState, error) {
	q := fmt.Sprintf("SELECT payload FROM saves WHERE credential = %s", s.bind(1))
	var payload string
	err := s.db.QueryRowContext(ctx, q, credential).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.SaveState{}, ErrNoSave
	}
	if err != nil {
		return progress.SaveState{}, fmt.Errorf("load save: %w", err)
	}
	var st progress.SaveState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return progress.SaveState{}, fmt.Errorf("decode save: %w", err)
	}
	st.Normalize()
	return st, nil
}

// SaveProgress upserts the row unless the stored save is newer, which
// happens when an autosave from a dying session lands after a fresher
// one already committed.
func (s *SQLService) SaveProgress(ctx context.Context, credential string, st progress.SaveState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback()

	stored, found, err := s.loadForUpdate(ctx, tx, credential)
	if err != nil {
		return err
	}
	if found && st.LastUpdate.Before(stored.LastUpdate) {
		return nil
	}
	if err := s.writeSave(ctx, tx, credential, st); err != nil {
		return err
	}
	return tx.Commit()
}

// ConfirmPurchase applies the server-side rules inside a transaction
// so two racing confirmations for one credential serialize.
func (s *SQLService) ConfirmPurchase(ctx context.Context, credential string, kind progress.ConfirmKind, id string) (progress.Confirmation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return progress.Confirmation{}, fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback()

	stored, found, err := s.loadForUpdate(ctx, tx, credential)
	if err != nil {
		return progress.Confirmation{}, err
	}
	if !found {
		return progress.Confirmation{}, ErrNoSave
	}
	next, conf, err := s.auth.apply(stored, kind, id)
	if err != nil {
		return progress.Confirmation{}, err
	}
	if err := s.writeSave(ctx, tx, credential, next); err != nil {
		return progress.Confirmation{}, err
	}
	if err := tx.Commit(); err != nil {
		return progress.Confirmation{}, fmt.Errorf("commit confirm tx: %w", err)
	}
	return conf, nil
}

func (s *SQLService) loadForUpdate(ctx context.Context, tx *sql.Tx, credential string) (progress.SaveState, bool, error) {
	q := fmt.Sprintf("SELECT payload FROM saves WHERE credential = %s", s.bind(1))
	var payload string
	err := tx.QueryRowContext(ctx, q, credential).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.SaveState{}, false, nil
	}
	if err != nil {
		return progress.SaveState{}, false, fmt.Errorf("load save: %w", err)
	}
	var st progress.SaveState
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return progress.SaveState{}, false, fmt.Errorf("decode save: %w", err)
	}
	return st, true, nil
}

func (s *SQLService) writeSave(ctx context.Context, tx *sql.Tx, credential string, st progress.SaveState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal save: %w", err)
	}
	q := fmt.Sprintf(`
		INSERT INTO saves (credential, payload, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (credential) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.bind(1), s.bind(2), s.bind(3))
	if _, err := tx.ExecContext(ctx, q, credential, string(payload), s.nowValue()); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}
