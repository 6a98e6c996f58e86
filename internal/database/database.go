package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"texture-index/internal/logging"
	"texture-index/internal/metrics"
	"texture-index/internal/texture"
)

const (
	// Per-query deadline for reads
	defaultTimeout = 5 * time.Second

	// flushThreshold is how many buffered upserts trigger an automatic commit
	flushThreshold = 100

	// Pool sizing: many readers alongside the single batch writer
	maxOpenConns    = 25
	maxIdleConns    = 10
	connMaxLifetime = time.Hour
)

// timeFormat is how timestamps are stored. ISO-8601 text keeps the column
// human-readable and sorts lexicographically.
const timeFormat = time.RFC3339Nano

// Database is the SQLite-backed texture store. Reads go straight to the
// connection pool; database/sql serializes access per connection and WAL
// mode lets readers run alongside the write transaction.
type Database struct {
	db     *sql.DB
	dbPath string

	// Upserts are buffered in one transaction and committed by Flush or
	// when flushThreshold writes accumulate.
	batchMu sync.Mutex
	tx      *sql.Tx
	pending int
	txStart time.Time
}

// Database implements the repository contract the indexer and handlers use.
var _ texture.Repository = (*Database)(nil)

// dsn appends the connection pragmas: WAL so readers run alongside the
// batch writer, NORMAL sync as the usual WAL pairing, and a busy timeout
// against transient lock errors.
func dsn(dbPath string) string {
	pragmas := []string{
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_cache_size=10000",
		"_temp_store=MEMORY",
		"_busy_timeout=5000",
	}
	return dbPath + "?" + strings.Join(pragmas, "&")
}

// New opens or creates the index database at dbPath. The parent directory
// must already exist and be writable; startup.LoadConfig validates that
// before this runs.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Opening index database at %s", dbPath)

	if err := checkDatabaseAccess(dbPath); err != nil {
		logging.Warn("Database access check: %v", err)
	}

	db, err := openPool(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	d := &Database{db: db, dbPath: dbPath}
	if err := d.ensureSchema(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logging.Info("Index database ready")
	return d, nil
}

// openPool connects, verifies the connection, and sizes the pool.
func openPool(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		logging.Error("Database close during failed startup: %v", err)
	}
}

func (d *Database) ensureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS textures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		format TEXT NOT NULL,
		content_hash TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_textures_filename ON textures(filename COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_textures_category ON textures(category);
	CREATE INDEX IF NOT EXISTS idx_textures_format ON textures(format);
	CREATE INDEX IF NOT EXISTS idx_textures_dimensions ON textures(width, height);
	`

	_, err := d.db.ExecContext(ctx, ddl)
	return err
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close flushes any buffered writes and closes the database connection.
func (d *Database) Close() error {
	flushErr := d.Flush(context.Background())
	closeErr := d.db.Close()
	return errors.Join(flushErr, closeErr)
}

// Upsert inserts or updates a texture record keyed by path. Writes are
// buffered in a transaction; callers see them after Flush.
func (d *Database) Upsert(ctx context.Context, rec *texture.Record) error {
	start := time.Now()
	var err error
	defer func() { observeQuery("upsert", start, err) }()

	d.batchMu.Lock()
	defer d.batchMu.Unlock()

	if d.tx == nil {
		// Transaction lifetime is managed by Flush, not a request context
		d.tx, err = d.db.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("begin batch: %w", err)
		}
		d.txStart = time.Now()
		d.pending = 0
	}

	query := `
	INSERT INTO textures (path, filename, category, subcategory, file_size, width, height, format, content_hash, created_at, modified_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		filename = excluded.filename,
		category = excluded.category,
		subcategory = excluded.subcategory,
		file_size = excluded.file_size,
		width = excluded.width,
		height = excluded.height,
		format = excluded.format,
		content_hash = excluded.content_hash,
		created_at = excluded.created_at,
		modified_at = excluded.modified_at
	`

	result, err := d.tx.ExecContext(ctx, query,
		rec.Path,
		rec.Filename,
		rec.Category,
		rec.Subcategory,
		rec.FileSize,
		rec.Width,
		rec.Height,
		rec.Format,
		rec.ContentHash,
		rec.CreatedAt.UTC().Format(timeFormat),
		rec.ModifiedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		// A failed statement poisons the transaction, so roll it back
		d.rollbackLocked()
		return fmt.Errorf("upsert %s: %w", rec.Path, err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		metrics.DBRowsAffected.WithLabelValues("upsert").Observe(float64(rows))
	}

	d.pending++
	if d.pending >= flushThreshold {
		err = d.flushLocked()
	}
	return err
}

// Flush commits the buffered transaction, if one is open.
func (d *Database) Flush(ctx context.Context) error {
	d.batchMu.Lock()
	defer d.batchMu.Unlock()
	return d.flushLocked()
}

// flushLocked commits the open transaction. Caller must hold batchMu.
func (d *Database) flushLocked() error {
	if d.tx == nil {
		return nil
	}

	held := time.Since(d.txStart).Seconds()
	err := d.tx.Commit()
	d.tx = nil

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(held)
		return fmt.Errorf("commit batch of %d: %w", d.pending, err)
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(held)
	logging.Debug("Committed batch of %d texture records", d.pending)
	d.pending = 0
	return nil
}

// rollbackLocked abandons the open transaction. Caller must hold batchMu.
func (d *Database) rollbackLocked() {
	if d.tx == nil {
		return
	}

	held := time.Since(d.txStart).Seconds()
	if err := d.tx.Rollback(); err != nil {
		logging.Error("Batch rollback failed: %v", err)
	}
	metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(held)
	d.tx = nil
	d.pending = 0
}

// GetByPath retrieves a single texture record by path. Returns
// texture.ErrNotFound when the path has never been indexed.
func (d *Database) GetByPath(ctx context.Context, path string) (*texture.Record, error) {
	start := time.Now()
	var err error
	defer func() { observeQuery("get_by_path", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, selectColumns+` FROM textures WHERE path = ?`, path)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = texture.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// observeQuery feeds the per-operation query metrics. A not-found lookup
// is a successful query, not an error.
func observeQuery(op string, begun time.Time, err error) {
	outcome := "success"
	if err != nil && !errors.Is(err, texture.ErrNotFound) {
		outcome = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(op, outcome).Inc()
	metrics.DBQueryDuration.WithLabelValues(op).Observe(time.Since(begun).Seconds())
}

// UpdateDBMetrics updates database connection and file size metrics.
// The WAL and SHM sidecars come and go with checkpoints; a missing file
// reports as zero.
func (d *Database) UpdateDBMetrics() {
	pool := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(pool.OpenConnections))

	for suffix, label := range map[string]string{"": "main", "-wal": "wal", "-shm": "shm"} {
		var size float64
		if info, err := os.Stat(d.dbPath + suffix); err == nil {
			size = float64(info.Size())
		}
		metrics.DBSizeBytes.WithLabelValues(label).Set(size)
	}
}

// checkDatabaseAccess reports permission problems around the database
// file before they surface as opaque SQLite errors.
func checkDatabaseAccess(dbPath string) error {
	dir := filepath.Dir(dbPath)
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat database directory: %w", err)
	}
	logging.Debug("Database directory %s mode %v", dir, dirInfo.Mode())

	// Probe writability with a throwaway file
	probe, err := os.CreateTemp(dir, ".writecheck*")
	if err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	probe.Close()
	_ = os.Remove(probe.Name())

	if info, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file %s mode %v, %d bytes", dbPath, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file %s is read-only (%v)", dbPath, info.Mode())
		}
	}

	fixSidecarPermissions(dbPath)
	return nil
}

// fixSidecarPermissions restores write access on the WAL and SHM files.
// A read-only sidecar fails every write even when the main file is fine.
func fixSidecarPermissions(dbPath string) {
	for _, suffix := range []string{"-wal", "-shm"} {
		sidecar := dbPath + suffix
		info, err := os.Stat(sidecar)
		if err != nil || info.Mode().Perm()&0o200 != 0 {
			continue
		}

		logging.Warn("Sidecar %s is read-only (%v), writes would fail", sidecar, info.Mode())
		if err := os.Chmod(sidecar, 0o600); err != nil {
			logging.Error("Chmod %s failed: %v", sidecar, err)
		} else {
			logging.Info("Restored write access on %s", sidecar)
		}
	}
}
