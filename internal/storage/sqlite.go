package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/terra-clan/circular-readiness/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	product        TEXT NOT NULL DEFAULT '',
	company        TEXT NOT NULL DEFAULT '',
	session_id     TEXT,
	answers        TEXT NOT NULL DEFAULT '{}',
	weights        TEXT,
	scores         TEXT,
	theme_scores   TEXT,
	overall        REAL NOT NULL DEFAULT 0,
	overall_scaled REAL NOT NULL DEFAULT 0,
	maturity       TEXT
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots (created_at);

CREATE TABLE IF NOT EXISTS api_clients (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	api_key      TEXT NOT NULL UNIQUE,
	is_active    INTEGER NOT NULL DEFAULT 1,
	created_at   TEXT NOT NULL,
	last_used_at TEXT,
	permissions  TEXT NOT NULL DEFAULT '[]',
	metadata     TEXT
);
`

// SQLiteRepository implements Repository on a single SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at path and ensures the schema
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single writer keeps appends serialized
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	slog.Info("sqlite history opened", "path", path)
	return &SQLiteRepository{db: db}, nil
}

// Ping checks database connectivity
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// AppendSnapshot inserts a new history record
func (r *SQLiteRepository) AppendSnapshot(ctx context.Context, snap *models.Snapshot) error {
	blobs, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO snapshots (id, created_at, product, company, session_id, answers, weights, scores, theme_scores, overall, overall_scaled, maturity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		snap.ID,
		formatTime(snap.Timestamp),
		snap.Product,
		snap.Company,
		nullString(snap.SessionID),
		string(blobs.answers),
		string(blobs.weights),
		string(blobs.scores),
		string(blobs.themeScores),
		snap.Overall,
		snap.OverallScaled,
		nullString(snap.Maturity),
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot by ID, nil when absent
func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE id = ?`

	snap, err := scanSQLiteSnapshot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns snapshots oldest first
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, filters models.ListFilters) ([]*models.Snapshot, error) {
	tail, args := listWhere(filters, sqliteDialect)
	query := `SELECT ` + snapshotColumns + ` FROM snapshots` + tail

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*models.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSQLiteSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSnapshot(row rowScanner) (*models.Snapshot, error) {
	var snap models.Snapshot
	var createdAt string
	var sessionID, maturity, weights, scores, themeScores sql.NullString
	var answers string

	err := row.Scan(
		&snap.ID,
		&createdAt,
		&snap.Product,
		&snap.Company,
		&sessionID,
		&answers,
		&weights,
		&scores,
		&themeScores,
		&snap.Overall,
		&snap.OverallScaled,
		&maturity,
	)
	if err != nil {
		return nil, err
	}

	if snap.Timestamp, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	snap.SessionID = sessionID.String
	snap.Maturity = maturity.String

	blobs := snapshotBlobs{
		answers:     []byte(answers),
		weights:     []byte(weights.String),
		scores:      []byte(scores.String),
		themeScores: []byte(themeScores.String),
	}
	if err := blobs.decodeInto(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CreateClient registers an API client; used by tests and provisioning scripts
func (r *SQLiteRepository) CreateClient(ctx context.Context, client *models.ApiClient) error {
	permissions := client.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	blobs, err := encodeClientJSON(permissions, client.Metadata)
	if err != nil {
		return err
	}

	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO api_clients (name, api_key, is_active, created_at, permissions, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, client.Name, client.ApiKey, client.IsActive, formatTime(client.CreatedAt), blobs[0], blobs[1])
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		client.ID = int(id)
	}
	return nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *SQLiteRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = ?
	`

	var client models.ApiClient
	var createdAt string
	var lastUsedAt, metadata sql.NullString
	var permissions string

	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&createdAt,
		&lastUsedAt,
		&permissions,
		&metadata,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if client.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if lastUsedAt.Valid {
		t, err := parseTime(lastUsedAt.String)
		if err != nil {
			return nil, err
		}
		client.LastUsedAt = &t
	}

	if err := decodeClientJSON(&client, []byte(permissions), []byte(metadata.String)); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for an API client
func (r *SQLiteRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_clients SET last_used_at = ? WHERE api_key = ?`,
		formatTime(time.Now().UTC()), apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last used: %w", err)
	}
	return nil
}

// sqliteTimeLayout is fixed width so that text ordering matches time ordering
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
