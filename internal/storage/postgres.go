package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/circular-readiness/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the connection pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// AppendSnapshot inserts a new history record
func (r *PostgresRepository) AppendSnapshot(ctx context.Context, snap *models.Snapshot) error {
	blobs, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO snapshots (id, created_at, product, company, session_id, answers, weights, scores, theme_scores, overall, overall_scaled, maturity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		snap.ID,
		snap.Timestamp,
		snap.Product,
		snap.Company,
		nullString(snap.SessionID),
		blobs.answers,
		blobs.weights,
		blobs.scores,
		blobs.themeScores,
		snap.Overall,
		snap.OverallScaled,
		nullString(snap.Maturity),
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	return nil
}

const snapshotColumns = `id, created_at, product, company, session_id, answers, weights, scores, theme_scores, overall, overall_scaled, maturity`

// GetSnapshot retrieves a snapshot by ID, nil when absent
func (r *PostgresRepository) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE id = $1`

	snap, err := scanSnapshot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns snapshots oldest first
func (r *PostgresRepository) ListSnapshots(ctx context.Context, filters models.ListFilters) ([]*models.Snapshot, error) {
	tail, args := listWhere(filters, postgresDialect)
	query := `SELECT ` + snapshotColumns + ` FROM snapshots` + tail

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*models.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

func scanSnapshot(row pgx.Row) (*models.Snapshot, error) {
	var snap models.Snapshot
	var sessionID, maturity sql.NullString
	var blobs snapshotBlobs

	err := row.Scan(
		&snap.ID,
		&snap.Timestamp,
		&snap.Product,
		&snap.Company,
		&sessionID,
		&blobs.answers,
		&blobs.weights,
		&blobs.scores,
		&blobs.themeScores,
		&snap.Overall,
		&snap.OverallScaled,
		&maturity,
	)
	if err != nil {
		return nil, err
	}

	snap.SessionID = sessionID.String
	snap.Maturity = maturity.String

	if err := blobs.decodeInto(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if err := decodeClientJSON(&client, permissionsJSON, metadataJSON); err != nil {
		return nil, err
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for an API client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last used: %w", err)
	}
	return nil
}

func decodeClientJSON(client *models.ApiClient, permissionsJSON, metadataJSON []byte) error {
	if len(permissionsJSON) > 0 {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return nil
}
