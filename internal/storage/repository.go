package storage

import (
	"context"

	"github.com/terra-clan/circular-readiness/internal/models"
)

// Repository defines the interface for assessment history persistence.
// History is append-only: snapshots are never updated or deleted.
type Repository interface {
	// Snapshots
	AppendSnapshot(ctx context.Context, snap *models.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)
	ListSnapshots(ctx context.Context, filters models.ListFilters) ([]*models.Snapshot, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
