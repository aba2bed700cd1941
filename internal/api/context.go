package api

import (
	"context"

	"github.com/terra-clan/circular-readiness/internal/models"
)

type contextKey string

const clientContextKey contextKey = "api_client"

// ContextWithClient attaches the authenticated client to ctx
func ContextWithClient(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

// ClientFromContext returns the client set by Authenticate, or nil
func ClientFromContext(ctx context.Context) *models.ApiClient {
	if client, ok := ctx.Value(clientContextKey).(*models.ApiClient); ok {
		return client
	}
	return nil
}

// ClientName names the caller for logs; empty outside /api/v1
func ClientName(ctx context.Context) string {
	if client := ClientFromContext(ctx); client != nil {
		return client.Name
	}
	return ""
}
