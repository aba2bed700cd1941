package models

import (
	"strings"
	"time"
)

// ApiClient represents an authenticated API consumer (front end, reporting job, ...)
type ApiClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	ApiKey      string            `json:"-"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AnonymousClient is attached to requests when authentication is disabled
func AnonymousClient() *ApiClient {
	return &ApiClient{
		Name:        "anonymous",
		IsActive:    true,
		Permissions: []string{"*"},
	}
}

// HasPermission checks if client has a permission such as "sessions:write".
// "sessions:*" grants every sessions permission and "*" grants all.
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, perm := range c.Permissions {
		switch {
		case perm == "*", perm == required:
			return true
		case strings.HasSuffix(perm, ":*"):
			if strings.HasPrefix(required, strings.TrimSuffix(perm, "*")) {
				return true
			}
		}
	}

	return false
}

// MaskedApiKey returns first 8 characters of API key for logging
func (c *ApiClient) MaskedApiKey() string {
	if len(c.ApiKey) < 8 {
		return "***"
	}
	return c.ApiKey[:8] + "..."
}
