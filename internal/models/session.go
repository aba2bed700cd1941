package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SessionStatus represents the current state of an assessment session
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"  // Answers can be recorded
	SessionExpired SessionStatus = "expired" // Idle TTL elapsed
)

// Session is one user's assessment in progress.
// Each session owns its own answer store and weight configuration.
type Session struct {
	ID         string             `json:"id"`
	Token      string             `json:"token"`
	Status     SessionStatus      `json:"status"`
	Product    string             `json:"product"`
	Company    string             `json:"company"`
	Answers    Answers            `json:"answers"`
	Weights    map[string]float64 `json:"weights"` // raw user weights, any non-negative scale
	TTLSeconds int                `json:"ttl_seconds"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
}

// IsExpired checks if the idle TTL has elapsed
func (s *Session) IsExpired() bool {
	if s.Status == SessionExpired {
		return true
	}
	if s.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*s.ExpiresAt)
}

// Touch marks the session as used now and pushes the expiry forward
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
	if s.TTLSeconds > 0 {
		expires := now.Add(time.Duration(s.TTLSeconds) * time.Second)
		s.ExpiresAt = &expires
	}
}

// TimeRemaining returns the duration until expiry (0 if expired or no TTL)
func (s *Session) TimeRemaining() time.Duration {
	if s.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(*s.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GenerateSessionToken creates a cryptographically random 48-char hex token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateSessionRequest represents a request to start an assessment
type CreateSessionRequest struct {
	Product string             `json:"product"`
	Company string             `json:"company"`
	Weights map[string]float64 `json:"weights,omitempty"`
	TTL     int                `json:"ttl,omitempty"` // seconds
}

// SetAnswerRequest records or clears (score null) one answer
type SetAnswerRequest struct {
	Theme     string   `json:"theme"`
	Indicator string   `json:"indicator"`
	Code      string   `json:"code"`
	Score     *float64 `json:"score"`
}

// SetWeightsRequest replaces the raw weight configuration
type SetWeightsRequest struct {
	Weights map[string]float64 `json:"weights"`
}

// SaveSnapshotRequest appends the session to history.
// Empty labels fall back to the session's product and company.
type SaveSnapshotRequest struct {
	Product string `json:"product,omitempty"`
	Company string `json:"company,omitempty"`
}
