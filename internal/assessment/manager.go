package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/circular-readiness/internal/catalog"
	"github.com/terra-clan/circular-readiness/internal/metrics"
	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
	"github.com/terra-clan/circular-readiness/internal/storage"
)

// Default labels for snapshots saved without product or company
const (
	DefaultProduct = "Mein Produkt"
	DefaultCompany = "Mein Unternehmen"
)

// Manager defines the interface for assessment sessions and history
type Manager interface {
	CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context) ([]*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SetAnswer(ctx context.Context, id string, req models.SetAnswerRequest) (*models.Session, error)
	SetWeights(ctx context.Context, id string, weights map[string]float64) (*models.Session, error)
	Reset(ctx context.Context, id string) (*models.Session, error)
	Results(ctx context.Context, id string) (*scoring.Result, error)
	SaveSnapshot(ctx context.Context, id string, req models.SaveSnapshotRequest) (*models.Snapshot, error)
	History(ctx context.Context, filters models.ListFilters) ([]*models.Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)
	Compare(ctx context.Context, filters models.ListFilters) (*Comparison, error)
	Details(ctx context.Context, filters models.ListFilters) ([]DetailRow, error)
	GetExpired(ctx context.Context) ([]*models.Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options holds session lifetime settings
type Options struct {
	DefaultTTL time.Duration // idle TTL for new sessions, 0 disables expiry
	MaxTTL     time.Duration // upper bound for a requested TTL, 0 means unbounded
}

// SessionManager implements Manager on a SessionStore and a history Repository
type SessionManager struct {
	loader *catalog.Loader
	store  SessionStore
	repo   storage.Repository
	opts   Options

	// serializes read-modify-write cycles per session
	locks sync.Map
	now   func() time.Time
}

// NewManager creates a new SessionManager
func NewManager(loader *catalog.Loader, store SessionStore, repo storage.Repository, opts Options) *SessionManager {
	return &SessionManager{
		loader: loader,
		store:  store,
		repo:   repo,
		opts:   opts,
		now:    time.Now,
	}
}

func (m *SessionManager) catalog() (*models.Catalog, error) {
	cat := m.loader.Catalog()
	if cat == nil {
		return nil, ErrCatalogNotLoaded
	}
	return cat, nil
}

func (m *SessionManager) lock(id string) func() {
	mu, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// Ping checks the session store and the history repository
func (m *SessionManager) Ping(ctx context.Context) error {
	if err := m.store.Ping(ctx); err != nil {
		return fmt.Errorf("session store ping failed: %w", err)
	}
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository ping failed: %w", err)
	}
	return nil
}

// CreateSession starts a new assessment with an empty answer store.
// Without explicit weights the catalog defaults are used on the 0–100 scale.
func (m *SessionManager) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	cat, err := m.catalog()
	if err != nil {
		return nil, err
	}

	weights := req.Weights
	if len(weights) == 0 {
		weights = scoring.ScaleWeights(cat.DefaultWeights())
	} else if err := checkWeights(cat, weights); err != nil {
		return nil, err
	}

	token, err := models.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	ttl := m.opts.DefaultTTL
	if req.TTL > 0 {
		ttl = time.Duration(req.TTL) * time.Second
	}
	if m.opts.MaxTTL > 0 && ttl > m.opts.MaxTTL {
		ttl = m.opts.MaxTTL
	}

	now := m.now()
	s := &models.Session{
		ID:         uuid.New().String(),
		Token:      token,
		Status:     models.SessionActive,
		Product:    req.Product,
		Company:    req.Company,
		Answers:    models.NewAnswers(),
		Weights:    copyWeights(weights),
		TTLSeconds: int(ttl / time.Second),
		CreatedAt:  now,
	}
	s.Touch(now)

	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsActive.Inc()

	slog.Info("session created",
		"id", s.ID,
		"product", s.Product,
		"company", s.Company,
		"expires_at", s.ExpiresAt,
	)
	return s, nil
}

// GetSession returns a session. An expired session is returned together
// with ErrSessionExpired.
func (m *SessionManager) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if m.expired(s) {
		s.Status = models.SessionExpired
		return s, ErrSessionExpired
	}
	return s, nil
}

func (m *SessionManager) expired(s *models.Session) bool {
	if s.Status == models.SessionExpired {
		return true
	}
	return s.ExpiresAt != nil && m.now().After(*s.ExpiresAt)
}

// ListSessions returns all sessions, newest first
func (m *SessionManager) ListSessions(ctx context.Context) ([]*models.Session, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		if m.expired(s) {
			s.Status = models.SessionExpired
		}
	}
	return sessions, nil
}

// DeleteSession removes a session and its answers
func (m *SessionManager) DeleteSession(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()
	defer m.locks.Delete(id)

	if err := m.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	metrics.SessionsActive.Dec()

	slog.Info("session deleted", "id", id)
	return nil
}

// mutate loads an active session, applies fn and stores the result
func (m *SessionManager) mutate(ctx context.Context, id string, fn func(cat *models.Catalog, s *models.Session) error) (*models.Session, error) {
	cat, err := m.catalog()
	if err != nil {
		return nil, err
	}

	unlock := m.lock(id)
	defer unlock()

	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(cat, s); err != nil {
		return nil, err
	}

	s.Touch(m.now())
	if err := m.store.Update(ctx, s); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return s, nil
}

// SetAnswer records the selected option score for a question, or clears it
// when the score is nil. Scores must match one of the question's options.
func (m *SessionManager) SetAnswer(ctx context.Context, id string, req models.SetAnswerRequest) (*models.Session, error) {
	return m.mutate(ctx, id, func(cat *models.Catalog, s *models.Session) error {
		if err := catalog.ValidateAnswer(cat, req.Theme, req.Indicator, req.Code, req.Score); err != nil {
			reason := "invalid_answer"
			if errors.Is(err, catalog.ErrUnknownQuestion) {
				reason = "unknown_question"
			}
			metrics.AnswersRejected.WithLabelValues(reason).Inc()
			return err
		}

		s.Answers.Set(req.Theme, req.Indicator, req.Code, req.Score)

		action := "set"
		if req.Score == nil {
			action = "clear"
		}
		metrics.AnswersRecorded.WithLabelValues(req.Theme, action).Inc()

		slog.Debug("answer recorded",
			"session", s.ID,
			"theme", req.Theme,
			"indicator", req.Indicator,
			"code", req.Code,
			"action", action,
		)
		return nil
	})
}

// SetWeights replaces the raw weight configuration. Themes left out weigh 0.
func (m *SessionManager) SetWeights(ctx context.Context, id string, weights map[string]float64) (*models.Session, error) {
	return m.mutate(ctx, id, func(cat *models.Catalog, s *models.Session) error {
		if err := checkWeights(cat, weights); err != nil {
			return err
		}
		s.Weights = copyWeights(weights)
		slog.Debug("weights updated", "session", s.ID, "weights", s.Weights)
		return nil
	})
}

// Reset clears every answer; weights are kept
func (m *SessionManager) Reset(ctx context.Context, id string) (*models.Session, error) {
	return m.mutate(ctx, id, func(cat *models.Catalog, s *models.Session) error {
		s.Answers = models.NewAnswers()
		slog.Info("session reset", "id", s.ID)
		return nil
	})
}

// Results recomputes all scores of a session
func (m *SessionManager) Results(ctx context.Context, id string) (*scoring.Result, error) {
	cat, err := m.catalog()
	if err != nil {
		return nil, err
	}

	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	result := evaluate(cat, s)
	return &result, nil
}

func evaluate(cat *models.Catalog, s *models.Session) scoring.Result {
	start := time.Now()
	result := scoring.Evaluate(cat, s.Answers, s.Weights)
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	metrics.Evaluations.WithLabelValues(result.Maturity.Name).Inc()
	return result
}

// SaveSnapshot appends the session's current state to history. A failed
// append leaves the session untouched and returns ErrSaveFailed.
func (m *SessionManager) SaveSnapshot(ctx context.Context, id string, req models.SaveSnapshotRequest) (*models.Snapshot, error) {
	cat, err := m.catalog()
	if err != nil {
		return nil, err
	}

	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	result := evaluate(cat, s)

	snap := &models.Snapshot{
		ID:            uuid.New().String(),
		Timestamp:     m.now().UTC(),
		Product:       firstNonEmpty(req.Product, s.Product, DefaultProduct),
		Company:       firstNonEmpty(req.Company, s.Company, DefaultCompany),
		Answers:       s.Answers.Clone(),
		Weights:       result.Weights,
		Scores:        result.IndicatorScores(),
		ThemeScores:   result.ThemeScores(),
		Overall:       result.Overall,
		OverallScaled: result.OverallScaled,
		Maturity:      result.Maturity.Name,
		SessionID:     s.ID,
	}

	if err := m.repo.AppendSnapshot(ctx, snap); err != nil {
		metrics.SnapshotsFailed.Inc()
		slog.Error("failed to save snapshot", "error", err, "session", s.ID)
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	metrics.SnapshotsSaved.Inc()

	slog.Info("snapshot saved",
		"id", snap.ID,
		"session", s.ID,
		"product", snap.Product,
		"overall", snap.Overall,
		"maturity", snap.Maturity,
	)
	return snap, nil
}

// History lists saved snapshots, oldest first
func (m *SessionManager) History(ctx context.Context, filters models.ListFilters) ([]*models.Snapshot, error) {
	snapshots, err := m.repo.ListSnapshots(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// GetSnapshot returns a single saved snapshot
func (m *SessionManager) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	snap, err := m.repo.GetSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if snap == nil {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// Compare builds the history comparison table
func (m *SessionManager) Compare(ctx context.Context, filters models.ListFilters) (*Comparison, error) {
	cat, err := m.catalog()
	if err != nil {
		return nil, err
	}
	snapshots, err := m.History(ctx, filters)
	if err != nil {
		return nil, err
	}
	cmp := BuildComparison(cat, snapshots)
	return &cmp, nil
}

// Details lists every answered question across the history
func (m *SessionManager) Details(ctx context.Context, filters models.ListFilters) ([]DetailRow, error) {
	cat, err := m.catalog()
	if err != nil {
		return nil, err
	}
	snapshots, err := m.History(ctx, filters)
	if err != nil {
		return nil, err
	}
	return BuildDetails(cat, snapshots), nil
}

// GetExpired returns sessions whose idle TTL has elapsed
func (m *SessionManager) GetExpired(ctx context.Context) ([]*models.Session, error) {
	sessions, err := m.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	expired := make([]*models.Session, 0)
	for _, s := range sessions {
		if s.Status == models.SessionExpired {
			expired = append(expired, s)
		}
	}
	return expired, nil
}

// Close releases the session store and the repository
func (m *SessionManager) Close() error {
	if err := m.store.Close(); err != nil {
		slog.Warn("failed to close session store", "error", err)
	}
	return m.repo.Close()
}

// checkWeights rejects negative or non-finite values and unknown theme names
func checkWeights(cat *models.Catalog, weights map[string]float64) error {
	if err := scoring.ValidateRawWeights(weights); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWeights, err)
	}
	for theme := range weights {
		if cat.Theme(theme) == nil {
			return fmt.Errorf("%w: unknown theme %q", ErrInvalidWeights, theme)
		}
	}
	return nil
}

func copyWeights(w map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
