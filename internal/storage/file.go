package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/terra-clan/circular-readiness/internal/models"
)

// FileRepository keeps history in a single JSON list (assessments.json).
// Records written by earlier versions of the tool use German keys
// (Timestamp, Produkt, Unternehmen); they are read as-is and never rewritten.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// fileRecord is the on-disk layout of one snapshot
type fileRecord struct {
	ID            string                         `json:"id"`
	Timestamp     string                         `json:"Timestamp"`
	Product       string                         `json:"Produkt"`
	Company       string                         `json:"Unternehmen"`
	Answers       models.Answers                 `json:"answers"`
	Scores        map[string]map[string]*float64 `json:"scores,omitempty"`
	Weights       map[string]float64             `json:"weights,omitempty"`
	ThemeScores   map[string]float64             `json:"theme_scores,omitempty"`
	Overall       float64                        `json:"overall"`
	OverallScaled float64                        `json:"overall_scaled"`
	Maturity      string                         `json:"maturity,omitempty"`
	SessionID     string                         `json:"session_id,omitempty"`
}

// NewFileRepository creates a repository backed by path. The file is created on first append.
func NewFileRepository(path string) (*FileRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return &FileRepository{path: path}, nil
}

// AppendSnapshot adds a record and rewrites the file atomically.
// On failure the previous file content stays in place.
func (r *FileRepository) AppendSnapshot(ctx context.Context, snap *models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.readRaw()
	if err != nil {
		return err
	}

	rec := fileRecord{
		ID:            snap.ID,
		Timestamp:     snap.Timestamp.Format(time.RFC3339Nano),
		Product:       snap.Product,
		Company:       snap.Company,
		Answers:       snap.Answers,
		Scores:        snap.Scores,
		Weights:       snap.Weights,
		ThemeScores:   snap.ThemeScores,
		Overall:       snap.Overall,
		OverallScaled: snap.OverallScaled,
		Maturity:      snap.Maturity,
		SessionID:     snap.SessionID,
	}
	if rec.Answers == nil {
		rec.Answers = models.NewAnswers()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	raw = append(raw, data)

	if err := r.writeRaw(raw); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns a snapshot by ID, nil when absent
func (r *FileRepository) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	snapshots, err := r.all()
	if err != nil {
		return nil, err
	}
	for _, s := range snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

// ListSnapshots returns snapshots in file order (oldest first)
func (r *FileRepository) ListSnapshots(ctx context.Context, filters models.ListFilters) ([]*models.Snapshot, error) {
	snapshots, err := r.all()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if filters.Product != "" && s.Product != filters.Product {
			continue
		}
		if filters.Company != "" && s.Company != filters.Company {
			continue
		}
		filtered = append(filtered, s)
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(filtered) {
			return []*models.Snapshot{}, nil
		}
		filtered = filtered[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(filtered) {
		filtered = filtered[:filters.Limit]
	}
	return filtered, nil
}

// GetClientByApiKey always reports "not found"; file-backed deployments use static keys
func (r *FileRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	return nil, nil
}

// UpdateClientLastUsed is a no-op for the file repository
func (r *FileRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	return nil
}

// Ping checks that the history file is readable
func (r *FileRepository) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.readRaw()
	return err
}

// Close is a no-op
func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) all() ([]*models.Snapshot, error) {
	r.mu.Lock()
	raw, err := r.readRaw()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	snapshots := make([]*models.Snapshot, 0, len(raw))
	for i, entry := range raw {
		snap, err := decodeFileRecord(entry, i)
		if err != nil {
			slog.Warn("skipping unreadable history record", "path", r.path, "index", i, "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// readRaw returns the list entries. A missing or empty file is an empty
// history; a single top-level object counts as a one-entry list.
func (r *FileRepository) readRaw() ([]json.RawMessage, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '{' {
		return []json.RawMessage{json.RawMessage(data)}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return raw, nil
}

func (r *FileRepository) writeRaw(raw []json.RawMessage) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// decodeFileRecord reads both the current layout and the legacy key variants
// (timestamp, Product_Name, Company, Detailed_Answers as a JSON string).
func decodeFileRecord(entry json.RawMessage, index int) (*models.Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return nil, err
	}

	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := fields[k]; ok {
				var s string
				if json.Unmarshal(v, &s) == nil && s != "" {
					return s
				}
			}
		}
		return ""
	}

	snap := &models.Snapshot{
		ID:        str("id"),
		Product:   str("Produkt", "Product_Name", "product"),
		Company:   str("Unternehmen", "Company", "company"),
		Maturity:  str("maturity"),
		SessionID: str("session_id"),
	}
	if snap.ID == "" {
		snap.ID = "legacy-" + strconv.Itoa(index+1)
	}

	if ts := str("Timestamp", "timestamp"); ts != "" {
		t, err := parseLegacyTime(ts)
		if err != nil {
			return nil, err
		}
		snap.Timestamp = t
	}

	switch {
	case len(fields["answers"]) > 0 && fields["answers"][0] == '{':
		if err := json.Unmarshal(fields["answers"], &snap.Answers); err != nil {
			return nil, fmt.Errorf("answers: %w", err)
		}
	case str("Detailed_Answers") != "":
		if err := json.Unmarshal([]byte(str("Detailed_Answers")), &snap.Answers); err != nil {
			// the legacy tool also ignored unparsable detail blobs
			snap.Answers = nil
		}
	}
	if snap.Answers == nil {
		snap.Answers = models.NewAnswers()
	}

	optional := []struct {
		key  string
		dest any
	}{
		{"scores", &snap.Scores},
		{"weights", &snap.Weights},
		{"theme_scores", &snap.ThemeScores},
		{"overall", &snap.Overall},
		{"overall_scaled", &snap.OverallScaled},
	}
	for _, o := range optional {
		if v, ok := fields[o.key]; ok {
			if err := json.Unmarshal(v, o.dest); err != nil {
				return nil, fmt.Errorf("%s: %w", o.key, err)
			}
		}
	}

	return snap, nil
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseLegacyTime(s string) (time.Time, error) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
