package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/terra-clan/circular-readiness/internal/models"
)

// snapshotBlobs holds the JSON-encoded columns of a snapshot row
type snapshotBlobs struct {
	answers     []byte
	weights     []byte
	scores      []byte
	themeScores []byte
}

func encodeSnapshot(snap *models.Snapshot) (snapshotBlobs, error) {
	var b snapshotBlobs
	var err error

	answers := snap.Answers
	if answers == nil {
		answers = models.NewAnswers()
	}
	if b.answers, err = json.Marshal(answers); err != nil {
		return b, fmt.Errorf("failed to marshal answers: %w", err)
	}
	if b.weights, err = json.Marshal(snap.Weights); err != nil {
		return b, fmt.Errorf("failed to marshal weights: %w", err)
	}
	if b.scores, err = json.Marshal(snap.Scores); err != nil {
		return b, fmt.Errorf("failed to marshal scores: %w", err)
	}
	if b.themeScores, err = json.Marshal(snap.ThemeScores); err != nil {
		return b, fmt.Errorf("failed to marshal theme scores: %w", err)
	}
	return b, nil
}

func (b snapshotBlobs) decodeInto(snap *models.Snapshot) error {
	if len(b.answers) > 0 {
		if err := json.Unmarshal(b.answers, &snap.Answers); err != nil {
			return fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}
	if snap.Answers == nil {
		snap.Answers = models.NewAnswers()
	}
	if len(b.weights) > 0 {
		if err := json.Unmarshal(b.weights, &snap.Weights); err != nil {
			return fmt.Errorf("failed to unmarshal weights: %w", err)
		}
	}
	if len(b.scores) > 0 {
		if err := json.Unmarshal(b.scores, &snap.Scores); err != nil {
			return fmt.Errorf("failed to unmarshal scores: %w", err)
		}
	}
	if len(b.themeScores) > 0 {
		if err := json.Unmarshal(b.themeScores, &snap.ThemeScores); err != nil {
			return fmt.Errorf("failed to unmarshal theme scores: %w", err)
		}
	}
	return nil
}

// dialect covers the SQL differences between PostgreSQL and SQLite
type dialect struct {
	placeholder func(n int) string
	noLimit     string
}

var (
	postgresDialect = dialect{
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		noLimit:     "ALL",
	}
	sqliteDialect = dialect{
		placeholder: func(int) string { return "?" },
		noLimit:     "-1",
	}
)

// listWhere builds the WHERE / ORDER / LIMIT / OFFSET tail of a snapshot
// listing, oldest first.
func listWhere(filters models.ListFilters, d dialect) (string, []any) {
	placeholder := d.placeholder
	var sb strings.Builder
	args := make([]any, 0, 4)

	sb.WriteString(" WHERE 1=1")
	if filters.Product != "" {
		args = append(args, filters.Product)
		sb.WriteString(" AND product = " + placeholder(len(args)))
	}
	if filters.Company != "" {
		args = append(args, filters.Company)
		sb.WriteString(" AND company = " + placeholder(len(args)))
	}

	sb.WriteString(" ORDER BY created_at ASC, id ASC")

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		sb.WriteString(" LIMIT " + placeholder(len(args)))
	}
	if filters.Offset > 0 {
		if filters.Limit <= 0 {
			sb.WriteString(" LIMIT " + d.noLimit)
		}
		args = append(args, filters.Offset)
		sb.WriteString(" OFFSET " + placeholder(len(args)))
	}

	return sb.String(), args
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// encodeClientJSON returns the permissions and metadata columns; metadata is NULL when empty
func encodeClientJSON(permissions []string, metadata map[string]string) ([2]any, error) {
	var out [2]any
	p, err := json.Marshal(permissions)
	if err != nil {
		return out, fmt.Errorf("failed to marshal permissions: %w", err)
	}
	out[0] = string(p)
	if len(metadata) > 0 {
		m, err := json.Marshal(metadata)
		if err != nil {
			return out, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		out[1] = string(m)
	}
	return out, nil
}
