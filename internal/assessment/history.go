package assessment

import (
	"time"

	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
)

// ComparisonRow is one saved assessment re-scored against the current catalog
type ComparisonRow struct {
	SnapshotID    string             `json:"snapshotId"`
	Timestamp     time.Time          `json:"timestamp"`
	Product       string             `json:"product"`
	Company       string             `json:"company"`
	ThemeScores   map[string]float64 `json:"themeScores"`
	Overall       float64            `json:"overall"`
	OverallScaled float64            `json:"overallScaled"`
	Maturity      string             `json:"maturity"`
	Answered      int                `json:"answered"`
}

// ComparisonSummary aggregates the comparison table
type ComparisonSummary struct {
	Count          int        `json:"count"`
	AverageScaled  *float64   `json:"averageScaled"` // null when history is empty
	LatestAt       *time.Time `json:"latestAt,omitempty"`
	LatestProduct  string     `json:"latestProduct,omitempty"`
	BestSnapshotID string     `json:"bestSnapshotId,omitempty"`
}

// Comparison is the history overview: one row per snapshot, themes in catalog order
type Comparison struct {
	Themes  []string          `json:"themes"`
	Rows    []ComparisonRow   `json:"rows"`
	Summary ComparisonSummary `json:"summary"`
}

// DetailRow is a single answered question of a saved assessment
type DetailRow struct {
	SnapshotID string    `json:"snapshotId"`
	Timestamp  time.Time `json:"timestamp"`
	Product    string    `json:"product"`
	Company    string    `json:"company"`
	Theme      string    `json:"theme"`
	Indicator  string    `json:"indicator"`
	Code       string    `json:"code"`
	Score      float64   `json:"score"`
}

// snapshotWeights returns the weights saved with the snapshot, or the
// catalog defaults for records saved without any
func snapshotWeights(cat *models.Catalog, snap *models.Snapshot) map[string]float64 {
	if len(snap.Weights) > 0 && scoring.Sum(snap.Weights) > 0 {
		return snap.Weights
	}
	return cat.DefaultWeights()
}

// BuildComparison recomputes every snapshot from its stored answers.
// Theme scores follow the current catalog, so records saved under an older
// catalog version are compared on equal terms. Unanswered themes leave the
// weighted total's denominator, same as live scoring.
func BuildComparison(cat *models.Catalog, snapshots []*models.Snapshot) Comparison {
	cmp := Comparison{
		Themes: cat.ThemeNames(),
		Rows:   make([]ComparisonRow, 0, len(snapshots)),
	}

	var total float64
	var best float64 = -1
	for _, snap := range snapshots {
		result := scoring.Evaluate(cat, snap.Answers, snapshotWeights(cat, snap))

		row := ComparisonRow{
			SnapshotID:    snap.ID,
			Timestamp:     snap.Timestamp,
			Product:       snap.Product,
			Company:       snap.Company,
			ThemeScores:   result.ThemeScores(),
			Overall:       result.Overall,
			OverallScaled: result.OverallScaled,
			Maturity:      result.Maturity.Name,
			Answered:      result.Progress.Answered,
		}
		cmp.Rows = append(cmp.Rows, row)

		total += row.OverallScaled
		if row.OverallScaled > best {
			best = row.OverallScaled
			cmp.Summary.BestSnapshotID = row.SnapshotID
		}
	}

	cmp.Summary.Count = len(cmp.Rows)
	if n := len(cmp.Rows); n > 0 {
		avg := total / float64(n)
		cmp.Summary.AverageScaled = &avg

		// history is ordered oldest first
		latest := cmp.Rows[n-1]
		ts := latest.Timestamp
		cmp.Summary.LatestAt = &ts
		cmp.Summary.LatestProduct = latest.Product
	}

	return cmp
}

// BuildDetails lists every answered question of every snapshot in catalog order
func BuildDetails(cat *models.Catalog, snapshots []*models.Snapshot) []DetailRow {
	rows := make([]DetailRow, 0)
	for _, snap := range snapshots {
		for _, theme := range cat.Themes {
			for _, ind := range theme.Indicators {
				for _, q := range ind.Questions {
					score, ok := snap.Answers.Get(theme.Name, ind.Name, q.Code)
					if !ok {
						continue
					}
					rows = append(rows, DetailRow{
						SnapshotID: snap.ID,
						Timestamp:  snap.Timestamp,
						Product:    snap.Product,
						Company:    snap.Company,
						Theme:      theme.Name,
						Indicator:  ind.Name,
						Code:       q.Code,
						Score:      score,
					})
				}
			}
		}
	}
	return rows
}
