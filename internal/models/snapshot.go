package models

import "time"

// Snapshot is a saved assessment in the append-only history
type Snapshot struct {
	ID            string                         `json:"id"`
	Timestamp     time.Time                      `json:"timestamp"`
	Product       string                         `json:"product"`
	Company       string                         `json:"company"`
	Answers       Answers                        `json:"answers"`
	Weights       map[string]float64             `json:"weights,omitempty"` // normalized
	Scores        map[string]map[string]*float64 `json:"scores,omitempty"`  // indicator scores, null when unanswered
	ThemeScores   map[string]float64             `json:"theme_scores,omitempty"`
	Overall       float64                        `json:"overall"`
	OverallScaled float64                        `json:"overall_scaled"`
	Maturity      string                         `json:"maturity,omitempty"`
	SessionID     string                         `json:"session_id,omitempty"`
}

// ListFilters contains filters for listing snapshots
type ListFilters struct {
	Product string
	Company string
	Limit   int
	Offset  int
}
