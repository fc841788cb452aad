package refresh

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is what a cycle did with one asset.
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// AssetResult records the outcome for a single asset within a cycle.
type AssetResult struct {
	AssetID string           `json:"asset_id"`
	Symbol  string           `json:"symbol,omitempty"`
	Kind    string           `json:"kind"`
	Outcome Outcome          `json:"outcome"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// CycleReport summarizes one refresh cycle.
type CycleReport struct {
	Trigger    string        `json:"trigger"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Attempted  int           `json:"attempted"`
	Updated    int           `json:"updated"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Error      string        `json:"error,omitempty"`
	Results    []AssetResult `json:"results"`
}

// Duration returns how long the cycle ran.
func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *CycleReport) add(res AssetResult) {
	switch res.Outcome {
	case OutcomeUpdated:
		r.Updated++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
	r.Results = append(r.Results, res)
}
