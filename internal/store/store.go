// Package store provides persistence for published statistics runs.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradestat/internal/analytics"
)

// RunStore defines the interface for run history persistence.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunSummary, error)
	Prune(ctx context.Context, keep int) (int, error)

	// Lifecycle
	Close() error
}

// RunSummary is the indexed part of a stored run.
type RunSummary struct {
	ID          uuid.UUID `json:"id"`
	Sequence    uint64    `json:"sequence"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source,omitempty"`
	TradeCount  int       `json:"trade_count"`
	FaultCount  int       `json:"fault_count"`
	NetPips     float64   `json:"net_pips"`
	NetVPips    float64   `json:"net_vpips"`
}

// Run is a stored run with its full report.
type Run struct {
	RunSummary
	Report analytics.Report `json:"report"`
}

// RunFilter represents filters for listing runs.
type RunFilter struct {
	Since  time.Time
	Source string
	Limit  int
}

// NewRun builds a storable run from a report.
func NewRun(id uuid.UUID, sequence uint64, publishedAt time.Time, source string, report analytics.Report) *Run {
	all := report.Snapshot.General.All
	return &Run{
		RunSummary: RunSummary{
			ID:          id,
			Sequence:    sequence,
			PublishedAt: publishedAt.UTC(),
			Source:      source,
			TradeCount:  report.Snapshot.TradeCount,
			FaultCount:  len(report.Faults),
			NetPips:     all.Pips.Net,
			NetVPips:    all.ValuePips.Net,
		},
		Report: report,
	}
}
