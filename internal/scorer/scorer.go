// Package scorer runs the daily batch: team predictions merged into the live
// odds payload, player projections, and player props with model edges.
package scorer

import (
	"context"
	"time"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/config"
	"openbet/backend/internal/models"
	"openbet/backend/internal/roster"
	"openbet/backend/internal/snapshot"

	"github.com/shopspring/decimal"
)

// OddsSource is the subset of the odds API client the scorer needs.
type OddsSource interface {
	FetchOdds(ctx context.Context, markets []string) ([]models.Event, error)
	FetchEvents(ctx context.Context) ([]models.Event, error)
	FetchEventOdds(ctx context.Context, eventID string, markets []string) (*models.Event, error)
}

// RosterSource yields the player -> team map.
type RosterSource interface {
	Load(ctx context.Context) (roster.Map, error)
}

// Archive stores team predictions beyond the JSON snapshot.
type Archive interface {
	SaveGamePredictions(ctx context.Context, preds []models.GamePrediction) error
}

// Options tunes a Scorer.
type Options struct {
	SideMode string    // config.PropsSideResolved (default) or config.PropsSideBoth
	Archive  Archive   // optional
	Now      func() time.Time
}

// Scorer produces the daily snapshot files from the loaded artifacts.
type Scorer struct {
	odds     OddsSource
	store    *artifact.Store
	rosters  RosterSource
	out      snapshot.Dir
	archive  Archive
	sideMode string
	now      func() time.Time
}

// New creates a scorer writing into out.
func New(odds OddsSource, store *artifact.Store, rosters RosterSource, out snapshot.Dir, opts Options) *Scorer {
	if opts.SideMode == "" {
		opts.SideMode = config.PropsSideResolved
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scorer{
		odds:     odds,
		store:    store,
		rosters:  rosters,
		out:      out,
		archive:  opts.Archive,
		sideMode: opts.SideMode,
		now:      opts.Now,
	}
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func ptr(v float64) *float64 { return &v }
