package scorer

import (
	"context"
	"errors"
	"sort"

	"openbet/backend/internal/features"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/models"
	"openbet/backend/internal/snapshot"

	"github.com/rs/zerolog/log"
)

// ErrNoPlayerModels is returned when projections are requested without a
// loaded player artifact.
var ErrNoPlayerModels = errors.New("player models not loaded")

const defaultPlayerName = "NBA Player"

// ProjectPlayers projects every target for every player in the player artifact
// from their latest snapshot and writes player_projections.json.
func (s *Scorer) ProjectPlayers(ctx context.Context) (*models.PlayerProjections, error) {
	m := s.store.Players()
	if m == nil {
		log.Warn().Msg("No player models loaded, projections skipped")
		return nil, ErrNoPlayerModels
	}

	ids := make([]string, 0, len(m.Latest))
	for id := range m.Latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	projections := make([]models.PlayerProjection, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := m.Latest[id]
		p := models.PlayerProjection{PlayerID: id, Name: row.Name}
		if p.Name == "" {
			p.Name = defaultPlayerName
		}
		for _, target := range features.PlayerTargets {
			if v, ok := m.PredictLatest(target, row); ok {
				p.Set(target, round(v, 2))
			}
		}
		projections = append(projections, p)
		metrics.RecordPrediction("player_projection", "success")
	}

	now := s.now()
	out := &models.PlayerProjections{
		Date:        now.Format("2006-01-02"),
		Projections: projections,
		LastUpdated: snapshot.Timestamp(now),
	}
	if err := s.out.WritePlayerProjections(out); err != nil {
		return nil, err
	}

	log.Info().Int("players", len(projections)).Msg("Player projections written")
	return out, nil
}
