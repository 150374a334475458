package scorer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"openbet/backend/internal/artifact"
	"openbet/backend/internal/client"
	"openbet/backend/internal/config"
	"openbet/backend/internal/features"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/models"
	"openbet/backend/internal/roster"
	"openbet/backend/internal/snapshot"

	"github.com/rs/zerolog/log"
)

// marketTargets maps single-stat prop markets to player model targets.
var marketTargets = map[string]string{
	client.MarketPlayerPoints:   features.ColPoints,
	client.MarketPlayerRebounds: features.ColRebounds,
	client.MarketPlayerAssists:  features.ColAssists,
	client.MarketPlayerThrees:   features.ColThrees,
}

// praTargets are summed for the points+rebounds+assists market.
var praTargets = []string{features.ColPoints, features.ColRebounds, features.ColAssists}

var propMarkets = func() map[string]bool {
	m := make(map[string]bool, len(client.PlayerPropMarkets))
	for _, k := range client.PlayerPropMarkets {
		m[k] = true
	}
	return m
}()

// PredictProp predicts a player's stat for a prop market. side is the player's
// resolved side; the defensive context is the other team's. ok is false when
// the player, market or model is unknown.
func PredictProp(m *artifact.PlayerModels, market, player, side, homeTeam, awayTeam string) (float64, bool) {
	if m == nil || (side != models.SideHome && side != models.SideAway) {
		return 0, false
	}
	row, ok := m.FindPlayer(player, roster.NormalizePlayerName)
	if !ok {
		return 0, false
	}

	opponent := awayTeam
	if side == models.SideAway {
		opponent = homeTeam
	}
	var defense features.Row
	if id, ok := roster.ResolveTeamID(opponent); ok {
		defense = m.Defense[id]
	}
	home := side == models.SideHome

	if market == client.MarketPlayerPRA {
		total := 0.0
		for _, t := range praTargets {
			v, ok := m.PredictStat(t, row, defense, home)
			if !ok {
				return 0, false
			}
			total += v
		}
		return total, true
	}

	target, ok := marketTargets[market]
	if !ok {
		return 0, false
	}
	return m.PredictStat(target, row, defense, home)
}

// CollectProps lists upcoming events, fetches each event's player prop markets
// and writes player_props.json. Events the upstream cannot serve are skipped;
// failing to list events is an error.
func (s *Scorer) CollectProps(ctx context.Context) (*models.PlayerPropsSnapshot, error) {
	events, err := s.odds.FetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	sides := roster.Map{}
	if s.rosters != nil {
		m, err := s.rosters.Load(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Player-team map unavailable, all props unresolved")
			metrics.RecordError("scorer", "roster")
		} else {
			sides = m
		}
	}

	players := s.store.Players()
	if players == nil {
		log.Warn().Msg("No player models loaded, prop predictions disabled")
	}

	props := make([]models.PropRecord, 0)
	skipped := 0
	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		odds, err := s.odds.FetchEventOdds(ctx, ev.ID, client.PlayerPropMarkets)
		if err != nil {
			skipped++
			logSkippedEvent(ev.ID, err)
			continue
		}
		props = append(props, s.eventProps(&ev, odds, sides, players)...)
	}

	out := &models.PlayerPropsSnapshot{Props: props, LastUpdated: snapshot.Timestamp(s.now())}
	if err := s.out.WritePlayerProps(out); err != nil {
		return nil, err
	}

	log.Info().
		Int("events", len(events)).
		Int("skipped_events", skipped).
		Int("props", len(props)).
		Str("side_mode", s.sideMode).
		Msg("Player props written")
	return out, nil
}

func logSkippedEvent(eventID string, err error) {
	switch code := client.StatusCode(err); {
	case errors.Is(err, client.ErrNoContent):
		log.Debug().Str("event_id", eventID).Msg("No prop markets for event")
	case code == http.StatusUnprocessableEntity:
		log.Debug().Str("event_id", eventID).Msg("Prop markets not offered for event")
	case code == http.StatusTooManyRequests:
		log.Warn().Str("event_id", eventID).Msg("Rate limited, skipping props for event")
	default:
		log.Warn().Err(err).Str("event_id", eventID).Msg("Event odds failed, skipping")
		metrics.RecordError("scorer", "event_odds")
	}
}

// eventProps flattens one event's bookmaker outcomes into prop records. Event
// metadata comes from the listing; prices from the event odds.
func (s *Scorer) eventProps(ev, odds *models.Event, sides roster.Map, players *artifact.PlayerModels) []models.PropRecord {
	type predKey struct{ player, market, side string }
	cache := make(map[predKey]*float64)
	predict := func(player, market, side string) *float64 {
		k := predKey{player, market, side}
		if p, ok := cache[k]; ok {
			return p
		}
		var p *float64
		if v, ok := PredictProp(players, market, player, side, ev.HomeTeam, ev.AwayTeam); ok {
			p = ptr(round(v, 2))
		}
		cache[k] = p
		return p
	}

	var out []models.PropRecord
	for _, book := range odds.Bookmakers {
		for _, market := range book.Markets {
			if !propMarkets[market.Key] {
				continue
			}
			for _, o := range market.Outcomes {
				player := o.Player()
				side := sides.Side(player, ev.HomeTeam, ev.AwayTeam)

				base := models.PropRecord{
					GameID:       ev.ID,
					HomeTeam:     ev.HomeTeam,
					AwayTeam:     ev.AwayTeam,
					CommenceTime: ev.CommenceTime,
					Bookmaker:    book.BookName(),
					Market:       market.Key,
					Player:       player,
					Line:         o.Point,
					Price:        o.Price,
					OverUnder:    o.Name,
				}

				buckets := []string{side}
				if s.sideMode == config.PropsSideBoth {
					buckets = []string{models.SideHome, models.SideAway}
				}
				for _, bucket := range buckets {
					rec := base
					rec.TeamSide = bucket
					// in both mode only the bucket matching the roster carries a prediction
					if bucket == side {
						rec.Prediction = predict(player, market.Key, side)
					}
					if rec.Prediction != nil && rec.Line != nil {
						rec.Edge = ptr(round(*rec.Prediction-*rec.Line, 2))
					}
					status := "unresolved"
					if rec.Prediction != nil {
						status = "success"
					}
					metrics.RecordPrediction("prop", status)
					out = append(out, rec)
				}
			}
		}
	}
	return out
}
