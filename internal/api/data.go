package api

import (
	"errors"
	"io/fs"
	"net/http"

	"openbet/backend/internal/arbitrage"
	"openbet/backend/internal/client"
	"openbet/backend/internal/dataset"
	"openbet/backend/internal/metrics"
	"openbet/backend/internal/models"
	"openbet/backend/internal/snapshot"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Rows returned by /historical-data when no date is given.
const historicalLimit = 20

// Messages for snapshots the batch jobs have not written yet
const (
	msgNoBoxScores  = "No box-score data found. Run the pipeline download first."
	msgNoDailyData  = "No daily data found. Run the daily pipeline first."
	msgNoHistory    = "No history file. Run the history pipeline stage first."
	msgNoProps      = "No player props snapshot found. Run the props pipeline stage first."
	msgNoProjection = "No player projections found. Run the daily pipeline with player models enabled."
)

// HistoricalGame is one row of /historical-data.
type HistoricalGame struct {
	GameDate     string   `json:"game_date"`
	TeamNameHome string   `json:"team_name_home"`
	TeamNameAway string   `json:"team_name_away"`
	PtsHome      *float64 `json:"pts_home"`
	PtsAway      *float64 `json:"pts_away"`
}

type historicalQuery struct {
	Date string `form:"date" binding:"omitempty,isodate"`
}

func (s *Server) historicalData(c *gin.Context) {
	var q historicalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	games, err := dataset.LoadGames(dataset.Paths{Dir: s.deps.BoxScoreDir}.Games())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgNoBoxScores})
			return
		}
		log.Error().Err(err).Msg("Failed to load historical games")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load box-score data"})
		return
	}

	limit := historicalLimit
	if q.Date != "" {
		limit = 0
	}
	c.JSON(http.StatusOK, historicalRows(dataset.RecentGames(games, q.Date, limit)))
}

// historicalRows maps games to response rows; missing scores stay null.
func historicalRows(games []models.Game) []HistoricalGame {
	out := make([]HistoricalGame, 0, len(games))
	for _, g := range games {
		row := HistoricalGame{
			GameDate:     g.GameDate(),
			TeamNameHome: g.HomeTeamName,
			TeamNameAway: g.AwayTeamName,
		}
		if g.HomeScore.Valid {
			v := g.HomeScore.Float64
			row.PtsHome = &v
		}
		if g.AwayScore.Valid {
			v := g.AwayScore.Float64
			row.PtsAway = &v
		}
		out = append(out, row)
	}
	return out
}

// snapshotError maps a snapshot read failure to a response.
func snapshotError(c *gin.Context, err error, missing string) {
	if errors.Is(err, snapshot.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": missing})
		return
	}
	log.Error().Err(err).Msg("Failed to read snapshot")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) liveOdds(c *gin.Context) {
	data, err := s.deps.Snapshots.TodaysData()
	if err != nil {
		snapshotError(c, err, msgNoDailyData)
		return
	}
	games := data.Games
	if games == nil {
		games = []models.Event{}
	}
	c.JSON(http.StatusOK, games)
}

func (s *Server) predictionHistory(c *gin.Context) {
	data, err := s.deps.Snapshots.PredictionHistory()
	if err != nil {
		snapshotError(c, err, msgNoHistory)
		return
	}
	if data.Games == nil {
		data.Games = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) playerProps(c *gin.Context) {
	data, err := s.deps.Snapshots.PlayerProps()
	if err != nil {
		snapshotError(c, err, msgNoProps)
		return
	}
	props := data.Props
	if props == nil {
		props = []models.PropRecord{}
	}
	c.JSON(http.StatusOK, props)
}

func (s *Server) playerProjections(c *gin.Context) {
	data, err := s.deps.Snapshots.PlayerProjections()
	if err != nil {
		snapshotError(c, err, msgNoProjection)
		return
	}
	projections := data.Projections
	if projections == nil {
		projections = []models.PlayerProjection{}
	}
	c.JSON(http.StatusOK, projections)
}

func (s *Server) arbitrage(c *gin.Context) {
	if s.deps.Odds == nil {
		unavailable(c, "Odds feed")
		return
	}

	events, err := s.deps.Odds.FetchOdds(c.Request.Context(), []string{arbitrage.MarketH2H})
	if err != nil {
		log.Error().Err(err).Msg("Arbitrage odds fetch failed")
		metrics.RecordError("api", "arbitrage_odds")

		body := gin.H{"error": err.Error()}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			body["body"] = apiErr.Body
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	opps := arbitrage.Scan(events, s.deps.Bankroll)
	metrics.RecordArbitrageScan(len(opps))
	log.Info().
		Int("events", len(events)).
		Int("opportunities", len(opps)).
		Msg("Arbitrage scan complete")

	c.JSON(http.StatusOK, opps)
}
