package models

import (
	"database/sql"
	"time"
)

// Team sides for player props
const (
	SideHome    = "HOME"
	SideAway    = "AWAY"
	SideUnknown = "UNKNOWN"
)

// TeamPrediction is the model output attached to a live odds event.
type TeamPrediction struct {
	PredictedHomeScore float64 `json:"predicted_home_score"`
	PredictedAwayScore float64 `json:"predicted_away_score"`
	PredictedMargin    float64 `json:"predicted_margin"`
	PredictedWinner    string  `json:"predicted_winner"`
}

// TodaysData is the payload of todays_data.json.
type TodaysData struct {
	Games       []Event `json:"games"`
	LastUpdated string  `json:"last_updated"`
}

// HistoryEntry is one replayed game in prediction_history.json.
type HistoryEntry struct {
	GameID             string  `json:"game_id"`
	Date               string  `json:"date"`
	HomeTeam           string  `json:"home_team"`
	AwayTeam           string  `json:"away_team"`
	PredictedWinner    string  `json:"predicted_winner"`
	ActualWinner       string  `json:"actual_winner"`
	IsCorrect          bool    `json:"is_correct"`
	PredictedHomeScore float64 `json:"predicted_home_score"`
	PredictedAwayScore float64 `json:"predicted_away_score"`
}

// PredictionHistory is the payload of prediction_history.json.
type PredictionHistory struct {
	Games       []HistoryEntry `json:"games"`
	LastUpdated string         `json:"last_updated"`
}

// PropRecord is one sportsbook player-prop outcome with the model's view of it.
type PropRecord struct {
	GameID       string   `json:"game_id"`
	HomeTeam     string   `json:"home_team"`
	AwayTeam     string   `json:"away_team"`
	CommenceTime string   `json:"commence_time"`
	TeamSide     string   `json:"team_side"`
	Bookmaker    string   `json:"bookmaker"`
	Market       string   `json:"market"`
	Player       string   `json:"player"`
	Line         *float64 `json:"line"`
	Price        float64  `json:"price"`
	OverUnder    string   `json:"over_under"`
	Prediction   *float64 `json:"prediction"`
	Edge         *float64 `json:"edge"`
}

// PlayerPropsSnapshot is the payload of player_props.json.
type PlayerPropsSnapshot struct {
	Props       []PropRecord `json:"props"`
	LastUpdated string       `json:"last_updated"`
}

// PlayerProjection holds per-target projections for one player.
type PlayerProjection struct {
	PlayerID          string  `json:"player_id"`
	Name              string  `json:"name"`
	Points            float64 `json:"points"`
	ReboundsTotal     float64 `json:"reboundsTotal"`
	Assists           float64 `json:"assists"`
	ThreePointersMade float64 `json:"threePointersMade"`
}

// Set stores a projection by target column name.
func (p *PlayerProjection) Set(target string, value float64) {
	switch target {
	case "points":
		p.Points = value
	case "reboundsTotal":
		p.ReboundsTotal = value
	case "assists":
		p.Assists = value
	case "threePointersMade":
		p.ThreePointersMade = value
	}
}

// PlayerProjections is the payload of player_projections.json.
type PlayerProjections struct {
	Date        string             `json:"date"`
	Projections []PlayerProjection `json:"projections"`
	LastUpdated string             `json:"last_updated"`
}

// GamePrediction is an archived team-score prediction row.
type GamePrediction struct {
	ID           int            `db:"id"`
	EventID      string         `db:"event_id"`
	ModelName    string         `db:"model_name"`
	ModelVersion sql.NullString `db:"model_version"`

	HomeTeam     string    `db:"home_team"`
	AwayTeam     string    `db:"away_team"`
	CommenceTime time.Time `db:"commence_time"`

	PredictedHomeScore float64 `db:"predicted_home_score"`
	PredictedAwayScore float64 `db:"predicted_away_score"`
	PredictedMargin    float64 `db:"predicted_margin"`
	PredictedWinner    string  `db:"predicted_winner"`

	PredictedAt time.Time `db:"predicted_at"`
	CreatedAt   time.Time `db:"created_at"`
}
