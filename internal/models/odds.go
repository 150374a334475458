package models

// Event is a game as returned by The Odds API (odds, events and event-odds endpoints).
// OpenBetPrediction is attached by the daily scorer; nil serializes as null.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key,omitempty"`
	SportTitle   string      `json:"sport_title,omitempty"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers,omitempty"`

	OpenBetPrediction *TeamPrediction `json:"openbet_prediction"`
}

// Bookmaker holds one sportsbook's markets for an event.
type Bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update,omitempty"`
	Markets    []Market `json:"markets"`
}

// Market is one betting market (h2h, spreads, player_points, ...).
type Market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update,omitempty"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is a priced selection. For player props Name is "Over"/"Under"
// and Description carries the player.
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}

// BookName prefers the human title over the key.
func (b *Bookmaker) BookName() string {
	if b.Title != "" {
		return b.Title
	}
	return b.Key
}

// Player returns the player an outcome refers to.
func (o *Outcome) Player() string {
	if o.Description != "" {
		return o.Description
	}
	return o.Name
}
