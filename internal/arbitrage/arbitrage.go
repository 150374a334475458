// Package arbitrage finds two-way moneyline arbitrage across sportsbooks.
package arbitrage

import (
	"openbet/backend/internal/models"

	"github.com/shopspring/decimal"
)

// MarketH2H is the moneyline market key.
const MarketH2H = "h2h"

// ImpliedProbability converts American odds to the bookmaker's implied
// probability. Prices strictly between -100 and +100 are not valid American
// odds and report ok=false.
func ImpliedProbability(price float64) (float64, bool) {
	switch {
	case price >= 100:
		return 100 / (price + 100), true
	case price <= -100:
		return -price / (-price + 100), true
	}
	return 0, false
}

// DecimalOdds converts American odds to the total return per unit staked.
func DecimalOdds(price float64) float64 {
	if price > 0 {
		return 1 + price/100
	}
	return 1 + 100/(-price)
}

// Quote is the best price found for one side.
type Quote struct {
	Price float64
	Book  string
}

// BestPrices picks the highest h2h price for each side across bookmakers.
// A side with no valid quote is nil.
func BestPrices(ev models.Event) (home, away *Quote) {
	for _, b := range ev.Bookmakers {
		for _, m := range b.Markets {
			if m.Key != MarketH2H {
				continue
			}
			for _, o := range m.Outcomes {
				if _, ok := ImpliedProbability(o.Price); !ok {
					continue
				}
				switch o.Name {
				case ev.HomeTeam:
					if home == nil || o.Price > home.Price {
						home = &Quote{Price: o.Price, Book: b.BookName()}
					}
				case ev.AwayTeam:
					if away == nil || o.Price > away.Price {
						away = &Quote{Price: o.Price, Book: b.BookName()}
					}
				}
			}
		}
	}
	return home, away
}

// Assessment is the unrounded arithmetic for one pair of prices.
type Assessment struct {
	HomeProb         float64
	AwayProb         float64
	TotalImplied     float64
	StakeHome        float64
	StakeAway        float64
	Return           float64
	GuaranteedProfit float64
}

// IsOpportunity reports whether the best prices sum below certainty.
func (a Assessment) IsOpportunity() bool {
	return a.TotalImplied < 1
}

// Assess sizes stakes over bankroll proportionally to each side's implied
// probability. Since decimal odds are the reciprocal of implied probability,
// each stake returns bankroll/total whichever side wins, and the profit is
// positive exactly when total < 1.
func Assess(homePrice, awayPrice, bankroll float64) (Assessment, bool) {
	ph, ok := ImpliedProbability(homePrice)
	if !ok {
		return Assessment{}, false
	}
	pa, ok := ImpliedProbability(awayPrice)
	if !ok {
		return Assessment{}, false
	}

	total := ph + pa
	a := Assessment{
		HomeProb:     ph,
		AwayProb:     pa,
		TotalImplied: total,
		StakeHome:    bankroll * ph / total,
		StakeAway:    bankroll * pa / total,
	}
	a.Return = a.StakeHome * DecimalOdds(homePrice)
	a.GuaranteedProfit = a.Return - (a.StakeHome + a.StakeAway)
	return a, true
}

// Opportunity is a reported arbitrage with money rounded to cents.
type Opportunity struct {
	GameID              string  `json:"game_id"`
	HomeTeam            string  `json:"home_team"`
	AwayTeam            string  `json:"away_team"`
	CommenceTime        string  `json:"commence_time"`
	HomeBook            string  `json:"home_book"`
	HomePrice           float64 `json:"home_price"`
	AwayBook            string  `json:"away_book"`
	AwayPrice           float64 `json:"away_price"`
	TotalImpliedProb    float64 `json:"total_implied_prob"`
	EdgePercent         float64 `json:"edge_percent"`
	Bankroll            float64 `json:"bankroll"`
	StakeHome           float64 `json:"stake_home"`
	StakeAway           float64 `json:"stake_away"`
	GuaranteedProfit    float64 `json:"guaranteed_profit"`
	GuaranteedProfitPct float64 `json:"guaranteed_profit_pct"`
}

// Evaluate assesses one event; ok is false when either side lacks a price.
// The returned Opportunity is filled in even when there is no edge.
func Evaluate(ev models.Event, bankroll float64) (Opportunity, Assessment, bool) {
	home, away := BestPrices(ev)
	if home == nil || away == nil {
		return Opportunity{}, Assessment{}, false
	}
	a, ok := Assess(home.Price, away.Price, bankroll)
	if !ok {
		return Opportunity{}, Assessment{}, false
	}

	return Opportunity{
		GameID:              ev.ID,
		HomeTeam:            ev.HomeTeam,
		AwayTeam:            ev.AwayTeam,
		CommenceTime:        ev.CommenceTime,
		HomeBook:            home.Book,
		HomePrice:           home.Price,
		AwayBook:            away.Book,
		AwayPrice:           away.Price,
		TotalImpliedProb:    round(a.TotalImplied*100, 2),
		EdgePercent:         round((1-a.TotalImplied)*100, 2),
		Bankroll:            round(bankroll, 2),
		StakeHome:           round(a.StakeHome, 2),
		StakeAway:           round(a.StakeAway, 2),
		GuaranteedProfit:    round(a.GuaranteedProfit, 2),
		GuaranteedProfitPct: round(a.GuaranteedProfit/bankroll*100, 2),
	}, a, true
}

// Scan returns the arbitrage opportunities among events, in input order.
func Scan(events []models.Event, bankroll float64) []Opportunity {
	out := make([]Opportunity, 0)
	for _, ev := range events {
		opp, a, ok := Evaluate(ev, bankroll)
		if ok && a.IsOpportunity() {
			out = append(out, opp)
		}
	}
	return out
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
