package arbitrage

import (
	"testing"

	"openbet/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedProbability(t *testing.T) {
	p, ok := ImpliedProbability(100)
	require.True(t, ok)
	assert.Equal(t, 0.5, p)

	p, ok = ImpliedProbability(-100)
	require.True(t, ok)
	assert.Equal(t, 0.5, p)

	p, _ = ImpliedProbability(-150)
	assert.InDelta(t, 0.6, p, 1e-12)

	_, ok = ImpliedProbability(50)
	assert.False(t, ok, "prices inside (-100, 100) are not American odds")
}

func TestImpliedProbability_Monotone(t *testing.T) {
	prev := 1.0
	for price := 100.0; price <= 2000; price += 25 {
		p, ok := ImpliedProbability(price)
		require.True(t, ok)
		assert.Less(t, p, prev+1e-15, "positive odds: probability falls as the price rises")
		assert.True(t, p > 0 && p <= 0.5)
		prev = p
	}

	prev = 0
	for price := -100.0; price >= -2000; price -= 25 {
		p, ok := ImpliedProbability(price)
		require.True(t, ok)
		assert.Greater(t, p, prev-1e-15, "negative odds: probability rises with the magnitude")
		assert.True(t, p >= 0.5 && p < 1)
		prev = p
	}
}

func TestAssess_ProfitSign(t *testing.T) {
	prices := []float64{-400, -250, -150, -110, -100, 100, 105, 120, 150, 200, 300}
	for _, h := range prices {
		for _, a := range prices {
			res, ok := Assess(h, a, 100)
			require.True(t, ok)
			if res.TotalImplied < 1 {
				assert.Greater(t, res.GuaranteedProfit, 0.0, "home %v away %v", h, a)
			} else {
				assert.LessOrEqual(t, res.GuaranteedProfit, 1e-9, "home %v away %v", h, a)
			}
			// equal return on either outcome
			assert.InDelta(t, res.StakeHome*DecimalOdds(h), res.StakeAway*DecimalOdds(a), 1e-9)
		}
	}
}

func event(id string, books ...models.Bookmaker) models.Event {
	return models.Event{ID: id, HomeTeam: "Boston Celtics", AwayTeam: "New York Knicks", CommenceTime: "2025-01-01T00:00:00Z", Bookmakers: books}
}

func h2h(key string, home, away float64) models.Bookmaker {
	return models.Bookmaker{Key: key, Title: key, Markets: []models.Market{{
		Key: MarketH2H,
		Outcomes: []models.Outcome{
			{Name: "Boston Celtics", Price: home},
			{Name: "New York Knicks", Price: away},
		},
	}}}
}

func TestScan_SplitBooks(t *testing.T) {
	ev := event("e1", h2h("BookA", 150, -200), h2h("BookB", -180, 140))

	opps := Scan([]models.Event{ev}, 100)
	require.Len(t, opps, 1)

	o := opps[0]
	assert.Equal(t, "BookA", o.HomeBook)
	assert.Equal(t, 150.0, o.HomePrice)
	assert.Equal(t, "BookB", o.AwayBook)
	assert.Equal(t, 140.0, o.AwayPrice)

	// 100/250 + 100/240 = 0.81667
	assert.Equal(t, 81.67, o.TotalImpliedProb)
	assert.Equal(t, 18.33, o.EdgePercent)
	assert.Greater(t, o.GuaranteedProfit, 0.0)
	assert.Equal(t, 22.45, o.GuaranteedProfit)
	assert.Equal(t, 48.98, o.StakeHome)
	assert.Equal(t, 51.02, o.StakeAway)
}

func TestScan_NoEdge(t *testing.T) {
	ev := event("e2", h2h("BookA", -110, -110), h2h("BookB", -115, -105))
	assert.Empty(t, Scan([]models.Event{ev}, 100))

	opp, a, ok := Evaluate(ev, 100)
	require.True(t, ok)
	assert.False(t, a.IsOpportunity())
	assert.LessOrEqual(t, opp.GuaranteedProfit, 0.0)
}

func TestScan_IgnoresOtherMarketsAndMissingSides(t *testing.T) {
	spreads := models.Bookmaker{Key: "BookC", Markets: []models.Market{{
		Key:      "spreads",
		Outcomes: []models.Outcome{{Name: "Boston Celtics", Price: 500}, {Name: "New York Knicks", Price: 500}},
	}}}
	onlyHome := models.Bookmaker{Key: "BookD", Markets: []models.Market{{
		Key:      MarketH2H,
		Outcomes: []models.Outcome{{Name: "Boston Celtics", Price: 300}},
	}}}

	assert.Empty(t, Scan([]models.Event{event("e3", spreads, onlyHome)}, 100))
}
