package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"openbet/backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

// StatsClient reads team rosters from the NBA stats API.
type StatsClient struct {
	baseURL    string
	season     string
	httpClient *http.Client
}

// NewStatsClient creates a roster client for one season (e.g. "2025-26").
func NewStatsClient(baseURL, season string, timeout time.Duration) *StatsClient {
	return &StatsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		season:     season,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type resultSetResponse struct {
	ResultSets []struct {
		Name    string          `json:"name"`
		Headers []string        `json:"headers"`
		RowSet  [][]interface{} `json:"rowSet"`
	} `json:"resultSets"`
}

// FetchTeamRoster returns the player names on a team's roster.
func (c *StatsClient) FetchTeamRoster(ctx context.Context, teamID string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/commonteamroster", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("LeagueID", "00")
	q.Set("Season", c.season)
	q.Set("TeamID", teamID)
	req.URL.RawQuery = q.Encode()

	// stats.nba.com rejects requests that do not look like a browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall("commonteamroster", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("roster request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPICall("commonteamroster", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to read roster response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordAPICall("commonteamroster", "error", time.Since(start).Seconds())
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	metrics.RecordAPICall("commonteamroster", "success", time.Since(start).Seconds())

	players, err := parseRoster(body)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("team_id", teamID).
		Int("players", len(players)).
		Msg("Fetched team roster")
	return players, nil
}

func parseRoster(body []byte) ([]string, error) {
	var payload resultSetResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roster: %w", err)
	}

	for _, rs := range payload.ResultSets {
		if rs.Name != "CommonTeamRoster" {
			continue
		}
		col := -1
		for i, h := range rs.Headers {
			if h == "PLAYER" {
				col = i
				break
			}
		}
		if col < 0 {
			return nil, fmt.Errorf("roster result set has no PLAYER column")
		}

		players := make([]string, 0, len(rs.RowSet))
		for _, row := range rs.RowSet {
			if col >= len(row) {
				continue
			}
			if name, ok := row[col].(string); ok && strings.TrimSpace(name) != "" {
				players = append(players, name)
			}
		}
		return players, nil
	}
	return nil, fmt.Errorf("roster response has no CommonTeamRoster result set")
}
