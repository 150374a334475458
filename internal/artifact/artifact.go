// Package artifact persists trained models together with the feature order and
// the latest feature snapshot per entity, and serves them to the scorers.
package artifact

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"openbet/backend/internal/features"
	"openbet/backend/internal/forest"
	"openbet/backend/internal/snapshot"
)

// File names under the model directory
const (
	TeamModelFile    = "team_model.json"
	PlayerModelsFile = "player_models.json"
)

// TeamModel is the team score regressor and everything needed to score with it.
type TeamModel struct {
	Model          *forest.Forest          `json:"model"`
	FeatureColumns []string                `json:"feature_cols"`
	Target         string                  `json:"target"`
	Latest         map[string]features.Row `json:"latest_stats"`
	TrainedAt      time.Time               `json:"trained_at"`
	HoldoutMAE     float64                 `json:"holdout_mae"`
	TrainingRows   int                     `json:"training_rows"`
}

// Snapshot returns a team's latest feature row.
func (m *TeamModel) Snapshot(teamID string) (features.Row, bool) {
	r, ok := m.Latest[teamID]
	return r, ok
}

// PredictScore predicts one side's score for a matchup.
func (m *TeamModel) PredictScore(self, opp features.Row, home bool, fatigue, oppFatigue float64) float64 {
	return m.Model.Predict(features.MatchupVector(m.FeatureColumns, self, opp, home, fatigue, oppFatigue))
}

// PlayerModels holds one regressor per player stat target.
type PlayerModels struct {
	Models         map[string]*forest.Forest `json:"models"`
	FeatureColumns []string                  `json:"feature_cols"`
	Latest         map[string]features.Row   `json:"latest_stats"`
	Defense        map[string]features.Row   `json:"defense"`
	TrainedAt      time.Time                 `json:"trained_at"`
	HoldoutMAE     map[string]float64        `json:"holdout_mae"`
	TrainingRows   int                       `json:"training_rows"`

	once   sync.Once
	byName map[string]string
}

// FindPlayer looks a player up by display name using normalize on both sides.
func (m *PlayerModels) FindPlayer(name string, normalize func(string) string) (features.Row, bool) {
	m.once.Do(func() {
		m.byName = make(map[string]string, len(m.Latest))
		for id, r := range m.Latest {
			key := normalize(r.Name)
			if key == "" {
				continue
			}
			// keep the lowest ID on collisions so lookups are stable
			if prev, ok := m.byName[key]; ok && prev < id {
				continue
			}
			m.byName[key] = id
		}
	})
	id, ok := m.byName[normalize(name)]
	if !ok {
		return features.Row{}, false
	}
	return m.Latest[id], true
}

// PredictStat predicts one target for a player facing the team whose defensive
// context is given. ok is false when there is no model for the target.
func (m *PlayerModels) PredictStat(target string, player, defense features.Row, home bool) (float64, bool) {
	model, ok := m.Models[target]
	if !ok {
		return 0, false
	}
	return model.Predict(features.MatchupVector(m.FeatureColumns, player, defense, home, 0, 0)), true
}

// PredictLatest predicts a target straight from a stored snapshot row.
func (m *PlayerModels) PredictLatest(target string, player features.Row) (float64, bool) {
	model, ok := m.Models[target]
	if !ok {
		return 0, false
	}
	return model.Predict(player.Vector(m.FeatureColumns)), true
}

// SaveTeamModel writes the team artifact into dir.
func SaveTeamModel(dir string, m *TeamModel) error {
	if err := snapshot.WriteJSON(filepath.Join(dir, TeamModelFile), m); err != nil {
		return fmt.Errorf("failed to save team model: %w", err)
	}
	return nil
}

// LoadTeamModel reads the team artifact from dir.
func LoadTeamModel(dir string) (*TeamModel, error) {
	var m TeamModel
	if err := snapshot.ReadJSON(filepath.Join(dir, TeamModelFile), &m); err != nil {
		return nil, fmt.Errorf("failed to load team model: %w", err)
	}
	if m.Model == nil || len(m.FeatureColumns) == 0 {
		return nil, fmt.Errorf("team model in %s is incomplete", dir)
	}
	return &m, nil
}

// SavePlayerModels writes the player artifact into dir.
func SavePlayerModels(dir string, m *PlayerModels) error {
	if err := snapshot.WriteJSON(filepath.Join(dir, PlayerModelsFile), m); err != nil {
		return fmt.Errorf("failed to save player models: %w", err)
	}
	return nil
}

// LoadPlayerModels reads the player artifact from dir.
func LoadPlayerModels(dir string) (*PlayerModels, error) {
	var m PlayerModels
	if err := snapshot.ReadJSON(filepath.Join(dir, PlayerModelsFile), &m); err != nil {
		return nil, fmt.Errorf("failed to load player models: %w", err)
	}
	if len(m.Models) == 0 || len(m.FeatureColumns) == 0 {
		return nil, fmt.Errorf("player models in %s are incomplete", dir)
	}
	return &m, nil
}
