// Package snapshot reads and writes the JSON files the batch jobs hand to the API.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"openbet/backend/internal/models"
)

// File names under the data directory
const (
	TodaysDataFile        = "todays_data.json"
	PredictionHistoryFile = "prediction_history.json"
	PlayerPropsFile       = "player_props.json"
	PlayerProjectionsFile = "player_projections.json"
	PlayerTeamMapFile     = "nba_player_team_map.json"
)

// ErrNotFound is returned when a snapshot has not been generated yet.
var ErrNotFound = errors.New("snapshot not found")

// Timestamp formats t the way every snapshot's last_updated field is written.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// WriteJSON writes v as indented JSON, replacing path atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes path into v. A missing file yields ErrNotFound.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Dir gives typed access to the snapshot files in one directory.
type Dir struct {
	Root string
}

// Path joins name onto the directory.
func (d Dir) Path(name string) string {
	return filepath.Join(d.Root, name)
}

func (d Dir) TodaysData() (*models.TodaysData, error) {
	var out models.TodaysData
	if err := ReadJSON(d.Path(TodaysDataFile), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d Dir) WriteTodaysData(v *models.TodaysData) error {
	return WriteJSON(d.Path(TodaysDataFile), v)
}

func (d Dir) PredictionHistory() (*models.PredictionHistory, error) {
	var out models.PredictionHistory
	if err := ReadJSON(d.Path(PredictionHistoryFile), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d Dir) WritePredictionHistory(v *models.PredictionHistory) error {
	return WriteJSON(d.Path(PredictionHistoryFile), v)
}

func (d Dir) PlayerProps() (*models.PlayerPropsSnapshot, error) {
	var out models.PlayerPropsSnapshot
	if err := ReadJSON(d.Path(PlayerPropsFile), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d Dir) WritePlayerProps(v *models.PlayerPropsSnapshot) error {
	return WriteJSON(d.Path(PlayerPropsFile), v)
}

func (d Dir) PlayerProjections() (*models.PlayerProjections, error) {
	var out models.PlayerProjections
	if err := ReadJSON(d.Path(PlayerProjectionsFile), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d Dir) WritePlayerProjections(v *models.PlayerProjections) error {
	return WriteJSON(d.Path(PlayerProjectionsFile), v)
}
