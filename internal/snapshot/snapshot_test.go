package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"openbet/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON_Missing(t *testing.T) {
	var v map[string]any
	err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &v)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadJSON_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	var v map[string]any
	err := ReadJSON(path, &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDir_PlayerProps(t *testing.T) {
	d := Dir{Root: filepath.Join(t.TempDir(), "nested")}

	_, err := d.PlayerProps()
	assert.ErrorIs(t, err, ErrNotFound)

	line := 24.5
	in := &models.PlayerPropsSnapshot{
		Props:       []models.PropRecord{{GameID: "e1", Player: "Jay Doe", TeamSide: models.SideUnknown, Line: &line}},
		LastUpdated: Timestamp(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
	require.NoError(t, d.WritePlayerProps(in), "directories are created on write")

	out, err := d.PlayerProps()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02T03:04:05Z", out.LastUpdated)
	require.Len(t, out.Props, 1)
	assert.Nil(t, out.Props[0].Prediction, "null prediction survives")

	entries, err := os.ReadDir(d.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
