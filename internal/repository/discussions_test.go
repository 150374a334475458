//go:build integration

package repository

import (
	"fmt"
	"testing"
	"time"

	"openbet/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscussionRepository_CreateAndList(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	date := fmt.Sprintf("test-%d", time.Now().UnixNano())
	defer db.Pool.Exec(ctx, "DELETE FROM discussion_messages WHERE thread_date = $1", date)

	first := &models.Message{ThreadDate: date, Text: "tip-off soon"}
	require.NoError(t, db.Discussions.Create(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.AnonymousName, first.Name)

	time.Sleep(10 * time.Millisecond)
	second := &models.Message{ThreadDate: date, UID: "u1", Name: "Fan", Text: "take the over"}
	require.NoError(t, db.Discussions.Create(ctx, second))

	msgs, err := db.Discussions.ListByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, second.ID, msgs[0].ID, "Newest message should come first")
	assert.Equal(t, first.ID, msgs[1].ID)

	empty, err := db.Discussions.ListByDate(ctx, "1900-01-01")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
