package repository

import (
	"context"
	"fmt"
	"time"

	"openbet/backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DiscussionRepository stores per-date discussion threads
type DiscussionRepository struct {
	db *Database
}

// Create assigns an ID, stamps the server time and inserts the message
func (r *DiscussionRepository) Create(ctx context.Context, msg *models.Message) error {
	start := time.Now()
	if msg.Name == "" {
		msg.Name = models.AnonymousName
	}
	msg.ID = uuid.NewString()

	query := `
		INSERT INTO discussion_messages (id, thread_date, uid, name, text, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err := r.db.Pool.QueryRow(ctx, query, msg.ID, msg.ThreadDate, msg.UID, msg.Name, msg.Text).Scan(&msg.CreatedAt)
	observe("insert", "discussion_messages", start, err)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	log.Debug().
		Str("id", msg.ID).
		Str("thread", msg.ThreadDate).
		Msg("Discussion message created")
	return nil
}

// ListByDate returns a thread's messages, newest first
func (r *DiscussionRepository) ListByDate(ctx context.Context, date string) ([]models.Message, error) {
	start := time.Now()
	query := `
		SELECT id::text, thread_date, uid, name, text, created_at
		FROM discussion_messages
		WHERE thread_date = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, date)
	if err != nil {
		observe("select", "discussion_messages", start, err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ThreadDate, &m.UID, &m.Name, &m.Text, &m.CreatedAt); err != nil {
			observe("select", "discussion_messages", start, err)
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	err = rows.Err()
	observe("select", "discussion_messages", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
