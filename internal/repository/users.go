package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"openbet/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ErrUserNotFound is returned when no user has the requested uid.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `uid, email, name, picture, role, favorites, favorite_team, display_name, created_at`

// UserRepository handles user profile operations
type UserRepository struct {
	db *Database
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.UID, &u.Email, &u.Name, &u.Picture, &u.Role,
		&u.Favorites, &u.FavoriteTeam, &u.DisplayName, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUID retrieves a user by identity-provider subject
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	start := time.Now()
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`

	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		observe("select", "users", start, nil)
		return nil, ErrUserNotFound
	}
	observe("select", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// FindOrCreate returns the stored user for u.UID, inserting u with the default
// role and no favorites on first sign-in. created reports whether a row was added.
func (r *UserRepository) FindOrCreate(ctx context.Context, u *models.User) (*models.User, bool, error) {
	start := time.Now()
	query := `
		INSERT INTO users (uid, email, name, picture, role, favorites)
		VALUES ($1, $2, $3, $4, $5, '{}')
		ON CONFLICT (uid) DO NOTHING
		RETURNING ` + userColumns

	role := u.Role
	if role == "" {
		role = models.DefaultRole
	}

	created, err := scanUser(r.db.Pool.QueryRow(ctx, query, u.UID, u.Email, u.Name, u.Picture, role))
	if err == nil {
		observe("insert", "users", start, nil)
		log.Info().Str("uid", created.UID).Msg("User created")
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		observe("insert", "users", start, err)
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	observe("insert", "users", start, nil)

	existing, err := r.GetByUID(ctx, u.UID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the fresh row
func (r *UserRepository) UpdateProfile(ctx context.Context, uid string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Empty() {
		return r.GetByUID(ctx, uid)
	}

	start := time.Now()
	query := `
		UPDATE users SET
			favorite_team = CASE WHEN $2 THEN $3 ELSE favorite_team END,
			display_name  = CASE WHEN $4 THEN $5 ELSE display_name END,
			favorites     = CASE WHEN $6 THEN $7::TEXT[] ELSE favorites END
		WHERE uid = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.db.Pool.QueryRow(ctx, query,
		uid,
		upd.FavoriteTeam != nil, upd.FavoriteTeam,
		upd.DisplayName != nil, upd.DisplayName,
		upd.Favorites != nil, upd.Favorites,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		observe("update", "users", start, nil)
		return nil, ErrUserNotFound
	}
	observe("update", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Debug().Str("uid", uid).Msg("User profile updated")
	return u, nil
}
