package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// DefaultRole is assigned on first sign-in.
const DefaultRole = "user"

// User is a signed-in account keyed by the identity provider's subject.
type User struct {
	UID          string         `db:"uid"`
	Email        string         `db:"email"`
	Name         string         `db:"name"`
	Picture      string         `db:"picture"`
	Role         string         `db:"role"`
	Favorites    []string       `db:"favorites"`
	FavoriteTeam sql.NullString `db:"favorite_team"`
	DisplayName  sql.NullString `db:"display_name"`
	CreatedAt    time.Time      `db:"created_at"`
}

// ProfileUpdate carries the optional profile fields a user may change.
// A nil Favorites leaves the list unchanged; an empty one clears it.
type ProfileUpdate struct {
	FavoriteTeam *string
	DisplayName  *string
	Favorites    []string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FavoriteTeam == nil && u.DisplayName == nil && u.Favorites == nil
}

type userJSON struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture"`
	Role         string    `json:"role"`
	Favorites    []string  `json:"favorites"`
	FavoriteTeam *string   `json:"favoriteTeam"`
	DisplayName  *string   `json:"displayName"`
	CreatedAt    time.Time `json:"created_at"`
}

// MarshalJSON renders nullable columns as JSON null.
func (u User) MarshalJSON() ([]byte, error) {
	out := userJSON{
		UID:       u.UID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		Role:      u.Role,
		Favorites: u.Favorites,
		CreatedAt: u.CreatedAt,
	}
	if out.Favorites == nil {
		out.Favorites = []string{}
	}
	if u.FavoriteTeam.Valid {
		out.FavoriteTeam = &u.FavoriteTeam.String
	}
	if u.DisplayName.Valid {
		out.DisplayName = &u.DisplayName.String
	}
	return json.Marshal(out)
}
