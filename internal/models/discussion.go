package models

import "time"

// AnonymousName is used when a poster supplies no name.
const AnonymousName = "Anonymous"

// Message is a post on a per-date discussion thread.
type Message struct {
	ID         string    `json:"id" db:"id"`
	ThreadDate string    `json:"date" db:"thread_date"`
	UID        string    `json:"uid" db:"uid"`
	Name       string    `json:"name" db:"name"`
	Text       string    `json:"text" db:"text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
