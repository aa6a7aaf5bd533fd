package model

import "time"

// Admin is an application administrator stored in the meta database.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	Token        string    `json:"token"`
	Active       bool      `json:"active"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}
