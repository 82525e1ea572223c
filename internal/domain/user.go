// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUserIDEmpty     = errors.New("user id empty")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
)

type UserID string

// User is a single membership record. It lives inside exactly one
// room's member list; it is not a shared global entity.
type User struct {
	ID       UserID `json:"userId"`
	Username string `json:"username"`
}

// NewUser validates inputs and avoids ad-hoc struct literals in adapters.
// An empty username falls back to a derived guest name.
func NewUser(id UserID, username string) (User, error) {
	if len(id) == 0 {
		return User{}, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return User{}, ErrUserIDTooLong
	}
	if username == "" {
		username = GuestUsername(id)
	}
	if len(username) > MaxUsernameLen {
		return User{}, ErrUsernameTooLong
	}
	return User{ID: id, Username: username}, nil
}

// GuestUsername derives a display name from an id for callers that
// never supplied one (websocket-only joins).
func GuestUsername(id UserID) string {
	short := string(id)
	if len(short) > 4 {
		short = short[:4]
	}
	return "User " + short
}
