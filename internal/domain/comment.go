package domain

import "time"

// Actor identifies who performs a ticket action.
// IsStaff is decided by the caller's authentication layer.
type Actor struct {
	Name    string
	IsStaff bool
}

// Comment captures a reply in a ticket thread.
type Comment struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	By      string    `json:"by"`
	IsStaff bool      `json:"is_staff"`
	At      time.Time `json:"at"`
}
