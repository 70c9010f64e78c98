package domain

import "time"

// User represents an authenticated user of the system. ID is opaque and
// partitions every category and expense the user owns.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
