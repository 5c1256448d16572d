package models

import "time"

// UserDB represents a row of the users table
type UserDB struct {
	ID        int64     `json:"id" db:"id"`                 // Surrogate key assigned by the store
	Username  string    `json:"username" db:"username"`     // Unique username
	Password  string    `json:"password" db:"password"`     // Bcrypt hash in hashed mode, plaintext in device mode
	AndroidID string    `json:"androidId" db:"android_id"`  // Device identifier bound at registration (device mode)
	CreatedAt time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}
