package user

import "time"

// User is an account record. The password hash is excluded from API
// responses; the auth service persists it separately.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
