package models

// User is the subset of account state the checkout flow depends on.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Email    string `json:"email" db:"email"`
	Verified bool   `json:"verified" db:"verified"`
}
