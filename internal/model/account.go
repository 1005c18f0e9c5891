package model

import "time"

// Account is the single local owner of the catalog and list.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`

	PasswordChangedAt time.Time `json:"passwordChangedAt"`
	// TokenVersion is signed into every token and bumped on password
	// change; tokens carrying an older version are refused.
	TokenVersion      int       `json:"tokenVersion"`
}
