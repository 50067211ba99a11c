package domain

import "time"

// Token describes an issued access token.
type Token struct {
	ID        string
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
