package domain

import "time"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

const (
	TrustScoreMin     = 0.0
	TrustScoreMax     = 10.0
	TrustScoreDefault = (TrustScoreMin + TrustScoreMax) / 2
)

type User struct {
	ID           int32     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	TrustScore   float64   `json:"trust_score"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
