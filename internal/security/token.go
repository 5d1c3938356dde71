package security

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const TokenTypeAccess TokenType = "access"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	issuer         = "toolshare-auth"
	accessAudience = "api-access"
)

// UserClaims defines the standard claims for our application
type UserClaims struct {
	UserID int32     `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Type   TokenType `json:"type"`
	Roles  []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token carries the admin role.
func (c *UserClaims) IsAdmin() bool {
	return slices.Contains(c.Roles, RoleAdmin)
}

type TokenManager interface {
	GenerateAccessToken(userID int32, email string, roles []string) (string, error)
	ValidateAccessToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, accessTTL time.Duration) TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &tokenManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(userID int32, email string, roles []string) (string, error) {
	now := m.now()
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Type:   TokenTypeAccess,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateAccessToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(accessAudience),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	// Populate UserID from Subject if it was lost
	if claims.UserID == 0 && claims.Subject != "" {
		uid, err := strconv.ParseInt(claims.Subject, 10, 32)
		if err != nil {
			return nil, ErrInvalidToken
		}
		claims.UserID = int32(uid)
	}
	if claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
