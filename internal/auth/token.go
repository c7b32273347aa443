package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptyToken = errors.New("token is empty")
	ErrNoSubject  = errors.New("token carries no user id")
)

// WisheraClaims covers the claim names the Wishera API has issued user ids
// under.
type WisheraClaims struct {
	jwt.RegisteredClaims
	UserId string `json:"userId"`
	NameId string `json:"nameid"`
	Email  string `json:"email"`
}

// Session is the signed-in user as far as the client knows.
type Session struct {
	Token     string    `json:"token"`
	UserId    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the token has expired at now. Tokens without an
// exp claim never expire here; the server still decides.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ParseSession reads the user id and expiry from an access token. The
// signature is not checked: the client has no key for that and the chat
// server validates the token on upgrade.
func ParseSession(token string) (Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Session{}, ErrEmptyToken
	}

	var claims WisheraClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("jwt.ParseUnverified: %w", err)
	}

	userId := claims.Subject
	if userId == "" {
		userId = claims.UserId
	}
	if userId == "" {
		userId = claims.NameId
	}
	if userId == "" {
		return Session{}, ErrNoSubject
	}

	session := Session{
		Token:  token,
		UserId: userId,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}
