package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sessions issues and parses the browser-session tokens that own a history
// archive. A session token identifies a browser, never a player inside a
// game: game state always comes from the URL token alone.
type Sessions struct {
	secret []byte
}

func NewSessions(secret string) *Sessions {
	return &Sessions{secret: []byte(secret)}
}

const sessionTTL = 30 * 24 * time.Hour

// Issue mints a new session token with a fresh session id.
func (s *Sessions) Issue() (token, sessionID string, err error) {
	sessionID = uuid.New().String()
	now := time.Now().Unix()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(sessionTTL).Unix(),
		"iat": now,
		"nbf": now,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(s.secret)
	return token, sessionID, err
}

// Parse validates a session token and returns its session id.
func (s *Sessions) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Unix()
	if exp, ok := claims["exp"].(float64); ok {
		if int64(exp) < now {
			return "", errors.New("token expired")
		}
	}
	if nbf, ok := claims["nbf"].(float64); ok {
		if int64(nbf) > now {
			return "", errors.New("token not valid yet")
		}
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("sid not found")
	}

	return sid, nil
}
