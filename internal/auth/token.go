package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

type Claims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 access tokens carrying the user id in
// sub and the session id in sid.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  utils.Clock
}

func NewTokenIssuer(secret string, ttl time.Duration, clock utils.Clock) *TokenIssuer {
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, clock: clock}
}

func (t *TokenIssuer) Issue(userID, sessionID string) (string, time.Time, error) {
	now := t.clock.Now()
	exp := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"sub": userID,
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.clock.Now))
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: invalid token", models.ErrUnauthorized)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", models.ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	if sub == "" || sid == "" {
		return nil, fmt.Errorf("%w: token is missing sub or sid", models.ErrUnauthorized)
	}

	out := &Claims{UserID: sub, SessionID: sid}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
