/*
Package auth provides identity for the FitCoin API.

PURPOSE:
  Issues and verifies the HS256 access/refresh token pair, exchanges a
  Kakao authorization code for a provider profile, and finds-or-creates
  the local user on login. The reward engine itself only ever sees the
  authenticated user ID; it trusts this package's verification.

TOKENS:
  Access tokens are short-lived (15m default) and carried as a bearer
  header. Refresh tokens are long-lived (7d default), persisted server
  side, and exchanged for fresh access tokens.

SEE ALSO:
  - middleware.go: Bearer-token HTTP middleware
  - kakao.go: Provider code exchange
  - service.go: Login and refresh flows
*/
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds token signing parameters.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims represents the payload extracted from a verified token.
type Claims struct {
	UserID  string
	KakaoID string
}

var (
	// ErrMissingToken is returned when the Authorization header is absent.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken wraps parsing/validation errors.
	ErrInvalidToken = errors.New("invalid token")
)

// Issuer signs and verifies token pairs.
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer creates an issuer. now defaults to time.Now when nil.
func NewIssuer(cfg Config, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{cfg: cfg, now: now}
}

// RefreshTTL exposes the configured refresh lifetime for persistence.
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

// IssuePair signs an access and a refresh token for the user.
func (i *Issuer) IssuePair(c Claims) (access, refresh string, err error) {
	access, err = i.sign(c, i.cfg.AccessSecret, i.cfg.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = i.sign(c, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// IssueAccess signs a fresh access token only.
func (i *Issuer) IssueAccess(c Claims) (string, error) {
	return i.sign(c, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

func (i *Issuer) sign(c Claims, secret string, ttl time.Duration) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      c.UserID,
		"kakao_id": c.KakaoID,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAccess validates an access token and returns its claims.
func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, i.cfg.AccessSecret)
}

// ParseRefresh validates a refresh token and returns its claims.
func (i *Issuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, i.cfg.RefreshSecret)
}

func (i *Issuer) parse(token, secret string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, _ := claims["sub"].(string)
	kakaoID, _ := claims["kakao_id"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{UserID: userID, KakaoID: kakaoID}, nil
}
