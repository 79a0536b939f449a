package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// USER & REFRESH TOKEN RECORDS
// =============================================================================

// User is a FitCoin account linked to a Kakao identity.
type User struct {
	ID           string
	KakaoID      string
	Nickname     string
	ProfileImage string
	CreatedAt    time.Time
}

// RefreshToken is a persisted long-lived credential.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Store persists users and refresh tokens.
// Lookups return (nil, nil) when the record does not exist.
type Store interface {
	UserByID(ctx context.Context, id string) (*User, error)
	UserByKakaoID(ctx context.Context, kakaoID string) (*User, error)
	SaveUser(ctx context.Context, u User) error
	SaveRefreshToken(ctx context.Context, t RefreshToken) error
	RefreshTokenByValue(ctx context.Context, token string) (*RefreshToken, error)
}

// ErrRefreshRejected is returned for unknown, expired, or tampered
// refresh tokens.
var ErrRefreshRejected = errors.New("invalid refresh token")

// =============================================================================
// LOGIN SERVICE
// =============================================================================

// LoginResult is the outcome of a successful provider login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// Service implements the login and refresh flows.
type Service struct {
	store  Store
	kakao  *KakaoClient
	issuer *Issuer
	now    func() time.Time
}

// NewService creates the auth service. now defaults to time.Now when nil.
func NewService(store Store, kakao *KakaoClient, issuer *Issuer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, kakao: kakao, issuer: issuer, now: now}
}

// KakaoLogin exchanges the authorization code, finds or creates the local
// user, and issues a token pair. The refresh token is persisted so it can
// be revoked and checked on refresh.
func (s *Service) KakaoLogin(ctx context.Context, authorizationCode string) (LoginResult, error) {
	identity, err := s.kakao.Exchange(ctx, authorizationCode)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.store.UserByKakaoID(ctx, identity.KakaoID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		user = &User{
			ID:           uuid.NewString(),
			KakaoID:      identity.KakaoID,
			Nickname:     identity.Nickname,
			ProfileImage: identity.ProfileImage,
			CreatedAt:    s.now(),
		}
		if err := s.store.SaveUser(ctx, *user); err != nil {
			return LoginResult{}, fmt.Errorf("create user: %w", err)
		}
	}

	access, refresh, err := s.issuer.IssuePair(Claims{UserID: user.ID, KakaoID: user.KakaoID})
	if err != nil {
		return LoginResult{}, err
	}

	record := RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.issuer.RefreshTTL()),
		CreatedAt: s.now(),
	}
	if err := s.store.SaveRefreshToken(ctx, record); err != nil {
		return LoginResult{}, fmt.Errorf("store refresh token: %w", err)
	}

	return LoginResult{AccessToken: access, RefreshToken: refresh, User: *user}, nil
}

// Refresh verifies a refresh token against both its signature and the
// stored record, then issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshRejected, err)
	}

	stored, err := s.store.RefreshTokenByValue(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("look up refresh token: %w", err)
	}
	if stored == nil || stored.ExpiresAt.Before(s.now()) {
		return "", ErrRefreshRejected
	}

	return s.issuer.IssueAccess(*claims)
}
