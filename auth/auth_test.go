package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcoin/reward-engine/auth"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var tokenEpoch = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func testConfig() auth.Config {
	return auth.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// =============================================================================
// ISSUER TESTS
// =============================================================================

func TestIssuer_AccessTokenRoundTrip(t *testing.T) {
	// GIVEN: An issued access token
	// WHEN: Parsing it with the same issuer
	// THEN: The claims round-trip

	issuer := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch))

	access, err := issuer.IssueAccess(auth.Claims{UserID: "u-1", KakaoID: "12345"})
	require.NoError(t, err)

	claims, err := issuer.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "12345", claims.KakaoID)
}

func TestIssuer_TokensAreNotInterchangeable(t *testing.T) {
	// GIVEN: A token pair signed with distinct secrets
	// WHEN: Parsing each token as the other kind
	// THEN: Both are rejected

	issuer := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch))

	access, refresh, err := issuer.IssuePair(auth.Claims{UserID: "u-1"})
	require.NoError(t, err)

	_, err = issuer.ParseRefresh(access)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = issuer.ParseAccess(refresh)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestIssuer_RejectsWrongSecret(t *testing.T) {
	// GIVEN: A token signed by one issuer
	// WHEN: Parsed by an issuer with a different secret
	// THEN: It is rejected

	issuer := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch))
	access, err := issuer.IssueAccess(auth.Claims{UserID: "u-1"})
	require.NoError(t, err)

	other := auth.NewIssuer(auth.Config{
		AccessSecret:  "different-secret",
		RefreshSecret: "refresh-secret",
	}, fixedClock(tokenEpoch))

	_, err = other.ParseAccess(access)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestIssuer_RejectsExpiredToken(t *testing.T) {
	// GIVEN: An access token with a 15 minute lifetime
	// WHEN: Parsed 16 minutes later
	// THEN: It is rejected

	issuer := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch))
	access, err := issuer.IssueAccess(auth.Claims{UserID: "u-1"})
	require.NoError(t, err)

	later := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch.Add(16*time.Minute)))
	_, err = later.ParseAccess(access)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestIssuer_RejectsEmptyToken(t *testing.T) {
	issuer := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch))

	_, err := issuer.ParseAccess("")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestMiddleware_AttachesClaims(t *testing.T) {
	// GIVEN: A request with a valid bearer token
	// WHEN: Passing through the middleware
	// THEN: The inner handler sees the claims on the context

	issuer := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch))
	access, err := issuer.IssueAccess(auth.Claims{UserID: "u-1", KakaoID: "12345"})
	require.NoError(t, err)

	var seen *auth.Claims
	handler := auth.NewMiddleware(issuer).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.UserID)
}

func TestMiddleware_RejectsMissingAndMalformedHeaders(t *testing.T) {
	// GIVEN: Requests without a token, with a non-bearer scheme, and with
	//        a garbage token
	// WHEN: Passing through the middleware
	// THEN: All receive 401 and the inner handler never runs

	issuer := auth.NewIssuer(testConfig(), fixedClock(tokenEpoch))
	called := false
	handler := auth.NewMiddleware(issuer).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, header := range []string{"", "Basic abc123", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header=%q", header)
	}
	assert.False(t, called)
}
