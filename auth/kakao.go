package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// KAKAO PROVIDER - Authorization-code exchange and profile fetch
// =============================================================================

const (
	defaultKakaoTokenURL    = "https://kauth.kakao.com/oauth/token"
	defaultKakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"
)

// ErrProviderRejected is returned when Kakao refuses the code or token.
var ErrProviderRejected = errors.New("kakao rejected the request")

// KakaoConfig holds the OAuth app credentials.
type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// TokenURL and UserInfoURL override the Kakao endpoints in tests.
	TokenURL    string
	UserInfoURL string
}

// KakaoIdentity is the provider profile the login flow needs.
type KakaoIdentity struct {
	KakaoID      string
	Nickname     string
	ProfileImage string
}

// KakaoClient exchanges authorization codes for provider identities.
type KakaoClient struct {
	cfg  KakaoConfig
	http *http.Client
}

func NewKakaoClient(cfg KakaoConfig, client *http.Client) *KakaoClient {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultKakaoTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultKakaoUserInfoURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &KakaoClient{cfg: cfg, http: client}
}

// Exchange turns an authorization code into the provider identity:
// code -> provider access token -> provider profile.
func (c *KakaoClient) Exchange(ctx context.Context, authorizationCode string) (KakaoIdentity, error) {
	token, err := c.fetchToken(ctx, authorizationCode)
	if err != nil {
		return KakaoIdentity{}, err
	}
	return c.fetchUserInfo(ctx, token)
}

type kakaoTokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *KakaoClient) fetchToken(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"redirect_uri":  {c.cfg.RedirectURI},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body kakaoTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		return "", fmt.Errorf("%w: malformed token response", ErrProviderRejected)
	}
	return body.AccessToken, nil
}

type kakaoUserResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (c *KakaoClient) fetchUserInfo(ctx context.Context, accessToken string) (KakaoIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return KakaoIdentity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return KakaoIdentity{}, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return KakaoIdentity{}, fmt.Errorf("%w: user info endpoint returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body kakaoUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.ID == 0 {
		return KakaoIdentity{}, fmt.Errorf("%w: malformed user info response", ErrProviderRejected)
	}

	return KakaoIdentity{
		KakaoID:      strconv.FormatInt(body.ID, 10),
		Nickname:     body.KakaoAccount.Profile.Nickname,
		ProfileImage: body.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}
