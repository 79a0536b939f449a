/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// AUTH TYPES
// =============================================================================

// KakaoLoginRequest carries the authorization code from the client.
type KakaoLoginRequest struct {
	Code string `json:"code"`
}

// RefreshRequest carries a refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	User         *UserDTO `json:"user,omitempty"`
}

// UserDTO represents an account in API responses.
type UserDTO struct {
	ID           string `json:"id"`
	KakaoID      string `json:"kakaoId"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profileImage,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// =============================================================================
// ACTIVITY TYPES
// =============================================================================

// RecordStepsRequest reports a batch of steps.
type RecordStepsRequest struct {
	Steps int64 `json:"steps"`
}

// RecordWorkoutRequest reports workout minutes.
type RecordWorkoutRequest struct {
	Minutes int64 `json:"minutes"`
}

// RecordActivityDTO is the outcome of recording an activity.
type RecordActivityDTO struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Value       int64  `json:"value"`
	CoinsEarned int64  `json:"coinsEarned"`
	CreatedAt   string `json:"createdAt"`
	Message     string `json:"message"`
}

// ActivityProgressDTO is one activity type's daily progress.
type ActivityProgressDTO struct {
	Total         int64 `json:"total"`
	RewardsEarned int64 `json:"rewardsEarned"`
	RewardsMax    int64 `json:"rewardsMax"`
}

// TodaySummaryDTO aggregates today's activity per type.
type TodaySummaryDTO struct {
	Steps   ActivityProgressDTO `json:"steps"`
	Workout ActivityProgressDTO `json:"workout"`
}

// =============================================================================
// ASSET TYPES
// =============================================================================

// AssetSummaryDTO reports a user's FitCoin totals.
type AssetSummaryDTO struct {
	TotalBalance int64 `json:"totalBalance"`
	TotalEarned  int64 `json:"totalEarned"`
	EarnedToday  int64 `json:"earnedToday"`
}

// GrantDTO is one reward ledger entry.
type GrantDTO struct {
	ID           string `json:"id"`
	ActivityType string `json:"activityType"`
	Amount       int64  `json:"amount"`
	Reason       string `json:"reason"`
	CreatedAt    string `json:"createdAt"`
}

// AssetHistoryDTO is one page of the reward ledger.
type AssetHistoryDTO struct {
	Items []GrantDTO `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// =============================================================================
// MISC TYPES
// =============================================================================

// HealthDTO is the health check response.
type HealthDTO struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
