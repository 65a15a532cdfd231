package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrSessionNotFound  = fmt.Errorf("session not found")
	ErrDuplicateUser    = fmt.Errorf("email or username already in use")

	// API and service errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrRateLimited     = fmt.Errorf("rate limited by provider")
	ErrPremiumRequired = fmt.Errorf("spotify premium required")

	// Input validation errors
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrInvalidLink  = fmt.Errorf("invalid spotify link")
)
