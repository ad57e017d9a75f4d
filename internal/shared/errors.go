package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrTokenExpired       = fmt.Errorf("access token expired")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrSessionRejected    = fmt.Errorf("session rejected after refresh")
	ErrOAuthDenied        = fmt.Errorf("oauth2 login was denied")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrNetwork             = fmt.Errorf("network request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrPerformanceNotFound = fmt.Errorf("performance not found")
	ErrReviewNotFound      = fmt.Errorf("review not found")
	ErrDuplicateTrack      = fmt.Errorf("track already in playlist")
	ErrTrackIndex          = fmt.Errorf("track index out of range")

	// Storage errors
	ErrStorage       = fmt.Errorf("storage operation failed")
	ErrUnknownDriver = fmt.Errorf("unknown storage driver")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
