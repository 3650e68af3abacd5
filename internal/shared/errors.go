package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Provider and service errors
	ErrProviderUnavailable = fmt.Errorf("search provider unavailable")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrTimeout             = fmt.Errorf("operation timed out")
	ErrLyricsNotFound      = fmt.Errorf("lyrics not found")
	ErrTrackNotFound       = fmt.Errorf("track not found")
	ErrPlaylistNotFound    = fmt.Errorf("playlist not found")
	ErrJobNotFound         = fmt.Errorf("job not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Download errors
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrFileNotFound   = fmt.Errorf("file not found")
)
