package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrKeyIDRequired  = errors.New("key id is required")
	ErrKeyRequired    = errors.New("key is required")
	ErrConfigRequired = errors.New("config is required")
)

// Errors for input validation and link traversal.
var (
	ErrEmptyPath       = errors.New("path is required")
	ErrInvalidFileName = errors.New("invalid remote file name")
	ErrLinkMissing     = errors.New("link not advertised")
)
