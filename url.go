package stowgate

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPathPrefix is the path segment placed before the version in upstream URLs.
const DefaultPathPrefix = "api"

// UpstreamEndpoint describes how to address one provider operation.
type UpstreamEndpoint struct {
	BaseURL       string
	APIVersion    int
	OperationName string
	PathPrefix    string // empty means DefaultPathPrefix
}

// Validate checks that the endpoint can be turned into a URL.
func (e UpstreamEndpoint) Validate() error {
	if e.BaseURL == "" {
		return fmt.Errorf("validate endpoint: %w: base url cannot be empty", ErrInvalidInput)
	}
	if e.APIVersion < 1 {
		return fmt.Errorf("validate endpoint: %w: api version must be >= 1, got %d", ErrInvalidInput, e.APIVersion)
	}
	if e.OperationName == "" {
		return fmt.Errorf("validate endpoint: %w: operation name cannot be empty", ErrInvalidInput)
	}
	return nil
}

// MakeURL returns {BaseURL}/{prefix}/v{APIVersion}/{OperationName}.
// A trailing slash on BaseURL is dropped.
func MakeURL(e UpstreamEndpoint) string {
	prefix := strings.Trim(e.PathPrefix, "/")
	if prefix == "" {
		prefix = DefaultPathPrefix
	}

	var b strings.Builder
	b.WriteString(strings.TrimSuffix(e.BaseURL, "/"))
	b.WriteString("/")
	b.WriteString(prefix)
	b.WriteString("/v")
	b.WriteString(strconv.Itoa(e.APIVersion))
	b.WriteString("/")
	b.WriteString(e.OperationName)
	return b.String()
}
