package stowgate

import (
	"log/slog"
	"time"
)

// Credential is the caller-supplied key pair. It is used for one upstream
// call and never stored.
type Credential struct {
	Identity string `json:"identity" validate:"required"`
	Secret   string `json:"secret" validate:"required"`
}

// LogValue keeps the secret out of logs and shows only the edges of the identity.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("identity", MaskSecret(c.Identity)),
		slog.String("secret", "[REDACTED]"),
	)
}

// MaskSecret shows only the first and last four characters of s.
// Values of eight characters or fewer are fully masked.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// AccountAuthorization is the provider's answer to an authorize call.
// The token lifetime is managed by the provider.
type AccountAuthorization struct {
	ScopeBucketID      string
	APIURL             string
	AuthorizationToken string
	DownloadURL        string
}

// UploadGrant is a single-use upload target issued by the provider.
type UploadGrant struct {
	AuthorizationToken string
	BucketID           string
	UploadURL          string
}

// UploadGrantRequest is the inbound body of the upload-grant operation.
type UploadGrantRequest struct {
	APIURL             string `json:"apiUrl" validate:"required,url"`
	AuthorizationToken string `json:"authorizationToken" validate:"required"`
	BucketID           string `json:"bucketId" validate:"required"`
}

// AuthorizeResponse is returned by the authorize operation.
type AuthorizeResponse struct {
	APIURL             string `json:"apiUrl"`
	AuthorizationToken string `json:"authorizationToken"`
	BucketID           string `json:"bucketId"`
	DownloadURL        string `json:"downloadUrl,omitempty"`
	HasLinks
}

// UploadGrantResponse is returned by the upload-grant operation.
type UploadGrantResponse struct {
	AuthorizationToken string `json:"authorizationToken"`
	BucketID           string `json:"bucketId"`
	UploadURL          string `json:"uploadUrl"`
	HasLinks
}

// ServiceConfig holds configuration options for GatewayService.
type ServiceConfig struct {
	UpstreamTimeout time.Duration // per-call bound on provider calls, 0 disables
	PathPrefix      string        // path segment before the version, default "api"
}
