package stowgate

import (
	"context"
	"fmt"
)

// Provider constants of the current integration.
const (
	UploadGrantAPIVersion = 2
	UploadGrantOperation  = "b2_get_upload_url"

	// UploadGrantPath is the gateway route advertised after a successful authorize.
	UploadGrantPath = "/api/get_upload_url"
	// AuthorizePath is the gateway route for the authorize operation.
	AuthorizePath = "/api/authorize_account"
)

// Upstream defines the provider calls the gateway delegates to.
// Implementations perform exactly one outbound call per method and report
// every failure as *UpstreamFailure.
type Upstream interface {
	// AuthorizeAccount exchanges a credential for an account authorization.
	AuthorizeAccount(ctx context.Context, cred Credential) (AccountAuthorization, error)

	// GetUploadGrant asks for a single-use upload target in bucketID.
	// The endpoint carries the base URL and API version; the implementation
	// supplies the operation name.
	GetUploadGrant(ctx context.Context, endpoint UpstreamEndpoint, authorizationToken, bucketID string) (UploadGrant, error)
}

// GatewayService runs the extract -> delegate -> assemble pipeline for each
// gateway operation. It holds no per-request state and is safe for
// concurrent use.
type GatewayService struct {
	upstream Upstream
	config   ServiceConfig
}

func NewGatewayService(upstream Upstream, cfg ServiceConfig) (*GatewayService, error) {
	if upstream == nil {
		return nil, fmt.Errorf("new gateway service: %w: upstream cannot be nil", ErrInvalidInput)
	}
	if cfg.UpstreamTimeout < 0 {
		return nil, fmt.Errorf("new gateway service: %w: negative upstream timeout", ErrInvalidInput)
	}
	return &GatewayService{
		upstream: upstream,
		config:   cfg,
	}, nil
}

// Authorize exchanges the credential for an account authorization and
// advertises the upload-grant operation as the next step.
//
// Upstream failures are returned wrapped and unhandled; use errors.As with
// *UpstreamFailure to inspect them.
func (s *GatewayService) Authorize(ctx context.Context, cred Credential) (AuthorizeResponse, error) {
	if cred.Identity == "" || cred.Secret == "" {
		return AuthorizeResponse{}, fmt.Errorf("authorize: %w: identity and secret are required", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return AuthorizeResponse{}, fmt.Errorf("authorize: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	auth, err := s.upstream.AuthorizeAccount(ctx, cred)
	if err != nil {
		return AuthorizeResponse{}, fmt.Errorf("authorize: %w", err)
	}

	return AuthorizeResponse{
		APIURL:             auth.APIURL,
		AuthorizationToken: auth.AuthorizationToken,
		BucketID:           auth.ScopeBucketID,
		DownloadURL:        auth.DownloadURL,
		HasLinks: HasLinks{Links: BuildLinks(map[string]LinkSpec{
			RelGetUploadURL: {Href: UploadGrantPath, Method: MethodPost},
		})},
	}, nil
}

// GetUploadGrant provisions an upload target and advertises it as the
// uploadFile link. The link points straight at the provider; the gateway
// never carries upload traffic.
func (s *GatewayService) GetUploadGrant(ctx context.Context, req UploadGrantRequest) (UploadGrantResponse, error) {
	endpoint := UpstreamEndpoint{
		BaseURL:       req.APIURL,
		APIVersion:    UploadGrantAPIVersion,
		OperationName: UploadGrantOperation,
		PathPrefix:    s.config.PathPrefix,
	}
	if err := endpoint.Validate(); err != nil {
		return UploadGrantResponse{}, fmt.Errorf("get upload grant: %w", err)
	}
	if req.AuthorizationToken == "" || req.BucketID == "" {
		return UploadGrantResponse{}, fmt.Errorf("get upload grant: %w: authorization token and bucket id are required", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return UploadGrantResponse{}, fmt.Errorf("get upload grant: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	grant, err := s.upstream.GetUploadGrant(ctx, endpoint, req.AuthorizationToken, req.BucketID)
	if err != nil {
		return UploadGrantResponse{}, fmt.Errorf("get upload grant: %w", err)
	}

	return UploadGrantResponse{
		AuthorizationToken: grant.AuthorizationToken,
		BucketID:           grant.BucketID,
		UploadURL:          grant.UploadURL,
		HasLinks: HasLinks{Links: BuildLinks(map[string]LinkSpec{
			RelUploadFile: {Href: grant.UploadURL, Method: MethodPost},
		})},
	}, nil
}

func (s *GatewayService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.UpstreamTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.UpstreamTimeout)
}
