package b2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sagarc03/stowgate"
)

const (
	// DefaultAuthorizeURL is the provider's fixed account authorization endpoint.
	DefaultAuthorizeURL = "https://api.backblazeb2.com/b2api/v2/b2_authorize_account"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes bounds how much of any upstream body is read.
	maxBodyBytes = 1 << 20

	opAuthorizeAccount = "authorize account"
	opGetUploadURL     = "get upload url"
)

// Client calls the B2 native API. It holds only immutable configuration and
// is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	timeout      time.Duration // applied to a copy of httpClient, 0 keeps its own
	authorizeURL string
	userAgent    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The client is never modified;
// WithTimeout applies to a copy. A nil client keeps the default.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout, regardless of option order.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithAuthorizeURL overrides the account authorization endpoint.
func WithAuthorizeURL(u string) Option {
	return func(c *Client) {
		c.authorizeURL = u
	}
}

// WithUserAgent sets the User-Agent sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		authorizeURL: DefaultAuthorizeURL,
		userAgent:    "stowgate",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// AuthorizeAccount exchanges the credential for an account authorization
// using HTTP Basic authentication.
func (c *Client) AuthorizeAccount(ctx context.Context, cred stowgate.Credential) (stowgate.AccountAuthorization, error) {
	req, err := c.newRequest(ctx, opAuthorizeAccount, http.MethodGet, c.authorizeURL, nil)
	if err != nil {
		return stowgate.AccountAuthorization{}, err
	}
	req.SetBasicAuth(cred.Identity, cred.Secret)

	var body authorizeAccountResponse
	if err := c.do(req, opAuthorizeAccount, &body); err != nil {
		return stowgate.AccountAuthorization{}, err
	}

	if body.APIURL == "" || body.AuthorizationToken == "" {
		return stowgate.AccountAuthorization{}, stowgate.RequestSetup(opAuthorizeAccount,
			errors.New("response is missing apiUrl or authorizationToken"))
	}

	return stowgate.AccountAuthorization{
		ScopeBucketID:      body.Allowed.BucketID,
		APIURL:             body.APIURL,
		AuthorizationToken: body.AuthorizationToken,
		DownloadURL:        body.DownloadURL,
	}, nil
}

// GetUploadGrant asks for an upload URL in bucketID. The operation name of
// endpoint is always set to b2_get_upload_url.
func (c *Client) GetUploadGrant(ctx context.Context, endpoint stowgate.UpstreamEndpoint, authorizationToken, bucketID string) (stowgate.UploadGrant, error) {
	endpoint.OperationName = stowgate.UploadGrantOperation
	if err := endpoint.Validate(); err != nil {
		return stowgate.UploadGrant{}, stowgate.RequestSetup(opGetUploadURL, err)
	}

	payload, err := json.Marshal(getUploadURLRequest{BucketID: bucketID})
	if err != nil {
		return stowgate.UploadGrant{}, stowgate.RequestSetup(opGetUploadURL, fmt.Errorf("encode request: %w", err))
	}

	req, err := c.newRequest(ctx, opGetUploadURL, http.MethodPost, stowgate.MakeURL(endpoint), bytes.NewReader(payload))
	if err != nil {
		return stowgate.UploadGrant{}, err
	}
	req.Header.Set("Authorization", authorizationToken)
	req.Header.Set("Content-Type", "application/json")

	var body getUploadURLResponse
	if err := c.do(req, opGetUploadURL, &body); err != nil {
		return stowgate.UploadGrant{}, err
	}

	if body.UploadURL == "" || body.AuthorizationToken == "" {
		return stowgate.UploadGrant{}, stowgate.RequestSetup(opGetUploadURL,
			errors.New("response is missing uploadUrl or authorizationToken"))
	}

	return stowgate.UploadGrant{
		AuthorizationToken: body.AuthorizationToken,
		BucketID:           body.BucketID,
		UploadURL:          body.UploadURL,
	}, nil
}

// newRequest builds an outbound request. Anything that stops it from being
// built is a request-setup failure.
func (c *Client) newRequest(ctx context.Context, op, method, rawURL string, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, stowgate.RequestSetup(op, fmt.Errorf("parse url: %w", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, stowgate.RequestSetup(op, fmt.Errorf("unsupported url scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, stowgate.RequestSetup(op, errors.New("url has no host"))
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, stowgate.RequestSetup(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return stowgate.NoResponse(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return stowgate.NoResponse(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseRejection(op, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return stowgate.RequestSetup(op, fmt.Errorf("parse response: %w", err))
	}

	return nil
}

// parseRejection keeps the status and raw body, and lifts code/message out
// of a B2 error document when there is one.
func parseRejection(op string, status int, body []byte) error {
	failure := stowgate.Rejected(op, status, string(body))

	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		failure.Code = e.Code
		failure.Message = e.Message
	}

	return failure
}
