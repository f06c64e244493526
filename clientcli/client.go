package clientcli

import (
	"bytes"
	"context"
	"crypto/sha1" //#nosec G505 -- the provider's integrity check is defined over SHA-1
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/stowgate"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// RootPath is where the gateway serves its discovery document.
	RootPath = "/api"
)

// Client walks the gateway's links: discover, authorize, get an upload URL,
// then upload straight to the provider.
type Client struct {
	config     *Config
	endpoint   *url.URL
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The client is never modified;
// WithTimeout applies to a copy.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	// Apply defaults
	cfg = cfg.WithDefaults()

	// Normalize endpoint URL (remove trailing slash)
	endpoint, err := url.Parse(strings.TrimSuffix(cfg.Endpoint, "/"))
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", cfg.Endpoint)
	}

	c := &Client{
		config: &Config{
			Endpoint: endpoint.String(),
			KeyID:    cfg.KeyID,
			Key:      cfg.Key,
		},
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	// Apply options
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

	return c, nil
}

// Discover fetches the gateway's root document and returns its links.
func (c *Client) Discover(ctx context.Context) (stowgate.LinkSet, error) {
	var doc stowgate.HasLinks
	link := stowgate.Link{Rel: "self", Href: RootPath, Method: stowgate.MethodGet}
	if err := c.doJSON(ctx, link, nil, &doc); err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	return doc.Links, nil
}

// Authorize exchanges cred for an account authorization through the
// gateway's advertised authorize link.
func (c *Client) Authorize(ctx context.Context, cred stowgate.Credential) (*stowgate.AuthorizeResponse, error) {
	links, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}

	link, err := follow(links, stowgate.RelAuthorize)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}

	var resp stowgate.AuthorizeResponse
	if err := c.doJSON(ctx, link, cred, &resp); err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	return &resp, nil
}

// GetUploadURL follows the getUploadUrl link of a previous authorization.
func (c *Client) GetUploadURL(ctx context.Context, auth *stowgate.AuthorizeResponse) (*stowgate.UploadGrantResponse, error) {
	if auth == nil {
		return nil, fmt.Errorf("get upload url: %w", stowgate.ErrInvalidInput)
	}

	link, err := follow(auth.Links, stowgate.RelGetUploadURL)
	if err != nil {
		return nil, fmt.Errorf("get upload url: %w", err)
	}

	body := stowgate.UploadGrantRequest{
		APIURL:             auth.APIURL,
		AuthorizationToken: auth.AuthorizationToken,
		BucketID:           auth.BucketID,
	}

	var resp stowgate.UploadGrantResponse
	if err := c.doJSON(ctx, link, body, &resp); err != nil {
		return nil, fmt.Errorf("get upload url: %w", err)
	}
	return &resp, nil
}

// UploadFile sends one local file to the grant's uploadFile link.
func (c *Client) UploadFile(ctx context.Context, grant *stowgate.UploadGrantResponse, opts UploadOptions) (UploadResult, error) {
	if grant == nil {
		return UploadResult{}, fmt.Errorf("upload file: %w", stowgate.ErrInvalidInput)
	}
	if opts.LocalPath == "" {
		return UploadResult{}, fmt.Errorf("upload file: %w", ErrEmptyPath)
	}

	link, err := follow(grant.Links, stowgate.RelUploadFile)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload file: %w", err)
	}

	remotePath := opts.RemotePath
	if remotePath == "" {
		remotePath = NormalizeLocalToRemotePath(opts.LocalPath)
	}
	if !stowgate.IsValidFileName(remotePath) {
		return UploadResult{}, fmt.Errorf("upload file: %w: %q", ErrInvalidFileName, remotePath)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}

	digest, err := sha1Hex(file)
	if err != nil {
		return UploadResult{}, err
	}

	target, err := c.resolve(link.Href)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload file: %w", err)
	}

	// Create request with file as body (streaming, no memory copy)
	var body io.Reader = file
	if info.Size() == 0 {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, string(link.Method), target, body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Authorization", grant.AuthorizationToken)
	req.Header.Set("X-Bz-File-Name", EncodeFileName(remotePath))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Bz-Content-Sha1", digest)
	for k, v := range opts.Info {
		req.Header.Set("X-Bz-Info-"+k, url.PathEscape(v))
	}

	var resp uploadFileResponse
	if err := c.do(req, &resp); err != nil {
		return UploadResult{}, fmt.Errorf("upload file: %w", err)
	}

	return resp.toResult(opts.LocalPath), nil
}

// Upload runs the whole chain with the client's configured key: authorize,
// fetch one upload URL, then upload the file (or, with Recursive, every file
// under the directory). The steps run in order because each needs the
// tokens the previous one returned.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	auth, err := c.Authorize(ctx, c.config.Credential())
	if err != nil {
		return nil, err
	}

	if opts.Recursive {
		return c.uploadRecursive(ctx, auth, opts)
	}

	result, err := c.uploadOne(ctx, auth, opts)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadOne fetches a fresh grant and spends it on a single file. Upload
// URLs are single use, so every file gets its own.
func (c *Client) uploadOne(ctx context.Context, auth *stowgate.AuthorizeResponse, opts UploadOptions) (UploadResult, error) {
	grant, err := c.GetUploadURL(ctx, auth)
	if err != nil {
		return UploadResult{}, err
	}
	return c.UploadFile(ctx, grant, opts)
}

// uploadRecursive walks a directory and uploads every file under one
// account authorization, one upload grant per file.
func (c *Client) uploadRecursive(ctx context.Context, auth *stowgate.AuthorizeResponse, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadOne(ctx, auth, opts)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult
	baseDir := opts.LocalPath
	remotePrefix := strings.Trim(opts.RemotePath, "/")

	walkErr := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		// Check context cancellation
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		// Calculate relative path
		relPath, relErr := filepath.Rel(baseDir, path)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: path,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		// Convert to forward slashes for remote path
		remotePath := filepath.ToSlash(relPath)
		if remotePrefix != "" {
			remotePath = remotePrefix + "/" + remotePath
		}

		fileOpts := opts
		fileOpts.LocalPath = path
		fileOpts.RemotePath = remotePath

		result, uploadErr := c.uploadOne(ctx, auth, fileOpts)
		if uploadErr != nil {
			result = UploadResult{
				LocalPath:  path,
				RemotePath: remotePath,
				Err:        uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// HasUploadErrors returns true if any upload in results failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// follow returns the link for rel or ErrLinkMissing.
func follow(links stowgate.LinkSet, rel string) (stowgate.Link, error) {
	link, ok := links.Get(rel)
	if !ok || link.Href == "" {
		return stowgate.Link{}, fmt.Errorf("%w: %s", ErrLinkMissing, rel)
	}
	if link.Method == "" {
		link.Method = stowgate.MethodGet
	}
	return link, nil
}

// resolve turns a link href into an absolute URL. Relative hrefs are
// resolved against the gateway endpoint.
func (c *Client) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base := *c.endpoint
	base.Path = strings.TrimSuffix(base.Path, "/") + "/"
	return base.ResolveReference(&url.URL{
		Path:     strings.TrimPrefix(ref.Path, "/"),
		RawQuery: ref.RawQuery,
	}).String(), nil
}

// doJSON sends body (if any) as JSON to link and decodes the answer into out.
func (c *Client) doJSON(ctx context.Context, link stowgate.Link, body, out any) error {
	target, err := c.resolve(link.Href)
	if err != nil {
		return err
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, string(link.Method), target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// sha1Hex hashes r from its current offset and rewinds it.
func sha1Hex(f io.ReadSeeker) (string, error) {
	h := sha1.New() //#nosec G401 -- see import
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// EncodeFileName percent-encodes each segment of a remote file name for the
// X-Bz-File-Name header, keeping the "/" separators.
func EncodeFileName(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// NormalizeLocalToRemotePath converts a local path to a clean remote path.
// It handles:
//   - Leading "./" is stripped (./foo/bar.txt -> foo/bar.txt)
//   - Leading "/" is stripped (/abs/path/file.txt -> abs/path/file.txt)
//   - Parent traversal is resolved (../sibling/file.txt -> sibling/file.txt)
//   - Multiple slashes are collapsed
//   - Backslashes are converted to forward slashes (Windows)
func NormalizeLocalToRemotePath(localPath string) string {
	// Convert to forward slashes (Windows compatibility)
	path := filepath.ToSlash(localPath)

	// Clean the path (resolves . and .. segments)
	path = filepath.Clean(path)

	// Convert back to forward slashes after Clean (Clean uses OS separator)
	path = filepath.ToSlash(path)

	// Strip leading "./"
	path = strings.TrimPrefix(path, "./")

	// Strip leading "/" (absolute paths)
	path = strings.TrimPrefix(path, "/")

	// Handle edge case where Clean might produce ".."
	// Keep stripping leading "../" segments
	for strings.HasPrefix(path, "../") {
		path = strings.TrimPrefix(path, "../")
	}

	// Handle edge case where path is just ".." or "."
	if path == ".." || path == "." {
		return ""
	}

	return path
}

// parseServerError extracts error message from server response.
func parseServerError(statusCode int, body []byte) error {
	return &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}
}

// APIError represents an error response from the gateway or the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the gateway does not serve the route (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the provider rejects the key or token (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the key lacks a capability (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrBadGateway is returned when the gateway could not reach the provider (502).
	ErrBadGateway = &APIError{StatusCode: http.StatusBadGateway}
)
