package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sagarc03/stowgate"
)

// Formatter formats results for output.
type Formatter interface {
	FormatAuthorize(w io.Writer, resp *stowgate.AuthorizeResponse, showSecrets bool) error
	FormatUploadURL(w io.Writer, resp *stowgate.UploadGrantResponse, showSecrets bool) error
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatAuthorize formats an account authorization as human-readable text.
func (f *HumanFormatter) FormatAuthorize(w io.Writer, resp *stowgate.AuthorizeResponse, showSecrets bool) error {
	if f.Quiet {
		return nil
	}
	bucket := resp.BucketID
	if bucket == "" {
		bucket = "(all buckets)"
	}
	_, _ = fmt.Fprintf(w, "API URL:  %s\n", resp.APIURL)
	_, _ = fmt.Fprintf(w, "Bucket:   %s\n", bucket)
	_, _ = fmt.Fprintf(w, "Token:    %s\n", maskSecret(resp.AuthorizationToken, showSecrets))
	if resp.DownloadURL != "" {
		_, _ = fmt.Fprintf(w, "Download: %s\n", resp.DownloadURL)
	}
	formatLinks(w, resp.Links)
	return nil
}

// FormatUploadURL formats an upload grant as human-readable text.
func (f *HumanFormatter) FormatUploadURL(w io.Writer, resp *stowgate.UploadGrantResponse, showSecrets bool) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, resp.UploadURL)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Upload URL: %s\n", resp.UploadURL)
	_, _ = fmt.Fprintf(w, "Bucket:     %s\n", resp.BucketID)
	_, _ = fmt.Fprintf(w, "Token:      %s\n", maskSecret(resp.AuthorizationToken, showSecrets))
	formatLinks(w, resp.Links)
	return nil
}

func formatLinks(w io.Writer, links stowgate.LinkSet) {
	for _, l := range links.List() {
		_, _ = fmt.Fprintf(w, "  -> %s: %s %s\n", l.Rel, l.Method, l.Href)
	}
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", r.RemotePath, formatSize(r.Size))
			_, _ = fmt.Fprintf(w, "  File ID: %s\n", r.FileID)
			_, _ = fmt.Fprintf(w, "  SHA1:    %s\n", r.ContentSHA1)
		}
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatAuthorize formats an account authorization as JSON. The token is
// masked unless showSecrets is set.
func (f *JSONFormatter) FormatAuthorize(w io.Writer, resp *stowgate.AuthorizeResponse, showSecrets bool) error {
	out := *resp
	out.AuthorizationToken = maskSecret(resp.AuthorizationToken, showSecrets)
	return writeJSON(w, out)
}

// FormatUploadURL formats an upload grant as JSON. The token is masked
// unless showSecrets is set.
func (f *JSONFormatter) FormatUploadURL(w io.Writer, resp *stowgate.UploadGrantResponse, showSecrets bool) error {
	out := *resp
	out.AuthorizationToken = maskSecret(resp.AuthorizationToken, showSecrets)
	return writeJSON(w, out)
}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		LocalPath   string `json:"local_path"`
		RemotePath  string `json:"remote_path"`
		FileID      string `json:"file_id,omitempty"`
		BucketID    string `json:"bucket_id,omitempty"`
		ContentType string `json:"content_type,omitempty"`
		ContentSHA1 string `json:"content_sha1,omitempty"`
		Size        int64  `json:"size_bytes,omitempty"`
		UploadedAt  string `json:"uploaded_at,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath:  r.LocalPath,
			RemotePath: r.RemotePath,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.FileID = r.FileID
			jr.BucketID = r.BucketID
			jr.ContentType = r.ContentType
			jr.ContentSHA1 = r.ContentSHA1
			jr.Size = r.Size
			if !r.UploadedAt.IsZero() {
				jr.UploadedAt = r.UploadedAt.Format(time.RFC3339)
			}
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	// Calculate column widths
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	// Print header
	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "KEY ID")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	// Print profiles
	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		keyID := maskSecret(p.KeyID, showSecrets)

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, keyID)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:       %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint:   %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Key ID:     %s\n", maskSecret(profile.KeyID, showSecrets))
	_, _ = fmt.Fprintf(w, "Key:        %s\n", maskSecret(profile.Key, showSecrets))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		KeyID    string `json:"key_id,omitempty"`
		Key      string `json:"key,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		jp := jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Default:  p.Name == defaultName,
		}
		jp.KeyID = maskSecret(p.KeyID, showSecrets)
		jp.Key = maskSecret(p.Key, showSecrets)
		output.Profiles[i] = jp
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		KeyID    string `json:"key_id"`
		Key      string `json:"key"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		KeyID:    maskSecret(profile.KeyID, showSecrets),
		Key:      maskSecret(profile.Key, showSecrets),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// maskSecret masks a secret string unless showSecrets is set.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	return stowgate.MaskSecret(secret)
}
