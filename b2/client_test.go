package b2_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/b2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := b2.NewClient()
		assert.NotNil(t, client)
	})

	t.Run("custom http client", func(t *testing.T) {
		client := b2.NewClient(b2.WithHTTPClient(&http.Client{}), b2.WithTimeout(time.Second))
		assert.NotNil(t, client)
	})

	t.Run("timeout leaves shared client untouched", func(t *testing.T) {
		shared := &http.Client{Timeout: time.Minute}

		_ = b2.NewClient(b2.WithHTTPClient(shared), b2.WithTimeout(time.Second))
		_ = b2.NewClient(b2.WithTimeout(time.Second), b2.WithHTTPClient(shared))

		assert.Equal(t, time.Minute, shared.Timeout)
	})

	t.Run("nil http client", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_ = b2.NewClient(b2.WithHTTPClient(nil), b2.WithTimeout(time.Second))
		})
	})
}

func TestClient_TimeoutAppliesToCustomClient(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	shared := &http.Client{}
	client := b2.NewClient(
		b2.WithTimeout(50*time.Millisecond),
		b2.WithHTTPClient(shared),
		b2.WithAuthorizeURL(server.URL),
	)

	_, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})
	assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindNoResponse})
	assert.Zero(t, shared.Timeout)
}

func TestClient_AuthorizeAccount(t *testing.T) {
	t.Run("successful authorize", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/b2api/v2/b2_authorize_account", r.URL.Path)

			user, pass, ok := r.BasicAuth()
			assert.True(t, ok, "basic auth expected")
			assert.Equal(t, "key-id", user)
			assert.Equal(t, "key", pass)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"accountId": "acc",
				"allowed": {"bucketId": "b1", "bucketName": "photos", "capabilities": ["writeFiles"]},
				"apiUrl": "https://a",
				"authorizationToken": "t1",
				"downloadUrl": "https://d"
			}`))
		}))
		defer server.Close()

		client := b2.NewClient(b2.WithAuthorizeURL(server.URL + "/b2api/v2/b2_authorize_account"))
		auth, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})
		require.NoError(t, err)

		assert.Equal(t, stowgate.AccountAuthorization{
			ScopeBucketID:      "b1",
			APIURL:             "https://a",
			AuthorizationToken: "t1",
			DownloadURL:        "https://d",
		}, auth)
	})

	t.Run("unrestricted key has no bucket", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"allowed": {"bucketId": null}, "apiUrl": "https://a", "authorizationToken": "t1"}`))
		}))
		defer server.Close()

		client := b2.NewClient(b2.WithAuthorizeURL(server.URL))
		auth, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})
		require.NoError(t, err)
		assert.Empty(t, auth.ScopeBucketID)
		assert.Empty(t, auth.DownloadURL)
	})

	t.Run("rejected with b2 error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status": 401, "code": "unauthorized", "message": "invalid key"}`))
		}))
		defer server.Close()

		client := b2.NewClient(b2.WithAuthorizeURL(server.URL))
		_, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "bad"})
		require.Error(t, err)

		var failure *stowgate.UpstreamFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, stowgate.KindRejected, failure.Kind)
		assert.Equal(t, http.StatusUnauthorized, failure.StatusCode)
		assert.Equal(t, "unauthorized", failure.Code)
		assert.Equal(t, "invalid key", failure.Message)
		assert.Contains(t, failure.Body, "invalid key")
	})

	t.Run("rejected with non json body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		client := b2.NewClient(b2.WithAuthorizeURL(server.URL))
		_, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})

		var failure *stowgate.UpstreamFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, stowgate.KindRejected, failure.Kind)
		assert.Equal(t, http.StatusBadGateway, failure.StatusCode)
		assert.Empty(t, failure.Code)
		assert.Equal(t, "<html>bad gateway</html>", failure.Body)
	})

	t.Run("malformed success body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := b2.NewClient(b2.WithAuthorizeURL(server.URL))
		_, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindRequestSetup})
	})

	t.Run("success body missing fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"allowed": {"bucketId": "b1"}}`))
		}))
		defer server.Close()

		client := b2.NewClient(b2.WithAuthorizeURL(server.URL))
		_, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindRequestSetup})
	})

	t.Run("no response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := b2.NewClient(b2.WithAuthorizeURL(url))
		_, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindNoResponse})
	})

	t.Run("timeout is no response", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := b2.NewClient(b2.WithAuthorizeURL(server.URL))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.AuthorizeAccount(ctx, stowgate.Credential{Identity: "key-id", Secret: "key"})
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindNoResponse})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("bad authorize url is request setup", func(t *testing.T) {
		client := b2.NewClient(b2.WithAuthorizeURL("ftp://example.com"))
		_, err := client.AuthorizeAccount(context.Background(), stowgate.Credential{Identity: "key-id", Secret: "key"})
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindRequestSetup})
	})
}

func TestClient_GetUploadGrant(t *testing.T) {
	t.Run("successful grant", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v2/b2_get_upload_url", r.URL.Path)
			assert.Equal(t, "t1", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var payload map[string]string
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.Equal(t, map[string]string{"bucketId": "b1"}, payload)

			_, _ = w.Write([]byte(`{"authorizationToken": "t2", "bucketId": "b1", "uploadUrl": "https://u"}`))
		}))
		defer server.Close()

		client := b2.NewClient()
		grant, err := client.GetUploadGrant(context.Background(), stowgate.UpstreamEndpoint{
			BaseURL:    server.URL,
			APIVersion: 2,
		}, "t1", "b1")
		require.NoError(t, err)

		assert.Equal(t, stowgate.UploadGrant{
			AuthorizationToken: "t2",
			BucketID:           "b1",
			UploadURL:          "https://u",
		}, grant)
	})

	t.Run("operation name is fixed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/b2api/v2/b2_get_upload_url", r.URL.Path)
			_, _ = w.Write([]byte(`{"authorizationToken": "t2", "bucketId": "b1", "uploadUrl": "https://u"}`))
		}))
		defer server.Close()

		client := b2.NewClient()
		_, err := client.GetUploadGrant(context.Background(), stowgate.UpstreamEndpoint{
			BaseURL:       server.URL,
			APIVersion:    2,
			OperationName: "something_else",
			PathPrefix:    "b2api",
		}, "t1", "b1")
		require.NoError(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status": 401, "code": "expired_auth_token", "message": "Authorization token has expired"}`))
		}))
		defer server.Close()

		client := b2.NewClient()
		_, err := client.GetUploadGrant(context.Background(), stowgate.UpstreamEndpoint{BaseURL: server.URL, APIVersion: 2}, "t1", "b1")

		var failure *stowgate.UpstreamFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, stowgate.KindRejected, failure.Kind)
		assert.Equal(t, http.StatusUnauthorized, failure.StatusCode)
		assert.Equal(t, "expired_auth_token", failure.Code)
		assert.Equal(t, "get upload url", failure.Operation)
	})

	t.Run("missing upload url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"authorizationToken": "t2", "bucketId": "b1"}`))
		}))
		defer server.Close()

		client := b2.NewClient()
		_, err := client.GetUploadGrant(context.Background(), stowgate.UpstreamEndpoint{BaseURL: server.URL, APIVersion: 2}, "t1", "b1")
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindRequestSetup})
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		client := b2.NewClient()
		_, err := client.GetUploadGrant(context.Background(), stowgate.UpstreamEndpoint{BaseURL: "https://a"}, "t1", "b1")
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindRequestSetup})
		assert.ErrorIs(t, err, stowgate.ErrInvalidInput)
	})

	t.Run("base url without scheme", func(t *testing.T) {
		client := b2.NewClient()
		_, err := client.GetUploadGrant(context.Background(), stowgate.UpstreamEndpoint{BaseURL: "api001.backblazeb2.com", APIVersion: 2}, "t1", "b1")
		assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindRequestSetup})
	})
}

func TestClient_ImplementsUpstream(t *testing.T) {
	var _ stowgate.Upstream = b2.NewClient()
}
