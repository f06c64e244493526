package stowgate_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sagarc03/stowgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyUpstream struct {
	mock.Mock
}

func (s *SpyUpstream) AuthorizeAccount(ctx context.Context, cred stowgate.Credential) (stowgate.AccountAuthorization, error) {
	args := s.Called(ctx, cred)
	return args.Get(0).(stowgate.AccountAuthorization), args.Error(1)
}

func (s *SpyUpstream) GetUploadGrant(ctx context.Context, endpoint stowgate.UpstreamEndpoint, token, bucketID string) (stowgate.UploadGrant, error) {
	args := s.Called(ctx, endpoint, token, bucketID)
	return args.Get(0).(stowgate.UploadGrant), args.Error(1)
}

func NewGatewayService(t *testing.T) (*stowgate.GatewayService, *SpyUpstream) {
	t.Helper()
	spy := new(SpyUpstream)
	s, err := stowgate.NewGatewayService(spy, stowgate.ServiceConfig{})
	require.NoError(t, err, "new gateway service")
	return s, spy
}

func TestNewGatewayService_Validation(t *testing.T) {
	_, err := stowgate.NewGatewayService(nil, stowgate.ServiceConfig{})
	assert.ErrorIs(t, err, stowgate.ErrInvalidInput)

	_, err = stowgate.NewGatewayService(new(SpyUpstream), stowgate.ServiceConfig{UpstreamTimeout: -time.Second})
	assert.ErrorIs(t, err, stowgate.ErrInvalidInput)
}

func TestGatewayService_Authorize(t *testing.T) {
	s, spy := NewGatewayService(t)
	cred := stowgate.Credential{Identity: "key-id", Secret: "key"}

	spy.On("AuthorizeAccount", mock.Anything, cred).Return(stowgate.AccountAuthorization{
		ScopeBucketID:      "b1",
		APIURL:             "https://a",
		AuthorizationToken: "t1",
	}, nil)

	got, err := s.Authorize(context.Background(), cred)
	require.NoError(t, err)

	want := stowgate.AuthorizeResponse{
		APIURL:             "https://a",
		AuthorizationToken: "t1",
		BucketID:           "b1",
		HasLinks: stowgate.HasLinks{Links: stowgate.LinkSet{
			"getUploadUrl": {Rel: "getUploadUrl", Href: "/api/get_upload_url", Method: "POST"},
		}},
	}
	assert.Equal(t, want, got)
	spy.AssertExpectations(t)
}

func TestGatewayService_Authorize_DownloadURL(t *testing.T) {
	s, spy := NewGatewayService(t)
	cred := stowgate.Credential{Identity: "key-id", Secret: "key"}

	spy.On("AuthorizeAccount", mock.Anything, cred).Return(stowgate.AccountAuthorization{
		ScopeBucketID:      "b1",
		APIURL:             "https://a",
		AuthorizationToken: "t1",
		DownloadURL:        "https://f000.backblazeb2.com",
	}, nil)

	got, err := s.Authorize(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "https://f000.backblazeb2.com", got.DownloadURL)
}

func TestGatewayService_Authorize_MissingCredential(t *testing.T) {
	s, spy := NewGatewayService(t)

	_, err := s.Authorize(context.Background(), stowgate.Credential{Identity: "only-id"})
	assert.ErrorIs(t, err, stowgate.ErrInvalidInput)
	spy.AssertNotCalled(t, "AuthorizeAccount", mock.Anything, mock.Anything)
}

func TestGatewayService_Authorize_UpstreamFailure(t *testing.T) {
	failures := []*stowgate.UpstreamFailure{
		stowgate.Rejected("authorize account", http.StatusUnauthorized, `{"status":401,"code":"unauthorized","message":"bad"}`),
		stowgate.NoResponse("authorize account", errors.New("connection reset")),
		stowgate.RequestSetup("authorize account", errors.New("bad url")),
	}

	for _, failure := range failures {
		t.Run(string(failure.Kind), func(t *testing.T) {
			s, spy := NewGatewayService(t)
			cred := stowgate.Credential{Identity: "key-id", Secret: "key"}
			spy.On("AuthorizeAccount", mock.Anything, cred).Return(stowgate.AccountAuthorization{}, failure)

			got, err := s.Authorize(context.Background(), cred)
			require.Error(t, err)
			assert.Equal(t, stowgate.AuthorizeResponse{}, got)

			var reached *stowgate.UpstreamFailure
			require.True(t, errors.As(err, &reached))
			assert.Equal(t, failure.Kind, reached.Kind)
			assert.Equal(t, failure.StatusCode, reached.StatusCode)
			assert.Equal(t, failure.Body, reached.Body)
		})
	}
}

func TestGatewayService_GetUploadGrant(t *testing.T) {
	s, spy := NewGatewayService(t)

	wantEndpoint := stowgate.UpstreamEndpoint{
		BaseURL:       "https://a",
		APIVersion:    2,
		OperationName: "b2_get_upload_url",
	}
	spy.On("GetUploadGrant", mock.Anything, wantEndpoint, "t1", "b1").Return(stowgate.UploadGrant{
		AuthorizationToken: "t2",
		BucketID:           "b1",
		UploadURL:          "https://u",
	}, nil)

	got, err := s.GetUploadGrant(context.Background(), stowgate.UploadGrantRequest{
		APIURL:             "https://a",
		AuthorizationToken: "t1",
		BucketID:           "b1",
	})
	require.NoError(t, err)

	want := stowgate.UploadGrantResponse{
		AuthorizationToken: "t2",
		BucketID:           "b1",
		UploadURL:          "https://u",
		HasLinks: stowgate.HasLinks{Links: stowgate.LinkSet{
			"uploadFile": {Rel: "uploadFile", Href: "https://u", Method: "POST"},
		}},
	}
	assert.Equal(t, want, got)
	spy.AssertExpectations(t)
}

func TestGatewayService_GetUploadGrant_PathPrefix(t *testing.T) {
	spy := new(SpyUpstream)
	s, err := stowgate.NewGatewayService(spy, stowgate.ServiceConfig{PathPrefix: "b2api"})
	require.NoError(t, err)

	spy.On("GetUploadGrant", mock.Anything, mock.MatchedBy(func(e stowgate.UpstreamEndpoint) bool {
		return stowgate.MakeURL(e) == "https://a/b2api/v2/b2_get_upload_url"
	}), "t1", "b1").Return(stowgate.UploadGrant{UploadURL: "https://u"}, nil)

	_, err = s.GetUploadGrant(context.Background(), stowgate.UploadGrantRequest{
		APIURL: "https://a", AuthorizationToken: "t1", BucketID: "b1",
	})
	require.NoError(t, err)
	spy.AssertExpectations(t)
}

func TestGatewayService_GetUploadGrant_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  stowgate.UploadGrantRequest
	}{
		{name: "missing api url", req: stowgate.UploadGrantRequest{AuthorizationToken: "t1", BucketID: "b1"}},
		{name: "missing token", req: stowgate.UploadGrantRequest{APIURL: "https://a", BucketID: "b1"}},
		{name: "missing bucket", req: stowgate.UploadGrantRequest{APIURL: "https://a", AuthorizationToken: "t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, spy := NewGatewayService(t)
			_, err := s.GetUploadGrant(context.Background(), tt.req)
			assert.ErrorIs(t, err, stowgate.ErrInvalidInput)
			spy.AssertNotCalled(t, "GetUploadGrant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGatewayService_GetUploadGrant_UpstreamFailure(t *testing.T) {
	s, spy := NewGatewayService(t)
	failure := stowgate.Rejected("get upload url", http.StatusServiceUnavailable, `{"status":503}`)
	spy.On("GetUploadGrant", mock.Anything, mock.Anything, "t1", "b1").Return(stowgate.UploadGrant{}, failure)

	got, err := s.GetUploadGrant(context.Background(), stowgate.UploadGrantRequest{
		APIURL: "https://a", AuthorizationToken: "t1", BucketID: "b1",
	})
	assert.Equal(t, stowgate.UploadGrantResponse{}, got)
	assert.ErrorIs(t, err, &stowgate.UpstreamFailure{Kind: stowgate.KindRejected, StatusCode: http.StatusServiceUnavailable})
}

func TestGatewayService_UpstreamTimeout(t *testing.T) {
	spy := new(SpyUpstream)
	s, err := stowgate.NewGatewayService(spy, stowgate.ServiceConfig{UpstreamTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	cred := stowgate.Credential{Identity: "key-id", Secret: "key"}
	spy.On("AuthorizeAccount", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), cred).Return(stowgate.AccountAuthorization{}, stowgate.NoResponse("authorize account", context.DeadlineExceeded))

	_, err = s.Authorize(context.Background(), cred)
	assert.ErrorIs(t, err, stowgate.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	spy.AssertExpectations(t)
}

// Concurrent requests with different credentials must only ever see their own tokens.
func TestGatewayService_NoCrossRequestLeakage(t *testing.T) {
	s, spy := NewGatewayService(t)

	const n = 32
	for i := range n {
		cred := stowgate.Credential{Identity: fmt.Sprintf("id-%d", i), Secret: fmt.Sprintf("secret-%d", i)}
		spy.On("AuthorizeAccount", mock.Anything, cred).Return(stowgate.AccountAuthorization{
			ScopeBucketID:      fmt.Sprintf("bucket-%d", i),
			APIURL:             "https://a",
			AuthorizationToken: fmt.Sprintf("token-%d", i),
		}, nil)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cred := stowgate.Credential{Identity: fmt.Sprintf("id-%d", i), Secret: fmt.Sprintf("secret-%d", i)}
			got, err := s.Authorize(context.Background(), cred)
			if err != nil {
				errs <- err
				return
			}
			if got.AuthorizationToken != fmt.Sprintf("token-%d", i) || got.BucketID != fmt.Sprintf("bucket-%d", i) {
				errs <- fmt.Errorf("request %d saw token %s bucket %s", i, got.AuthorizationToken, got.BucketID)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestGatewayService_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("authorize", func(t *testing.T) {
		s, spy := NewGatewayService(t)

		_, err := s.Authorize(ctx, stowgate.Credential{Identity: "key-id", Secret: "key"})
		assert.ErrorIs(t, err, context.Canceled)
		spy.AssertNotCalled(t, "AuthorizeAccount", mock.Anything, mock.Anything)
	})

	t.Run("get upload grant", func(t *testing.T) {
		s, spy := NewGatewayService(t)

		_, err := s.GetUploadGrant(ctx, stowgate.UploadGrantRequest{
			APIURL:             "https://a",
			AuthorizationToken: "t1",
			BucketID:           "b1",
		})
		assert.ErrorIs(t, err, context.Canceled)
		spy.AssertNotCalled(t, "GetUploadGrant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
