package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shindakun/urlshort/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	c, err := New(srv.URL+"/login", opts...)
	require.NoError(t, err)
	return c
}

func TestLoginSuccess(t *testing.T) {
	var got models.Credentials
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"token":"T","user":{"firstname":"Alice","lastname":"Liddell"}}`)
	})

	resp, err := c.Login(context.Background(), models.Credentials{Email: "alice@example.com", Password: "wonderland"})
	require.NoError(t, err)

	assert.Equal(t, models.Credentials{Email: "alice@example.com", Password: "wonderland"}, got)
	assert.Equal(t, "T", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Alice", resp.User.Firstname)
	assert.True(t, resp.HasSession())
}

func TestLoginSuccessEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	resp, err := c.Login(context.Background(), models.Credentials{})
	require.NoError(t, err)
	assert.False(t, resp.HasSession())
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{name: "json string body", status: 401, body: `"Invalid credentials"`, wantStatus: 401, wantMessage: "Invalid credentials"},
		{name: "plain text body", status: 401, body: "Invalid credentials", wantStatus: 401, wantMessage: "Invalid credentials"},
		{name: "json object message", status: 400, body: `{"message":"user not found"}`, wantStatus: 400, wantMessage: "user not found"},
		{name: "json object error", status: 403, body: `{"error":"account locked"}`, wantStatus: 403, wantMessage: "account locked"},
		{name: "json object without text", status: 500, body: `{"code":17}`, wantStatus: 500, wantMessage: FallbackMessage},
		{name: "empty body", status: 500, body: "", wantStatus: 500, wantMessage: FallbackMessage},
		{name: "whitespace body", status: 502, body: "  \n", wantStatus: 502, wantMessage: FallbackMessage},
		{name: "json null", status: 500, body: "null", wantStatus: 500, wantMessage: FallbackMessage},
		{name: "malformed success body", status: 200, body: "<html>oops</html>", wantStatus: 200, wantMessage: FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			resp, err := c.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: "password1"})
			require.Error(t, err)
			assert.Nil(t, resp)

			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, tt.wantStatus, failure.StatusCode)
			assert.Equal(t, tt.wantMessage, failure.UserMessage())
		})
	}
}

func TestLoginTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/login"
	srv.Close()

	var observed []int
	c, err := New(endpoint, WithObserver(func(status int, _ time.Duration) {
		observed = append(observed, status)
	}))
	require.NoError(t, err)

	_, err = c.Login(context.Background(), models.Credentials{})
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 0, failure.StatusCode)
	assert.NotNil(t, failure.Unwrap())
	assert.Equal(t, FallbackMessage, failure.UserMessage())
	assert.Equal(t, []int{0}, observed)
}

func TestLoginContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Login(ctx, models.Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoginTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond))
	defer close(release)

	_, err := c.Login(context.Background(), models.Credentials{})
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 0, failure.StatusCode)
}

func TestNewRejectsBadEndpoints(t *testing.T) {
	for _, endpoint := range []string{"", "ftp://example.com/login", "/login", "http://"} {
		_, err := New(endpoint)
		assert.Error(t, err, "endpoint %q", endpoint)
	}
}

func TestDecodeFailureClipsLongBodies(t *testing.T) {
	f := DecodeFailure(500, []byte(strings.Repeat("é", 600)))
	assert.LessOrEqual(t, len(f.Message), maxMessageBytes)
	assert.True(t, strings.HasPrefix(strings.Repeat("é", 600), f.Message))
}

func TestFailureError(t *testing.T) {
	assert.Equal(t, "login failed with status 401: nope", (&Failure{StatusCode: 401, Message: "nope"}).Error())
	assert.Equal(t, "login failed with status 500", (&Failure{StatusCode: 500}).Error())
	assert.Contains(t, (&Failure{Err: errors.New("dial tcp")}).Error(), "dial tcp")
	assert.True(t, (&Failure{StatusCode: 401}).Unauthorized())
	assert.False(t, (&Failure{StatusCode: 503}).Unauthorized())
}
