package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	c := New("https://pokeapi.co/api/v2")

	tests := []struct {
		name     string
		endpoint string
		params   map[string]string
		want     string
	}{
		{
			name:     "relative endpoint",
			endpoint: "pokemon/pikachu",
			want:     "https://pokeapi.co/api/v2/pokemon/pikachu",
		},
		{
			name:     "leading slash stripped",
			endpoint: "/pokemon",
			want:     "https://pokeapi.co/api/v2/pokemon",
		},
		{
			name:     "absolute endpoint used as-is",
			endpoint: "https://example.com/other",
			want:     "https://example.com/other",
		},
		{
			name:     "params appended",
			endpoint: "pokemon",
			params:   map[string]string{"limit": "20", "offset": "40"},
			want:     "https://pokeapi.co/api/v2/pokemon?limit=20&offset=40",
		},
		{
			name:     "empty params skipped",
			endpoint: "pokemon",
			params:   map[string]string{"limit": "20", "offset": ""},
			want:     "https://pokeapi.co/api/v2/pokemon?limit=20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ResolveURL(tt.endpoint, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_DecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pokemon/25", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"pikachu","id":25}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	var out struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}
	err := c.Get(context.Background(), "pokemon/25", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "pikachu", out.Name)
	assert.Equal(t, 25, out.ID)
}

func TestErrorMessagePriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "error_message wins",
			body: `{"error_message":"first","message":"second","error":"third"}`,
			want: "first",
		},
		{
			name: "message next",
			body: `{"message":"second","error":"third"}`,
			want: "second",
		},
		{
			name: "error last",
			body: `{"error":"third"}`,
			want: "third",
		},
		{
			name: "status text fallback",
			body: `{"detail":"unrelated"}`,
			want: "404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL)
			err := c.Get(context.Background(), "pokemon/nope", nil, &struct{}{})
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "expected *APIError, got %T", err)
			assert.Equal(t, http.StatusNotFound, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestErrorPayloadRetained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad input","field":"limit"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Get(context.Background(), "pokemon", nil, &struct{}{})

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "bad input", apiErr.Message)
	assert.Equal(t, "limit", apiErr.Data["field"])
}

func TestNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	var out struct{}
	err := c.Delete(context.Background(), "favorites/1", nil, &out)
	assert.NoError(t, err)
}

func TestNonJSONContentTypeIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	var out struct{}
	err := c.Get(context.Background(), "ping", nil, &out)
	assert.NoError(t, err)
}

func TestNetworkErrorStatusZero(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	err := c.Get(context.Background(), "pokemon", nil, &struct{}{})
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.Status)
}

func TestRetryAfterHeader(t *testing.T) {
	t.Run("delay seconds", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		err := New(srv.URL).Get(context.Background(), "pokemon", nil, nil)
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
		assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
	})

	t.Run("http date", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", time.Now().Add(30*time.Second).UTC().Format(http.TimeFormat))
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := New(srv.URL).Get(context.Background(), "pokemon", nil, nil)
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		assert.Greater(t, apiErr.RetryAfter, 20*time.Second)
		assert.LessOrEqual(t, apiErr.RetryAfter, 30*time.Second)
	})

	t.Run("absent or garbage", func(t *testing.T) {
		assert.Zero(t, parseRetryAfter(""))
		assert.Zero(t, parseRetryAfter("soon"))
		assert.Zero(t, parseRetryAfter("-5"))
		// A date in the past requests no wait.
		assert.Zero(t, parseRetryAfter(time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)))
	})
}
