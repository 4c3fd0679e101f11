package upstream_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiqt/talent-gateway/internal/upstream"
)

func TestClient_Do(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte("upstream says hi"))
	}))
	defer srv.Close()

	c := upstream.New(srv.URL, "secret-key", time.Second)
	got, err := c.Do(context.Background(), []byte(`{"q":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "upstream says hi", got)
	assert.Equal(t, `{"q":"x"}`, string(gotBody))
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestClient_NoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := upstream.New(srv.URL, "", time.Second)
	_, err := c.Do(context.Background(), []byte(`{}`))
	require.NoError(t, err)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("backend exploded"))
	}))
	defer srv.Close()

	c := upstream.New(srv.URL, "", time.Second)
	_, err := c.Do(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "backend exploded")
}
