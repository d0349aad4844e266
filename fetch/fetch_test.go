package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasbot"
	"github.com/erraggy/oasbot/internal/testutil"
	"github.com/erraggy/oasbot/oaserrors"
)

func TestFetch(t *testing.T) {
	srv := testutil.NewSpecServer(t, map[string]string{"/swagger.json": testutil.PetstoreJSON})
	c := New()

	t.Run("ok", func(t *testing.T) {
		data, err := c.Fetch(context.Background(), srv.URL+"/swagger.json")
		require.NoError(t, err)
		assert.Equal(t, testutil.PetstoreJSON, string(data))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Fetch(context.Background(), srv.URL+"/missing.json")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrFetch))

		var fetchErr *oaserrors.FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := c.Fetch(context.Background(), "petstore.io/swagger.json")
		assert.True(t, errors.Is(err, oaserrors.ErrFetch))
	})
}

func TestFetch_UserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, oasbot.UserAgent(), got)

	_, err = New(WithUserAgent("custom/1.0")).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "custom/1.0", got)
}

func TestFetch_MaxSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	_, err := New(WithMaxSize(100)).Fetch(context.Background(), srv.URL)
	assert.NoError(t, err, "exactly at the limit is accepted")

	_, err = New(WithMaxSize(99)).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oaserrors.ErrFetch))
	assert.Contains(t, err.Error(), "exceeds 99 bytes")
}

func TestFetch_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New().Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oaserrors.ErrFetch))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestProbe(t *testing.T) {
	srv := testutil.NewSpecServer(t, map[string]string{"/swagger.json": testutil.PetstoreJSON})
	c := New()

	status, err := c.Probe(context.Background(), srv.URL+"/swagger.json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, srv.Hits(http.MethodHead, "/swagger.json"))
	assert.Equal(t, 0, srv.Hits(http.MethodGet, "/swagger.json"))

	status, err = c.Probe(context.Background(), srv.URL+"/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)

	_, err = c.Probe(context.Background(), "://bad")
	assert.True(t, errors.Is(err, oaserrors.ErrFetch))
}

func TestValidate(t *testing.T) {
	srv := testutil.NewSpecServer(t, map[string]string{
		"/swagger.json": testutil.PetstoreJSON,
		"/openapi.json": `{"openapi": "3.0.0", "info": {"title": "t", "version": "1"}, "paths": {}}`,
		"/broken.json":  `{"swagger": `,
	})
	c := New()

	assert.NoError(t, c.Validate(context.Background(), srv.URL+"/swagger.json"))

	err := c.Validate(context.Background(), srv.URL+"/openapi.json")
	assert.True(t, errors.Is(err, oaserrors.ErrInvalidSpec))

	err = c.Validate(context.Background(), srv.URL+"/broken.json")
	assert.True(t, errors.Is(err, oaserrors.ErrParse))

	err = c.Validate(context.Background(), srv.URL+"/missing.json")
	assert.True(t, errors.Is(err, oaserrors.ErrFetch))
}

func TestNew_HTTPClientOption(t *testing.T) {
	custom := &http.Client{Timeout: time.Second}
	c := New(WithHTTPClient(custom), WithInsecureSkipVerify(true))
	assert.Same(t, custom, c.httpClient)

	c = New(WithInsecureSkipVerify(true), WithTimeout(2*time.Second))
	require.NotNil(t, c.httpClient.Transport)
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)

	c = New(WithMaxSize(-1))
	assert.Equal(t, int64(DefaultMaxSize), c.maxSize)
}
