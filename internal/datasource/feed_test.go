package datasource

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func fastConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           2 * time.Second,
		MaxRetries:        2,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      5 * time.Millisecond,
		RateLimit:         1000,
		CircuitBreakerMax: 2,
	}
}

func feedServer(t *testing.T, handler func(hit int32, w http.ResponseWriter)) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(atomic.AddInt32(&hits, 1), w)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func serveFile(t *testing.T, w http.ResponseWriter) {
	data, err := os.ReadFile("testdata/games.json")
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func TestFileFeed(t *testing.T) {
	games, err := NewFileFeed("testdata/games.json").FetchGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, "401700002", games[1].GameID)
	assert.True(t, games[1].IsNeutral)
	require.NotNil(t, games[1].HomeBox)
	assert.Equal(t, 61, games[1].HomeBox.FGA)
	assert.Nil(t, games[2].HomeScore)

	_, err = NewFileFeed("testdata/missing.json").FetchGames(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHTTPFeedRetriesServerErrors(t *testing.T) {
	srv, hits := feedServer(t, func(hit int32, w http.ResponseWriter) {
		if hit == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		serveFile(t, w)
	})

	feed := NewHTTPFeed(NewRateLimitedHTTPClient(fastConfig(), quietLogger()), srv.URL, quietLogger())
	games, err := feed.FetchGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestHTTPFeedDoesNotRetryNotFound(t *testing.T) {
	srv, hits := feedServer(t, func(hit int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusNotFound)
	})

	feed := NewHTTPFeed(NewRateLimitedHTTPClient(fastConfig(), quietLogger()), srv.URL, quietLogger())
	_, err := feed.FetchGames(context.Background())
	require.Error(t, err)

	var se SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrCodeNotFound, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestHTTPFeedRejectsMalformedBody(t *testing.T) {
	srv, _ := feedServer(t, func(hit int32, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	})

	feed := NewHTTPFeed(NewRateLimitedHTTPClient(fastConfig(), quietLogger()), srv.URL, quietLogger())
	_, err := feed.FetchGames(context.Background())
	var se SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrCodeInvalidData, se.Code)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv, hits := feedServer(t, func(hit int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := NewRateLimitedHTTPClient(fastConfig(), quietLogger())
	feed := NewHTTPFeed(client, srv.URL, quietLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := feed.FetchGames(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	before := atomic.LoadInt32(hits)
	assert.Equal(t, int32(6), before, "each call makes the first attempt plus two retries")

	_, err := feed.FetchGames(ctx)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, before, atomic.LoadInt32(hits))

	client.Reset()
	_, err = feed.FetchGames(ctx)
	assert.False(t, errors.Is(err, ErrCircuitOpen))
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	srv, hits := feedServer(t, func(hit int32, w http.ResponseWriter) {
		if hit <= 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		serveFile(t, w)
	})

	cfg := fastConfig()
	cfg.CircuitBreakerMax = 1
	cfg.CircuitBreakerTimeout = 20 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, quietLogger())
	feed := NewHTTPFeed(client, srv.URL, quietLogger())
	ctx := context.Background()

	_, err := feed.FetchGames(ctx)
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err = feed.FetchGames(ctx)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, client.State())

	games, err := feed.FetchGames(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 3)
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestNewPicksFeedByLocation(t *testing.T) {
	_, isHTTP := New("https://feeds.example.com/games.json", fastConfig(), quietLogger()).(*HTTPFeed)
	assert.True(t, isHTTP)
	_, isFile := New("testdata/games.json", fastConfig(), quietLogger()).(*FileFeed)
	assert.True(t, isFile)
}
