package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/models"
)

// HTTPFeed reads a JSON array of raw game rows from an HTTP endpoint.
type HTTPFeed struct {
	client *RateLimitedHTTPClient
	url    string
	logger *logrus.Entry
}

// NewHTTPFeed creates a feed over an existing client.
func NewHTTPFeed(client *RateLimitedHTTPClient, url string, logger *logrus.Logger) *HTTPFeed {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPFeed{
		client: client,
		url:    url,
		logger: logger.WithField("component", "http_feed"),
	}
}

// Name returns the feed URL.
func (f *HTTPFeed) Name() string {
	return f.url
}

// FetchGames downloads and decodes the feed.
func (f *HTTPFeed) FetchGames(ctx context.Context) ([]models.RawGame, error) {
	resp, err := f.client.Get(ctx, f.url)
	if err != nil {
		return nil, NewSourceError(f.Name(), ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewSourceError(f.Name(), ErrCodeNotFound, resp.Status, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewSourceError(f.Name(), ErrCodeRateLimitExceeded, resp.Status, ErrRateLimitExceeded)
	case resp.StatusCode >= 500:
		return nil, NewSourceError(f.Name(), ErrCodeServerError, resp.Status, ErrServerError)
	case resp.StatusCode >= 300:
		return nil, NewSourceError(f.Name(), ErrCodeInvalidData, "unexpected status "+resp.Status, nil)
	}

	games, err := decodeGames(resp.Body)
	if err != nil {
		return nil, NewSourceError(f.Name(), ErrCodeInvalidData, "failed to decode feed", err)
	}
	f.logger.WithField("rows", len(games)).Info("Fetched raw games")
	return games, nil
}

// FileFeed reads a JSON array of raw game rows from disk.
type FileFeed struct {
	path string
}

// NewFileFeed creates a file-backed feed.
func NewFileFeed(path string) *FileFeed {
	return &FileFeed{path: path}
}

// Name returns the file path.
func (f *FileFeed) Name() string {
	return f.path
}

// FetchGames reads and decodes the file.
func (f *FileFeed) FetchGames(ctx context.Context) ([]models.RawGame, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewSourceError(f.Name(), ErrCodeNotFound, "file does not exist", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	games, err := decodeGames(file)
	if err != nil {
		return nil, NewSourceError(f.Name(), ErrCodeInvalidData, "failed to decode file", err)
	}
	return games, nil
}

// New returns an HTTP feed for http(s) locations and a file feed otherwise.
func New(location string, cfg HTTPClientConfig, logger *logrus.Logger) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPFeed(NewRateLimitedHTTPClient(cfg, logger), location, logger)
	}
	return NewFileFeed(location)
}

func decodeGames(r io.Reader) ([]models.RawGame, error) {
	var games []models.RawGame
	if err := json.NewDecoder(r).Decode(&games); err != nil {
		return nil, err
	}
	return games, nil
}
