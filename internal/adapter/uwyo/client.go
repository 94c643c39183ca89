package uwyo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/domain"
)

// maxBodyBytes bounds a page read. A TEXT:LIST page is tens of kilobytes.
const maxBodyBytes = 8 << 20

// Client downloads sounding pages from the University of Wyoming archive.
// It implements pipeline.Source.
type Client struct {
	httpClient *http.Client
	baseURL    string
	region     string
	maxBody    int64
	logger     *slog.Logger
}

// NewClient creates an archive client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		baseURL: cfg.BaseURL,
		region:  cfg.Region,
		maxBody: maxBodyBytes,
		logger:  logger,
	}
}

// URL builds the TEXT:LIST query for one station and hour.
func (c *Client) URL(req domain.Request) string {
	ddhh := fmt.Sprintf("%02d%02d", req.Time.Day(), req.Time.Hour())
	params := url.Values{
		"region": {c.region},
		"TYPE":   {"TEXT:LIST"},
		"YEAR":   {fmt.Sprintf("%04d", req.Time.Year())},
		"MONTH":  {fmt.Sprintf("%02d", int(req.Time.Month()))},
		"FROM":   {ddhh},
		"TO":     {ddhh},
		"STNM":   {req.StationID},
	}
	return c.baseURL + "?" + params.Encode()
}

// Fetch performs one GET and returns the decoded page. Connection failures
// and oversized bodies wrap domain.ErrTransport; non-2xx responses return *domain.StatusError.
// Whether the page actually holds a sounding is decided by extraction.
func (c *Client) Fetch(ctx context.Context, req domain.Request) (string, error) {
	u := c.URL(req)
	c.logger.Debug("fetching sounding page", "url", u)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %w", domain.ErrTransport, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		return "", &domain.StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", domain.ErrTransport, err)
	}
	if int64(len(body)) > c.maxBody {
		return "", fmt.Errorf("%w: response from %s exceeds %d bytes", domain.ErrTransport, u, c.maxBody)
	}

	c.logger.Debug("fetched sounding page", "bytes", len(body), "duration", time.Since(start))
	return decode(body), nil
}

// decode returns the body as UTF-8, treating anything that is not valid
// UTF-8 as ISO-8859-1. Some station headers are served in Latin-1.
func decode(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(out)
}
