package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// ErrNoStreams is returned when a segment has no distance or altitude stream
var ErrNoStreams = errors.New("segment has no elevation streams")

// Client is a Strava API client
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *RateLimiter
}

// NewClient creates a new Strava API client
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return NewClientWithHTTP(oauth2.NewClient(context.Background(), tokenSource), BaseURL)
}

// NewClientWithHTTP creates a client that sends requests through httpClient to baseURL
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		rateLimiter: NewRateLimiter(),
	}
}

// GetAthlete fetches the authenticated athlete, including FTP and weight
func (c *Client) GetAthlete(ctx context.Context) (*Athlete, error) {
	var athlete Athlete
	if err := c.getJSON(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, fmt.Errorf("fetching athlete: %w", err)
	}
	return &athlete, nil
}

// GetSegment fetches a segment summary
func (c *Client) GetSegment(ctx context.Context, segmentID int64) (*Segment, error) {
	var segment Segment
	path := fmt.Sprintf("/segments/%d", segmentID)
	if err := c.getJSON(ctx, path, nil, &segment); err != nil {
		return nil, fmt.Errorf("fetching segment %d: %w", segmentID, err)
	}
	return &segment, nil
}

// GetSegmentStreams fetches the cumulative distance and altitude along a segment
func (c *Client) GetSegmentStreams(ctx context.Context, segmentID int64) (distances, altitudes []float64, err error) {
	params := url.Values{}
	params.Set("keys", "distance,altitude")
	params.Set("key_by_type", "true")

	var streams Streams
	path := fmt.Sprintf("/segments/%d/streams", segmentID)
	if err := c.getJSON(ctx, path, params, &streams); err != nil {
		return nil, nil, fmt.Errorf("fetching segment %d streams: %w", segmentID, err)
	}

	if streams.Distance == nil || streams.Altitude == nil ||
		len(streams.Distance.Data) != len(streams.Altitude.Data) || len(streams.Distance.Data) < 2 {
		return nil, nil, ErrNoStreams
	}
	return streams.Distance.Data, streams.Altitude.Data, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Update rate limiter from response headers
	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
