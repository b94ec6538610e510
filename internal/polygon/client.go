package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

// Retry policy for the grouped-daily endpoint. The attempt budget and
// backoff durations keep a multi-year backfill inside the upstream
// request-rate budget and must not be tuned casually.
const (
	maxAttempts      = 3
	requestTimeout   = 10 * time.Second
	rateLimitBackoff = 60 * time.Second
	transientBackoff = 5 * time.Second
)

// Client fetches grouped daily aggregates for a single trading day.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger

	// sleep is swapped out in tests to assert backoff behavior without
	// wall-clock waits.
	sleep func(time.Duration)
}

// NewClient creates a fetcher for the given endpoint. baseURL is the
// grouped-daily URL prefix; the request date is appended to it.
func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		sleep:      time.Sleep,
	}
}

type groupedDailyResponse struct {
	Status       string       `json:"status"`
	ResultsCount int          `json:"resultsCount"`
	Results      []models.Bar `json:"results"`
}

// FetchDailyBars retrieves all ticker bars for one trading day. A day with
// no published data returns (nil, nil); exhausting the retry budget or
// hitting a non-recoverable client error returns an error the caller is
// expected to log and treat as an empty day.
func (c *Client) FetchDailyBars(ctx context.Context, date time.Time) ([]models.Bar, error) {
	dateStr := date.Format("2006-01-02")
	reqURL := c.baseURL + dateStr

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("apiKey", c.apiKey)
	reqURL += "?" + params.Encode()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		bars, retry, err := c.attempt(ctx, reqURL, dateStr)
		if err == nil {
			return bars, nil
		}
		if !retry {
			return nil, err
		}
		c.logger.WithFields(logrus.Fields{
			"date":    dateStr,
			"attempt": attempt,
		}).Warnf("fetch attempt failed: %v", err)
		c.sleep(backoffFor(err))
	}

	return nil, fmt.Errorf("no data retrieved for %s after %d attempts", dateStr, maxAttempts)
}

// retryableError carries the backoff duration chosen from the response
// status semantics.
type retryableError struct {
	msg     string
	backoff time.Duration
}

func (e *retryableError) Error() string { return e.msg }

func backoffFor(err error) time.Duration {
	if re, ok := err.(*retryableError); ok {
		return re.backoff
	}
	return transientBackoff
}

// attempt performs one HTTP GET. retry reports whether the error is worth
// another attempt.
func (c *Client) attempt(ctx context.Context, reqURL, dateStr string) (bars []models.Bar, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, &retryableError{
			msg:     fmt.Sprintf("request failed: %v", err),
			backoff: transientBackoff,
		}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, true, &retryableError{
				msg:     fmt.Sprintf("failed to read response body: %v", err),
				backoff: transientBackoff,
			}
		}
		var parsed groupedDailyResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, false, fmt.Errorf("failed to decode response for %s: %w", dateStr, err)
		}
		if len(parsed.Results) == 0 {
			c.logger.WithField("date", dateStr).Info("no data published for day")
			return nil, false, nil
		}
		return parsed.Results, false, nil

	case res.StatusCode == http.StatusTooManyRequests:
		return nil, true, &retryableError{
			msg:     "rate limited by upstream",
			backoff: rateLimitBackoff,
		}

	case res.StatusCode >= 500:
		return nil, true, &retryableError{
			msg:     fmt.Sprintf("server error: %d", res.StatusCode),
			backoff: transientBackoff,
		}

	default:
		// Remaining 4xx statuses are non-recoverable for this day.
		return nil, false, fmt.Errorf("client error %d for %s, not retrying", res.StatusCode, dateStr)
	}
}
