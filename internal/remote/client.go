// Package remote implements the client for the remote analysis
// capability: free-text instructions plus the serialized dataset go out,
// and a structured response (message, optional grid action, optional
// replacement dataset) comes back.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Request is the wire request for one delegated instruction.
type Request struct {
	Instruction string   `json:"instruction"`
	Operation   string   `json:"operation,omitempty"`
	Headers     []string `json:"headers"`
	Rows        [][]any  `json:"rows"`
}

// Action is an API call to replay against the grid adapter, e.g. a
// formatting directive produced by the remote service.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UpdatedData carries a full replacement dataset.
type UpdatedData struct {
	Rows    int              `json:"rows"`
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// Response is the structured reply from the analysis service.
type Response struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Action      *Action      `json:"action,omitempty"`
	DataUpdated bool         `json:"dataUpdated,omitempty"`
	UpdatedData *UpdatedData `json:"updatedData,omitempty"`
}

// Client talks to the analysis service over HTTP JSON with bounded
// retries and exponential backoff on transient failures.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	apiKey           string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	logger           *zap.Logger
}

// NewClient builds a client. baseURL is required; zero-valued tuning
// parameters fall back to defaults.
func NewClient(baseURL, apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, logger *zap.Logger) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		baseURL:          baseURL,
		apiKey:           apiKey,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		logger:           logger,
	}
}

// Process sends one instruction with its dataset and decodes the
// structured response. Transient failures (timeouts, 429, 5xx) are
// retried with capped exponential backoff; anything else is returned as
// a classified error.
func (c *Client) Process(ctx context.Context, req Request) (*Response, error) {
	if c.baseURL == "" {
		return nil, errors.New("remote endpoint not configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/v1/process"
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if isRetryableNetErr(err) && attempt < c.retryMaxAttempts {
				lastErr = err
				c.logger.Debug("remote retry", zap.Int("attempt", attempt), zap.Error(err))
				time.Sleep(withJitter(backoff, c.retryMaxDelay))
				backoff *= 2
				continue
			}
			return nil, &UnreachableError{Host: c.baseURL, Err: err}
		}

		out, retry, err := c.readResponse(resp)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retry || attempt >= c.retryMaxAttempts {
			break
		}
		var rl *RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			time.Sleep(rl.RetryAfter)
		} else {
			time.Sleep(withJitter(backoff, c.retryMaxDelay))
			backoff *= 2
		}
	}
	return nil, lastErr
}

// readResponse consumes and closes the body, returning the decoded
// response or a classified error plus whether a retry makes sense.
func (c *Client) readResponse(resp *http.Response) (*Response, bool, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw map[string]any
		_ = json.Unmarshal(body, &raw)
		apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw}
		if v, ok := raw["error"].(map[string]any); ok {
			if msg, ok := v["message"].(string); ok {
				apiErr.Message = msg
			}
			if code, ok := v["code"].(string); ok {
				apiErr.Code = code
			}
		} else if msg, ok := raw["message"].(string); ok {
			apiErr.Message = msg
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
		return nil, retryable, classifyAPIError(apiErr, resp)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, &MalformedResponseError{Err: err}
	}
	return &out, false, nil
}

func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	switch sc := apiErr.StatusCode; {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		var ra time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: ra}
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	default:
		return apiErr
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

// parseRetryAfterSeconds interprets a Retry-After header value as either
// integer seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// withJitter applies +/-20% jitter and caps the result at ceiling.
func withJitter(d, ceiling time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if ceiling > 0 && out > ceiling {
		out = ceiling
	}
	return out
}
