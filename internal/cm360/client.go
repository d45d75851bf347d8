package cm360

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultBaseURL is the CM360 REST root.
const DefaultBaseURL = "https://dfareporting.googleapis.com/dfareporting/v4"

// APIError is a non-2xx answer from CM360 or from the local proxy.
type APIError struct {
	Status  int
	Message string
	// Reason is the first machine-readable reason CM360 attached, if any.
	Reason string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cm360: http %d", e.Status)
	}
	return fmt.Sprintf("cm360: http %d: %s", e.Status, e.Message)
}

// Client performs single-attempt authenticated calls against CM360. It holds
// no credentials; use Session to bind a token and profile.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
	throttle   *Throttle
}

// NewClient creates a client rooted at baseURL, which may be CM360 itself or
// the local proxy prefix. A nil httpClient gets a traced default transport.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
	}
}

// SetThrottle limits the request rate per bearer token. A nil throttle
// disables limiting.
func (c *Client) SetThrottle(t *Throttle) {
	c.throttle = t
}

// Forget releases throttling state held for token.
func (c *Client) Forget(token string) {
	c.throttle.Forget(token)
}

// Session binds a bearer token and CM360 profile to the client. AccountID is
// only used to build links into the CM360 UI and may be empty.
type Session struct {
	client    *Client
	token     string
	profileID string
	accountID string
}

// Session returns a view of the client acting for one operator.
func (c *Client) Session(token, profileID, accountID string) *Session {
	return &Session{client: c, token: token, profileID: profileID, accountID: accountID}
}

// ProfileID returns the CM360 user profile the session acts as.
func (s *Session) ProfileID() string { return s.profileID }

func (s *Session) path(resource string) string {
	return "/userprofiles/" + url.PathEscape(s.profileID) + "/" + resource
}

// do issues one request and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, token, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		c.metrics.IncrementGatewayRequests(op, outcome)
		c.metrics.RecordGatewayLatency(op, time.Since(start))
	}()

	if err := c.throttle.Wait(ctx, token); err != nil {
		return fmt.Errorf("%s: waiting for quota: %w", op, err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, raw)
		c.logger.Debug("cm360 call rejected",
			zap.String("op", op),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		if len(env.Error.Errors) > 0 {
			apiErr.Reason = env.Error.Errors[0].Reason
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ErrorMessage returns the text an operator should see for a failed call:
// the server message for API errors, the error text otherwise.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
