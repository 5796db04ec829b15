package line

// Package line talks to the LINE Platform API: access token verification and profile lookup.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"

	"github.com/target/food-identity-gateway/internal/ports"
)

// DefaultBaseURL is the LINE Platform API host.
const DefaultBaseURL = "https://api.line.me"

const maxErrorBody = 4 << 10

var (
	// ErrInvalidToken means the platform rejected the access token.
	ErrInvalidToken = errors.New("line: invalid access token")
	// ErrUpstream means the platform could not answer.
	ErrUpstream = fmt.Errorf("line: %w", ports.ErrPlatformUnavailable)
)

// APIError is a non-2xx platform response.
type APIError struct {
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("line api %d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("line api %d %s", e.Status, e.Code)
}

// Unwrap classifies the error as ErrInvalidToken or ErrUpstream.
func (e *APIError) Unwrap() error {
	if e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests {
		return ErrUpstream
	}
	return ErrInvalidToken
}

// TokenInfo is the response of the verify endpoint.
type TokenInfo struct {
	Scope     string `json:"scope"`
	ClientID  string `json:"client_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Retries is how often a 5xx or transport failure is retried. Zero uses 2.
	Retries      int
	RetryBackoff time.Duration
}

// Client calls the LINE Platform API.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  *slog.Logger
	retries uint64
	backoff time.Duration
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("line: invalid base url %q", raw)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retries := opts.Retries
	if retries == 0 {
		retries = 2
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return &Client{
		base:    base,
		http:    hc,
		logger:  logger.With("component", "line_client"),
		retries: uint64(max(retries, 0)),
		backoff: backoff,
	}, nil
}

// VerifyToken checks an access token and returns its channel and remaining lifetime.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (TokenInfo, error) {
	q := url.Values{"access_token": {accessToken}}
	var info TokenInfo
	err := c.do(ctx, "/oauth2/v2.1/verify?"+q.Encode(), "", &info)
	return info, err
}

// Profile returns the profile of the token's owner.
func (c *Client) Profile(ctx context.Context, accessToken string) (ports.Profile, error) {
	var p ports.Profile
	err := c.do(ctx, "/v2/profile", accessToken, &p)
	return p, err
}

func (c *Client) do(ctx context.Context, path, bearer string, out any) error {
	target := c.base.String() + path
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.once(ctx, target, bearer, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrUpstream) {
			c.logger.WarnContext(ctx, "line api call failed, retrying", "path", strings.SplitN(path, "?", 2)[0], "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) once(ctx context.Context, target, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("line: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseAPIError(resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	return nil
}

// parseAPIError reads the OAuth-style ({error, error_description}) or Messaging-style
// ({message}) error body. Non-JSON bodies keep only the status.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if !gjson.ValidBytes(body) {
		return e
	}
	res := gjson.GetManyBytes(body, "error", "error_description", "message")
	e.Code = res[0].String()
	e.Description = res[1].String()
	if e.Description == "" {
		e.Description = res[2].String()
	}
	return e
}
