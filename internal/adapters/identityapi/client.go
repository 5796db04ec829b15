package identityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

var (
	_ ports.SessionChecker = (*Client)(nil)
	_ ports.TokenExchanger = (*Client)(nil)
)

const (
	// DefaultTimeout bounds every identity API call.
	DefaultTimeout = 10 * time.Second
	maxBody        = 64 << 10
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	Timeout time.Duration
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *slog.Logger
	// Cookies seed the jar, typically the cookies of the incoming page request.
	Cookies []*http.Cookie
	// Header is added to every request.
	Header http.Header
}

// Client calls the identity API on behalf of one page load. It owns a cookie jar
// so the session cookie set by POST /login is visible to later calls.
type Client struct {
	base   *url.URL
	http   *http.Client
	jar    http.CookieJar
	header http.Header
	logger *slog.Logger

	mu     sync.Mutex
	issued map[string]*http.Cookie
	order  []string
}

// NewClient builds a Client with a fresh cookie jar.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("identity api: invalid base url %q", opts.BaseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("identity api: cookie jar: %w", err)
	}
	if len(opts.Cookies) > 0 {
		seed := make([]*http.Cookie, 0, len(opts.Cookies))
		for _, c := range opts.Cookies {
			seed = append(seed, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
		}
		jar.SetCookies(base, seed)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout, Jar: jar, Transport: opts.Transport},
		jar:    jar,
		header: opts.Header.Clone(),
		logger: logger.With("component", "identity_api_client"),
		issued: make(map[string]*http.Cookie),
	}, nil
}

// Cookies returns the cookies the jar would send to the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// Issued returns the last Set-Cookie seen per name on API responses, whatever its Domain.
// A cleared cookie has an empty value or a negative MaxAge.
func (c *Client) Issued() []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*http.Cookie, 0, len(c.order))
	for _, name := range c.order {
		ck := *c.issued[name]
		out = append(out, &ck)
	}
	return out
}

// do sends req and records the cookies the response sets. Cookies the jar would reject for
// their Domain are stored host-only so later calls of this page load still carry them.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	set := resp.Cookies()
	if len(set) == 0 {
		return resp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	hostOnly := make([]*http.Cookie, 0, len(set))
	for _, ck := range set {
		if _, seen := c.issued[ck.Name]; !seen {
			c.order = append(c.order, ck.Name)
		}
		c.issued[ck.Name] = ck
		hostOnly = append(hostOnly, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/", MaxAge: ck.MaxAge})
	}
	c.jar.SetCookies(c.base, hostOnly)
	return resp, nil
}

// Check implements ports.SessionChecker. Any failure reads as "no session".
func (c *Client) Check(ctx context.Context) *domainauth.ResolvedIdentity {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/session"), nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "build session request", "error", err)
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "session check failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "session check returned unexpected status", "status", resp.StatusCode)
		return nil
	}

	var body SessionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		c.logger.WarnContext(ctx, "decode session response", "error", err)
		return nil
	}
	if !body.Authenticated || body.User == nil || body.User.ID == "" {
		return nil
	}
	id := body.User.identity(domainauth.SourceSession)
	return &id
}

// Exchange implements ports.TokenExchanger.
func (c *Client) Exchange(ctx context.Context, accessToken string, ec ports.ExchangeContext) ports.ExchangeResult {
	payload, err := json.Marshal(LoginRequest{AccessToken: accessToken, RestaurantID: ec.RestaurantID})
	if err != nil {
		return failed(0, fmt.Sprintf("token exchange failed: encode request: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/login"), bytes.NewReader(payload))
	if err != nil {
		return failed(0, fmt.Sprintf("token exchange failed: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "token exchange transport error", "error", err)
		return failed(0, fmt.Sprintf("token exchange failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return failed(resp.StatusCode, fmt.Sprintf("token exchange failed: read body: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverError(body)
		c.logger.WarnContext(ctx, "token exchange rejected", "status", resp.StatusCode, "server_error", msg)
		return failed(resp.StatusCode, fmt.Sprintf("token exchange failed: %d %s", resp.StatusCode, msg))
	}

	var lr LoginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return failed(resp.StatusCode, fmt.Sprintf("token exchange failed: decode response: %v", err))
	}
	if !lr.Success || lr.User == nil {
		msg := lr.Error
		if msg == "" {
			msg = "missing user"
		}
		return failed(resp.StatusCode, fmt.Sprintf("token exchange failed: %d %s", resp.StatusCode, msg))
	}

	id := lr.User.identity(domainauth.SourceSDK)
	id.IsNewUser = id.IsNewUser || lr.IsNewUser
	id.RawAccessToken = accessToken
	return ports.ExchangeResult{Success: true, Identity: &id, Hint: lr.Hint(), Status: resp.StatusCode}
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func failed(status int, msg string) ports.ExchangeResult {
	return ports.ExchangeResult{Success: false, Status: status, Error: msg}
}

// serverError extracts the "error" field. Bodies that are not JSON still yield a message.
func serverError(body []byte) string {
	if gjson.ValidBytes(body) {
		if v := gjson.GetBytes(body, "error"); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return "unexpected response"
}
