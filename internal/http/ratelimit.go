package httpx

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Rate limiter defaults.
const (
	DefaultLoginRate  = 1.0
	DefaultLoginBurst = 5
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepSize  = 1024
)

// Headers the entry route adds to its own identity API calls so the limiter keys them by the
// visitor rather than by the gateway's address.
const (
	InternalKeyHeader = "X-Gateway-Internal-Key"
	VisitorIPHeader   = "X-Gateway-Visitor-IP"
)

// RateLimitConfig configures a per-client rate limiter.
type RateLimitConfig struct {
	// PerSecond is the sustained request rate per client.
	PerSecond float64
	Burst     int
	// TrustForwardedFor keys clients by the first X-Forwarded-For hop. Enable only behind a proxy
	// that overwrites the header.
	TrustForwardedFor bool
	// InternalKey authenticates VisitorIPHeader on in-process calls. A random key is used when empty.
	InternalKey string
	Logger      *slog.Logger
	Now         func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	trustXFF bool
	internal string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRateLimiter creates a limiter, applying defaults for unset values.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = DefaultLoginRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultLoginBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.InternalKey == "" {
		cfg.InternalKey = uuid.NewString()
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.PerSecond),
		burst:    cfg.Burst,
		trustXFF: cfg.TrustForwardedFor,
		internal: cfg.InternalKey,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// allow consumes one token for key and returns the wait until the next one when refused.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.visitors) >= limiterSweepSize {
		rl.sweepLocked(now)
	}
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	res := v.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweepLocked drops limiters idle longer than limiterIdleTTL.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(rl.visitors, k)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientKey(r)
		ok, wait := rl.allow(key)
		if !ok {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				"client", key,
				"path", r.URL.Path,
				"method", r.Method,
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			WriteError(w, ErrorParams{
				Code:    http.StatusTooManyRequests,
				ErrCode: "rate_limited",
				Err:     errors.New("too many login attempts"),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// VisitorHeaders returns the headers an in-process identity API call made on behalf of r must
// carry to be limited as r's client.
func (rl *RateLimiter) VisitorHeaders(r *http.Request) http.Header {
	h := make(http.Header, 2)
	h.Set(InternalKeyHeader, rl.internal)
	h.Set(VisitorIPHeader, clientIP(r, rl.trustXFF))
	return h
}

// clientKey is the visitor address of an authenticated in-process call, else the client IP.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	if visitor := strings.TrimSpace(r.Header.Get(VisitorIPHeader)); visitor != "" {
		key := r.Header.Get(InternalKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(rl.internal)) == 1 {
			return visitor
		}
	}
	return clientIP(r, rl.trustXFF)
}

func clientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
