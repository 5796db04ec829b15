package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/target/food-identity-gateway/internal/ports"
)

const (
	// DefaultMaxLoadAttempts bounds SDK fetch attempts per page load.
	DefaultMaxLoadAttempts = 3
	// DefaultLoadRetryDelay is the constant wait between fetch attempts.
	DefaultLoadRetryDelay = 500 * time.Millisecond
)

// LoadResult is the outcome of Loader.Load.
type LoadResult struct {
	Success  bool
	Error    string
	Attempts int
	// Unavailable is set when the host cannot provide the SDK at all; retrying is pointless.
	Unavailable bool
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	Fetcher    ports.SDKFetcher
	State      *SDKState
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Loader fetches the client SDK at most once per page load, retrying transient failures.
type Loader struct {
	fetcher ports.SDKFetcher
	state   *SDKState
	delay   time.Duration
	logger  *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts LoaderOptions) *Loader {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultLoadRetryDelay
	}
	state := opts.State
	if state == nil {
		state = NewSDKState(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetcher: opts.Fetcher, state: state, delay: delay, logger: logger}
}

// Load makes the SDK available. It returns immediately when a handle is already attached and
// otherwise performs up to maxAttempts fetches with a constant delay between them.
// A non-positive maxAttempts uses DefaultMaxLoadAttempts.
func (l *Loader) Load(ctx context.Context, maxAttempts int) LoadResult {
	if l.state.Handle() != nil {
		return LoadResult{Success: true}
	}
	if l.fetcher == nil {
		return LoadResult{Error: ports.ErrSDKUnavailable.Error(), Unavailable: true}
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoadAttempts
	}

	attempts := 0
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewConstant(l.delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		sdk, err := l.fetchOnce(ctx)
		if errors.Is(err, ports.ErrSDKUnavailable) {
			return err
		}
		if err != nil {
			l.logger.WarnContext(ctx, "sdk fetch failed",
				"attempt", attempts,
				"max_attempts", maxAttempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		l.state.attach(sdk)
		return nil
	})
	if err != nil {
		return LoadResult{
			Error:       fmt.Sprintf("sdk load failed after %d attempt(s): %v", attempts, err),
			Attempts:    attempts,
			Unavailable: errors.Is(err, ports.ErrSDKUnavailable),
		}
	}
	return LoadResult{Success: true, Attempts: attempts}
}

// fetchOnce calls the fetcher, converting panics and nil handles into errors.
func (l *Loader) fetchOnce(ctx context.Context) (sdk ports.ClientSDK, err error) {
	defer func() {
		if r := recover(); r != nil {
			sdk, err = nil, fmt.Errorf("sdk fetch panic: %v", r)
		}
	}()
	sdk, err = l.fetcher.Fetch(ctx)
	if err == nil && sdk == nil {
		err = errors.New("sdk fetch returned no handle")
	}
	return sdk, err
}
