package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

const (
	// DefaultInitBackoff is the wait between init retries.
	DefaultInitBackoff = time.Second
	// DefaultNetworkRetries is how often a network or timeout failure is retried.
	DefaultNetworkRetries = 3
	// DefaultOtherRetries is how often an unclassified failure is retried.
	DefaultOtherRetries = 1
)

var appIDPattern = regexp.MustCompile(`^[0-9]{10}-[A-Za-z0-9]{8}$`)

// ErrMalformedAppID is returned by ValidateAppID.
var ErrMalformedAppID = errors.New("malformed sdk app id")

// ValidateAppID checks the "<10 digits>-<8 alphanumerics>" app id format.
func ValidateAppID(appID string) error {
	if !appIDPattern.MatchString(appID) {
		return fmt.Errorf("%w: %q", ErrMalformedAppID, appID)
	}
	return nil
}

// InitResult is the outcome of Initializer.Initialize.
type InitResult struct {
	Success bool
	Error   string
	Kind    domainauth.ErrorKind
	// Calls is the number of SDK Init calls made by this invocation.
	Calls int
}

// InitializerOptions configures an Initializer.
type InitializerOptions struct {
	State          *SDKState
	Graceful       *Graceful
	Backoff        time.Duration
	NetworkRetries int
	OtherRetries   int
	Logger         *slog.Logger
}

// Initializer initializes the loaded SDK exactly once. Concurrent callers share one run.
type Initializer struct {
	state          *SDKState
	graceful       *Graceful
	backoff        time.Duration
	networkRetries int
	otherRetries   int
	logger         *slog.Logger

	flight singleflight.Group
}

// NewInitializer creates an Initializer. Zero retry counts use the defaults; pass a negative
// value to disable retries for that class.
func NewInitializer(opts InitializerOptions) *Initializer {
	in := &Initializer{
		state:          opts.State,
		graceful:       opts.Graceful,
		backoff:        opts.Backoff,
		networkRetries: opts.NetworkRetries,
		otherRetries:   opts.OtherRetries,
		logger:         opts.Logger,
	}
	if in.state == nil {
		in.state = NewSDKState(nil)
	}
	if in.backoff <= 0 {
		in.backoff = DefaultInitBackoff
	}
	if in.networkRetries == 0 {
		in.networkRetries = DefaultNetworkRetries
	}
	if in.otherRetries == 0 {
		in.otherRetries = DefaultOtherRetries
	}
	in.networkRetries = max(in.networkRetries, 0)
	in.otherRetries = max(in.otherRetries, 0)
	if in.logger == nil {
		in.logger = slog.Default()
	}
	return in
}

// Initialize validates appID and initializes the SDK. A malformed id fails with
// ErrorFatalConfig before any SDK call is made.
func (in *Initializer) Initialize(ctx context.Context, appID string) InitResult {
	if err := ValidateAppID(appID); err != nil {
		return InitResult{Error: err.Error(), Kind: domainauth.ErrorFatalConfig}
	}
	if in.state.Initialized() {
		return InitResult{Success: true}
	}
	v, _, _ := in.flight.Do(appID, func() (any, error) {
		return in.initialize(ctx, appID), nil
	})
	res, _ := v.(InitResult)
	return res
}

type initClass int

const (
	initOK initClass = iota
	initInvalidID
	initNetwork
	initOther
)

func (in *Initializer) initialize(ctx context.Context, appID string) InitResult {
	if in.state.Initialized() {
		return InitResult{Success: true}
	}
	sdk := in.state.Handle()
	if sdk == nil {
		return InitResult{Error: "sdk not loaded", Kind: domainauth.ErrorSDKUnavailable}
	}

	var (
		result    InitResult
		otherLeft = in.otherRetries
		calls     int
	)
	backoff := retry.WithMaxRetries(uint64(in.networkRetries), retry.NewConstant(in.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		calls++
		err := Check(ctx, in.graceful, "init", func(ctx context.Context) error {
			return sdk.Init(ctx, ports.SDKConfig{AppID: appID})
		})
		switch classifyInitError(err) {
		case initOK:
			result = InitResult{Success: true}
			return nil
		case initInvalidID:
			result = InitResult{Error: err.Error(), Kind: domainauth.ErrorFatalConfig}
			return err
		case initNetwork:
			result = InitResult{Error: err.Error(), Kind: domainauth.ErrorRetriable}
			return retry.RetryableError(err)
		default:
			result = InitResult{Error: err.Error(), Kind: domainauth.ErrorUnknown}
			if otherLeft > 0 {
				otherLeft--
				return retry.RetryableError(err)
			}
			return err
		}
	})
	if err != nil && ctx.Err() != nil && !result.Success && result.Kind == "" {
		result = InitResult{Error: ctx.Err().Error(), Kind: domainauth.ErrorRetriable}
	}
	result.Calls = calls
	if result.Success {
		in.state.markInitialized()
		return result
	}
	in.logger.WarnContext(ctx, "sdk init failed",
		"kind", string(result.Kind),
		"calls", calls,
		"error", result.Error,
	)
	return result
}

// classifyInitError sorts init failures. Sentinels win; message matching covers SDKs that only
// report strings. "Already initialized" counts as success.
func classifyInitError(err error) initClass {
	if err == nil || errors.Is(err, ports.ErrSDKAlreadyInitialized) {
		return initOK
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "already initialized") {
		return initOK
	}
	if errors.Is(err, ports.ErrSDKInvalidAppID) || strings.Contains(msg, "invalid liff id") ||
		strings.Contains(msg, "invalid app id") {
		return initInvalidID
	}
	var netErr net.Error
	if errors.Is(err, ports.ErrSDKNetwork) || errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) || strings.Contains(msg, "network") || strings.Contains(msg, "timeout") {
		return initNetwork
	}
	return initOther
}
