package identity

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/observability/metrics"
	"github.com/target/food-identity-gateway/internal/observability/statsd"
	"github.com/target/food-identity-gateway/internal/ports"
)

// DefaultFallbackTimeout bounds how long the embedded flow may run before the decision is made
// from the session check alone.
const DefaultFallbackTimeout = 3 * time.Second

// Loading messages shown while an attempt is in progress.
const (
	MessageCheckingSession = "Checking your session…"
	MessageConnecting      = "Connecting to LINE…"
	MessageCheckingLogin   = "Checking your LINE login…"
	MessageRedirectLogin   = "Redirecting to LINE login…"
	MessageSigningIn       = "Signing you in…"
	MessageRedirecting     = "Redirecting…"
)

// Config holds the orchestrator settings.
type Config struct {
	AppID           string
	FallbackTimeout time.Duration
	MaxLoadAttempts int
	LoadRetryDelay  time.Duration
	InitBackoff     time.Duration
}

// Deps are the collaborators of one orchestrator. Sessions and Exchanger are required.
type Deps struct {
	Sessions  ports.SessionChecker
	Exchanger ports.TokenExchanger
	Fetcher   ports.SDKFetcher
	Navigator ports.Navigator
	// State may carry a handle the host already exposed; nil starts empty.
	State    *SDKState
	Detector domainauth.EnvironmentDetector
	Routes   domainauth.Routes
	Metrics  statsd.Sink
	Logger   *slog.Logger
	Now      func() time.Time
}

// Options are the inputs of one run.
type Options struct {
	RestaurantID string
	// ForceReauth ignores an existing session and runs the full flow.
	ForceReauth bool
	// CameFromEmbedded is the caller's own embedded-flow flag.
	CameFromEmbedded bool
	// AutoLoginAttempted carries the flag across page loads so a failed automatic login is not
	// repeated.
	AutoLoginAttempted bool
	PageURL            *url.URL
	UserAgent          string
	// LoginRedirectURI is where the platform sends the user back after an automatic login.
	LoginRedirectURI string
	OnProgress       func(message string)
}

// Outcome is the result of Run.
type Outcome struct {
	Attempt     AttemptSnapshot              `json:"attempt"`
	Environment domainauth.Environment       `json:"environment"`
	Identity    *domainauth.ResolvedIdentity `json:"identity,omitempty"`
	Target      *domainauth.RedirectTarget   `json:"target,omitempty"`
	NavigatedTo string                       `json:"navigatedTo,omitempty"`
	Failure     *domainauth.FlowError        `json:"failure,omitempty"`
	// FailureTarget is the manual path offered next to a failure. It is never navigated to automatically.
	FailureTarget *domainauth.RedirectTarget `json:"failureTarget,omitempty"`
	SDK           domainauth.SDKStatus       `json:"sdk"`
	TimedOut      bool                       `json:"timedOut"`
}

// Orchestrator resolves the user's identity for one page load and commits at most one navigation.
type Orchestrator struct {
	cfg         Config
	sessions    ports.SessionChecker
	exchanger   ports.TokenExchanger
	navigator   ports.Navigator
	state       *SDKState
	loader      *Loader
	initializer *Initializer
	graceful    *Graceful
	detector    domainauth.EnvironmentDetector
	routes      domainauth.Routes
	sink        statsd.Sink
	logger      *slog.Logger
	now         func() time.Time

	mu   sync.Mutex
	done *Outcome
}

// NewOrchestrator wires an orchestrator for one page load.
func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = DefaultFallbackTimeout
	}
	if cfg.MaxLoadAttempts <= 0 {
		cfg.MaxLoadAttempts = DefaultMaxLoadAttempts
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "identity")
	state := deps.State
	if state == nil {
		state = NewSDKState(nil)
	}
	routes := deps.Routes
	if routes == (domainauth.Routes{}) {
		routes = domainauth.DefaultRoutes()
	}
	navigator := deps.Navigator
	if navigator == nil {
		navigator = noopNavigator{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	graceful := NewGraceful(GracefulOptions{Logger: logger, Sink: deps.Metrics})
	return &Orchestrator{
		cfg:       cfg,
		sessions:  deps.Sessions,
		exchanger: deps.Exchanger,
		navigator: navigator,
		state:     state,
		loader: NewLoader(LoaderOptions{
			Fetcher:    deps.Fetcher,
			State:      state,
			RetryDelay: cfg.LoadRetryDelay,
			Logger:     logger,
		}),
		initializer: NewInitializer(InitializerOptions{
			State:    state,
			Graceful: graceful,
			Backoff:  cfg.InitBackoff,
			Logger:   logger,
		}),
		graceful: graceful,
		detector: deps.Detector,
		routes:   routes,
		sink:     deps.Metrics,
		logger:   logger,
		now:      now,
	}
}

// Run executes the flow once. Later calls return the first outcome without side effects.
func (o *Orchestrator) Run(ctx context.Context, opts Options) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done != nil {
		return *o.done
	}

	started := o.now()
	a := newAttempt(started, opts.AutoLoginAttempted)
	a.onProgress = opts.OnProgress
	log := o.logger.With("attempt_id", a.ID())
	a.onTransition = func(from, to domainauth.State, ev domainauth.Event) {
		log.DebugContext(ctx, "identity transition", "from", string(from), "to", string(to), "event", string(ev))
	}

	out := o.run(ctx, a, opts, log)
	out.Attempt = a.Snapshot()
	out.SDK = o.state.Status()

	metric := metrics.AttemptMetric{
		State:    out.Attempt.State,
		Embedded: out.Environment.Embedded,
		TimedOut: out.TimedOut,
		Duration: o.now().Sub(started),
	}
	if out.Target != nil {
		metric.Reason = out.Target.Reason
	}
	if out.Attempt.LastErrorKind != nil {
		metric.ErrorKind = *out.Attempt.LastErrorKind
	}
	metrics.EmitAuthAttempt(o.sink, metric)

	log.InfoContext(ctx, "identity resolved",
		"state", string(out.Attempt.State),
		"embedded", out.Environment.Embedded,
		"signals", out.Environment.Signals,
		"navigated_to", out.NavigatedTo,
		"timed_out", out.TimedOut,
	)
	o.done = &out
	return out
}

func (o *Orchestrator) run(ctx context.Context, a *AuthAttempt, opts Options, log *slog.Logger) Outcome {
	a.advance(domainauth.EventStart)
	a.progress(MessageCheckingSession)

	session := o.checkSession(ctx)
	env := o.detect(opts, session)

	if session != nil && !opts.ForceReauth {
		a.advance(domainauth.EventSessionFound)
		target := o.routes.Decide(domainauth.DecisionInput{
			Identity:     session,
			Env:          env,
			RestaurantID: opts.RestaurantID,
		})
		return o.redirect(ctx, a, domainauth.EventRedirect, Outcome{Environment: env, Identity: session, Target: &target})
	}

	a.advance(domainauth.EventSessionAbsent)
	if !env.Embedded {
		a.advance(domainauth.EventBrowser)
		return o.browserRedirect(ctx, a, env, opts)
	}

	a.advance(domainauth.EventEmbedded)
	return o.raceEmbedded(ctx, a, opts, env, session, log)
}

// raceEmbedded runs the embedded flow against the fallback timer. Whichever claims the
// navigation first wins; the loser's later steps are rejected by the attempt.
func (o *Orchestrator) raceEmbedded(ctx context.Context, a *AuthAttempt, opts Options, env domainauth.Environment, session *domainauth.ResolvedIdentity, log *slog.Logger) Outcome {
	flowCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Outcome, 1)
	go func() {
		results <- o.embeddedFlow(flowCtx, a, opts, env)
	}()

	timer := time.NewTimer(o.cfg.FallbackTimeout)
	defer timer.Stop()

	select {
	case out := <-results:
		return out
	case <-ctx.Done():
		cancel()
		return Outcome{Environment: env}
	case <-timer.C:
	}

	target := o.routes.Decide(domainauth.DecisionInput{
		Identity:     session,
		Env:          env,
		RestaurantID: opts.RestaurantID,
	})
	if !a.claimRedirect(domainauth.EventFallbackTimeout) {
		// The embedded flow already owns the outcome; it finishes without further waits.
		select {
		case out := <-results:
			return out
		case <-ctx.Done():
			return Outcome{Environment: env}
		}
	}
	cancel()
	log.WarnContext(ctx, "fallback timer fired", "timeout", o.cfg.FallbackTimeout.String(), "target", target.URL)

	a.progress(MessageRedirecting)
	o.commit(ctx, a, target.URL)
	return Outcome{Environment: env, Identity: session, Target: &target, NavigatedTo: target.URL, TimedOut: true}
}

func (o *Orchestrator) embeddedFlow(ctx context.Context, a *AuthAttempt, opts Options, env domainauth.Environment) Outcome {
	abandoned := Outcome{Environment: env}

	if !a.advance(domainauth.EventLoadSDK) {
		return abandoned
	}
	a.progress(MessageConnecting)
	lr := o.loader.Load(ctx, o.cfg.MaxLoadAttempts)
	if !lr.Success {
		if lr.Unavailable {
			return o.degradeToBrowser(ctx, a, env, opts)
		}
		return o.fail(a, env, opts, domainauth.NewFlowError(domainauth.ErrorRetriable, 0, lr.Error))
	}
	if !a.advance(domainauth.EventSDKLoaded) {
		return abandoned
	}

	ir := o.initializer.Initialize(ctx, o.cfg.AppID)
	if !ir.Success {
		if ir.Kind == domainauth.ErrorSDKUnavailable {
			return o.degradeToBrowser(ctx, a, env, opts)
		}
		return o.fail(a, env, opts, domainauth.NewFlowError(ir.Kind, 0, ir.Error))
	}
	if !a.advance(domainauth.EventSDKInitialized) {
		return abandoned
	}

	a.progress(MessageCheckingLogin)
	sdk := o.state.Handle()
	g := o.graceful.WithFailureObserver(func(string, error) { a.recordError(domainauth.ErrorUnknown) })

	loggedIn, ok := Try(ctx, g, "isLoggedIn", sdk.IsLoggedIn, nil)
	switch {
	case !ok:
		// An unknown login state is not a logout; the automatic login stays unspent.
		o.state.setLoggedIn(domainauth.LoginUnknown)
		return o.degradeToBrowser(ctx, a, env, opts)
	case loggedIn:
		o.state.setLoggedIn(domainauth.LoginYes)
	default:
		o.state.setLoggedIn(domainauth.LoginNo)
	}

	if !loggedIn {
		return o.autoLogin(ctx, a, g, sdk, env, opts)
	}

	token := Run(ctx, g, "getAccessToken", sdk.GetAccessToken, nil)
	if token == "" {
		return o.degradeToBrowser(ctx, a, env, opts)
	}
	if !a.advance(domainauth.EventLoggedIn) {
		return abandoned
	}

	a.progress(MessageSigningIn)
	res := o.exchanger.Exchange(ctx, token, ports.ExchangeContext{RestaurantID: opts.RestaurantID})
	if !res.Success || res.Identity == nil {
		return o.fail(a, env, opts, domainauth.NewFlowError(domainauth.ErrorExchangeRejected, res.Status, res.Error))
	}

	profile := Run(ctx, g, "getProfile", sdk.GetProfile, nil)
	identity := withProfile(*res.Identity, profile)
	if !a.advance(domainauth.EventExchangeSucceeded) {
		return abandoned
	}

	target := o.routes.Decide(domainauth.DecisionInput{
		Identity:     &identity,
		Env:          env,
		Hint:         &res.Hint,
		RestaurantID: opts.RestaurantID,
	})
	return o.redirect(ctx, a, domainauth.EventRedirect, Outcome{Environment: env, Identity: &identity, Target: &target})
}

// autoLogin starts the platform login once per browser session. A repeated attempt, or one the
// SDK cannot start, degrades to the manual path.
func (o *Orchestrator) autoLogin(ctx context.Context, a *AuthAttempt, g *Graceful, sdk ports.ClientSDK, env domainauth.Environment, opts Options) Outcome {
	if a.wasAutoLoginAttempted() {
		o.logger.InfoContext(ctx, "automatic login already attempted; offering manual login", "attempt_id", a.ID())
		return o.degradeToBrowser(ctx, a, env, opts)
	}
	if !a.beginAutoLogin() {
		return Outcome{Environment: env}
	}

	a.progress(MessageRedirectLogin)
	loginURL := Run(ctx, g, "login", func(ctx context.Context) (string, error) {
		return sdk.Login(ctx, ports.LoginOptions{RedirectURI: opts.LoginRedirectURI})
	}, nil)
	if loginURL == "" {
		a.cancelAutoLogin()
		return o.degradeToBrowser(ctx, a, env, opts)
	}
	if !a.claimLoginNavigation() {
		return Outcome{Environment: env}
	}
	o.commit(ctx, a, loginURL)
	return Outcome{Environment: env, NavigatedTo: loginURL}
}

// degradeToBrowser records an unavailable SDK and continues as the browser flow would.
func (o *Orchestrator) degradeToBrowser(ctx context.Context, a *AuthAttempt, env domainauth.Environment, opts Options) Outcome {
	a.recordError(domainauth.ErrorSDKUnavailable)
	if !a.advance(domainauth.EventSDKUnavailable) {
		return Outcome{Environment: env}
	}
	return o.browserRedirect(ctx, a, env, opts)
}

func (o *Orchestrator) browserRedirect(ctx context.Context, a *AuthAttempt, env domainauth.Environment, opts Options) Outcome {
	target := o.routes.Decide(domainauth.DecisionInput{Env: env, RestaurantID: opts.RestaurantID})
	return o.redirect(ctx, a, domainauth.EventRedirect, Outcome{Environment: env, Target: &target})
}

// redirect claims the navigation for out.Target and commits it.
func (o *Orchestrator) redirect(ctx context.Context, a *AuthAttempt, ev domainauth.Event, out Outcome) Outcome {
	if !a.claimRedirect(ev) {
		return Outcome{Environment: out.Environment}
	}
	a.progress(MessageRedirecting)
	o.commit(ctx, a, out.Target.URL)
	out.NavigatedTo = out.Target.URL
	return out
}

func (o *Orchestrator) fail(a *AuthAttempt, env domainauth.Environment, opts Options, ferr *domainauth.FlowError) Outcome {
	a.recordError(ferr.Kind)
	if !a.advance(domainauth.EventFailure) {
		return Outcome{Environment: env}
	}
	manual := o.routes.Failure(ferr.Kind, opts.RestaurantID)
	return Outcome{Environment: env, Failure: ferr, FailureTarget: &manual}
}

// commit performs the claimed navigation and finishes the attempt.
func (o *Orchestrator) commit(ctx context.Context, a *AuthAttempt, target string) {
	if err := o.navigator.Navigate(ctx, target); err != nil {
		o.logger.ErrorContext(ctx, "navigation failed", "attempt_id", a.ID(), "target", target, "error", err)
	}
	a.advance(domainauth.EventNavigated)
}

func (o *Orchestrator) checkSession(ctx context.Context) *domainauth.ResolvedIdentity {
	if o.sessions == nil {
		return nil
	}
	return Run(ctx, o.graceful, "sessionCheck", func(ctx context.Context) (*domainauth.ResolvedIdentity, error) {
		return o.sessions.Check(ctx), nil
	}, nil)
}

func (o *Orchestrator) detect(opts Options, session *domainauth.ResolvedIdentity) domainauth.Environment {
	return o.detector.Detect(domainauth.EnvironmentSignals{
		URL:                 opts.PageURL,
		UserAgent:           opts.UserAgent,
		SDKHandlePresent:    o.state.Handle() != nil,
		CameFromEmbedded:    opts.CameFromEmbedded,
		PriorEmbeddedOrigin: session != nil && session.EmbeddedOrigin,
	})
}

// withProfile fills display fields the backend left empty from the SDK profile.
func withProfile(id domainauth.ResolvedIdentity, p ports.Profile) domainauth.ResolvedIdentity {
	if id.DisplayName == "" {
		id.DisplayName = p.DisplayName
	}
	if id.PictureURL == "" {
		id.PictureURL = p.PictureURL
	}
	return id
}

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, string) error { return nil }
