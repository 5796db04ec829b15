package identity

import (
	"context"
	"fmt"
	"log/slog"

	obserrors "github.com/target/food-identity-gateway/internal/observability/errors"
	"github.com/target/food-identity-gateway/internal/observability/metrics"
	"github.com/target/food-identity-gateway/internal/observability/statsd"
)

// Graceful guards calls into the client SDK. A failing or panicking call is logged, counted,
// and replaced by a fallback value; nothing propagates to the caller.
type Graceful struct {
	logger    *slog.Logger
	sink      statsd.Sink
	onFailure func(operation string, err error)
}

// GracefulOptions configures a Graceful wrapper.
type GracefulOptions struct {
	Logger *slog.Logger
	Sink   statsd.Sink
	// OnFailure observes every failed call after it has been logged.
	OnFailure func(operation string, err error)
}

// NewGraceful creates a Graceful wrapper.
func NewGraceful(opts GracefulOptions) *Graceful {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Graceful{logger: logger, sink: opts.Sink, onFailure: opts.OnFailure}
}

// WithFailureObserver returns a copy of g that also reports failures to fn.
func (g *Graceful) WithFailureObserver(fn func(operation string, err error)) *Graceful {
	cp := *g.orDefault()
	prev := cp.onFailure
	cp.onFailure = func(operation string, err error) {
		if prev != nil {
			prev(operation, err)
		}
		fn(operation, err)
	}
	return &cp
}

// Run executes op and returns its value. When op returns an error or panics, Run logs the
// failure and returns fallback() instead. A nil fallback yields the zero value.
func Run[T any](ctx context.Context, g *Graceful, operation string, op func(context.Context) (T, error), fallback func() T) T {
	v, _ := Try(ctx, g, operation, op, fallback)
	return v
}

// Try is Run that also reports whether op succeeded.
func Try[T any](ctx context.Context, g *Graceful, operation string, op func(context.Context) (T, error), fallback func() T) (result T, ok bool) {
	g = g.orDefault()
	defer func() {
		if r := recover(); r != nil {
			g.failed(ctx, operation, fmt.Errorf("panic: %v", r))
			result, ok = safeFallback(ctx, g, operation, fallback), false
		}
	}()

	if op == nil {
		g.failed(ctx, operation, fmt.Errorf("%s: operation not available", operation))
		return safeFallback(ctx, g, operation, fallback), false
	}

	v, err := op(ctx)
	if err != nil {
		g.failed(ctx, operation, err)
		return safeFallback(ctx, g, operation, fallback), false
	}
	metrics.EmitSDKCall(g.sink, operation, metrics.ResultSuccess, "")
	return v, true
}

// Check runs an error-only call. Panics come back as errors and failures are logged, so the
// caller can still branch on the outcome.
func Check(ctx context.Context, g *Graceful, operation string, op func(context.Context) error) (err error) {
	g = g.orDefault()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", operation, r)
			g.failed(ctx, operation, err)
		}
	}()
	if op == nil {
		err = fmt.Errorf("%s: operation not available", operation)
		g.failed(ctx, operation, err)
		return err
	}
	if err = op(ctx); err != nil {
		g.failed(ctx, operation, err)
		return err
	}
	metrics.EmitSDKCall(g.sink, operation, metrics.ResultSuccess, "")
	return nil
}

func (g *Graceful) orDefault() *Graceful {
	if g == nil {
		return &Graceful{logger: slog.Default()}
	}
	return g
}

func (g *Graceful) failed(ctx context.Context, operation string, err error) {
	class := obserrors.Classify(err)
	g.logger.WarnContext(ctx, "sdk call failed",
		"operation", operation,
		"error_class", class,
		"error", err,
	)
	metrics.EmitSDKCall(g.sink, operation, metrics.ResultFallback, class)
	if g.onFailure != nil {
		g.onFailure(operation, err)
	}
}

// safeFallback evaluates fb, swallowing a panic in the fallback itself.
func safeFallback[T any](ctx context.Context, g *Graceful, operation string, fb func() T) (v T) {
	if fb == nil {
		return v
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.ErrorContext(ctx, "sdk fallback panicked", "operation", operation, "panic", r)
			var zero T
			v = zero
		}
	}()
	return fb()
}
