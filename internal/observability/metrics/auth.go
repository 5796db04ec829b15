package metrics

import (
	"time"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultFallback = "fallback"
	ResultError    = "error"
)

// AttemptMetric captures how one identity resolution attempt ended.
type AttemptMetric struct {
	State     domainauth.State
	Reason    domainauth.RedirectReason
	ErrorKind domainauth.ErrorKind
	Embedded  bool
	TimedOut  bool
	Duration  time.Duration
}

// EmitAuthAttempt emits the attempt counter and duration.
func EmitAuthAttempt(sink statsd.Sink, in AttemptMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"state":    string(in.State),
		"embedded": boolTag(in.Embedded),
	}
	if in.Reason != "" {
		tags["reason"] = string(in.Reason)
	}
	if in.ErrorKind != "" {
		tags["error_kind"] = string(in.ErrorKind)
	}
	if in.TimedOut {
		tags["fallback_timer"] = "fired"
	}
	sink.Count("auth.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.attempt.duration", in.Duration, CloneTags(tags))
	}
}

// EmitSDKCall counts one guarded SDK call.
func EmitSDKCall(sink statsd.Sink, operation, result, errorClass string) {
	if sink == nil {
		return
	}
	tags := map[string]string{"operation": operation, "result": result}
	if errorClass != "" {
		tags["error_class"] = errorClass
	}
	sink.Count("auth.sdk_call", 1, tags)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
