package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

func TestEmitAuthAttempt(t *testing.T) {
	rec := &Recorder{}
	EmitAuthAttempt(rec, AttemptMetric{
		State:    domainauth.StateDone,
		Reason:   domainauth.ReasonRestaurantContext,
		Embedded: true,
		TimedOut: true,
		Duration: 120 * time.Millisecond,
	})

	counts := rec.Counts("auth.attempt")
	require.Len(t, counts, 1)
	assert.Equal(t, "DONE", counts[0].Tags["state"])
	assert.Equal(t, "restaurant-context", counts[0].Tags["reason"])
	assert.Equal(t, "true", counts[0].Tags["embedded"])
	assert.Equal(t, "fired", counts[0].Tags["fallback_timer"])
	_, hasKind := counts[0].Tags["error_kind"]
	assert.False(t, hasKind)

	timings := rec.Timings("auth.attempt.duration")
	require.Len(t, timings, 1)
	assert.Equal(t, int64(120), timings[0].Value)
}

func TestEmitSDKCall(t *testing.T) {
	rec := &Recorder{}
	EmitSDKCall(rec, "getAccessToken", ResultFallback, "timeout")
	EmitSDKCall(nil, "ignored", ResultSuccess, "")

	counts := rec.Counts("auth.sdk_call")
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"operation":   "getAccessToken",
		"result":      "fallback",
		"error_class": "timeout",
	}, counts[0].Tags)
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "b"}
	cp := CloneTags(src)
	cp["a"] = "c"
	assert.Equal(t, "b", src["a"])
}
