package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Flow errors report their kind; timeouts and network errors get stable names;
// anything else is named after its innermost concrete type.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var flowErr *domainauth.FlowError
	if goerrors.As(err, &flowErr) {
		return string(flowErr.Kind)
	}
	if goerrors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if goerrors.Is(err, context.Canceled) {
		return "canceled"
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
