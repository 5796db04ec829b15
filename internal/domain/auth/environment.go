package auth

import (
	"net/url"
	"strings"
)

// Default detection inputs for the LINE in-app browser.
const (
	DefaultUserAgentSignature = "Line/"
)

// DefaultMarkerParams are query parameters that only appear on URLs opened through the embedded flow.
var DefaultMarkerParams = []string{"liff.state", "liff.referrer", "embedded"}

// Signal names reported by EnvironmentDetector.Detect.
const (
	SignalURLMarker      = "url-marker"
	SignalUserAgent      = "user-agent"
	SignalPriorIdentity  = "prior-embedded-identity"
	SignalSDKHandle      = "sdk-handle"
	SignalCallerFlag     = "caller-flag"
	signalSeparator      = ":"
	embeddedFalseLiteral = "0"
)

// EnvironmentSignals carries everything known about the runtime context at load time.
type EnvironmentSignals struct {
	URL              *url.URL
	UserAgent        string
	SDKHandlePresent bool
	// CameFromEmbedded is the caller's own "came from embedded flow" flag.
	CameFromEmbedded bool
	// PriorEmbeddedOrigin is true when a previously established identity was created in the embedded flow.
	PriorEmbeddedOrigin bool
}

// Environment is the classification result.
type Environment struct {
	Embedded bool     `json:"embedded"`
	Signals  []string `json:"signals"`
}

// EnvironmentDetector classifies the runtime context as embedded client app or ordinary browser.
// The zero value uses the default markers and user agent signature.
type EnvironmentDetector struct {
	MarkerParams       []string
	UserAgentSignature string
}

// Detect returns Embedded=true when ANY signal matches. Signals lists every match for diagnostics.
func (d EnvironmentDetector) Detect(in EnvironmentSignals) Environment {
	var signals []string

	for _, p := range d.markers() {
		if hasMarker(in.URL, p) {
			signals = append(signals, SignalURLMarker+signalSeparator+p)
		}
	}

	sig := d.UserAgentSignature
	if sig == "" {
		sig = DefaultUserAgentSignature
	}
	if in.UserAgent != "" && strings.Contains(in.UserAgent, sig) {
		signals = append(signals, SignalUserAgent)
	}
	if in.PriorEmbeddedOrigin {
		signals = append(signals, SignalPriorIdentity)
	}
	if in.SDKHandlePresent {
		signals = append(signals, SignalSDKHandle)
	}
	if in.CameFromEmbedded {
		signals = append(signals, SignalCallerFlag)
	}

	return Environment{Embedded: len(signals) > 0, Signals: signals}
}

func (d EnvironmentDetector) markers() []string {
	if len(d.MarkerParams) > 0 {
		return d.MarkerParams
	}
	return DefaultMarkerParams
}

// hasMarker reports whether the URL query carries param. An explicit "0" disables the marker.
func hasMarker(u *url.URL, param string) bool {
	if u == nil {
		return false
	}
	q := u.Query()
	if !q.Has(param) {
		return false
	}
	return q.Get(param) != embeddedFalseLiteral
}
