package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestEncodeTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " identity "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	got := encodeTags(global, local)
	want := "|#env:stage,result:success,service:identity"
	if got != want {
		t.Fatalf("encodeTags() = %q, want %q", got, want)
	}
	if encodeTags(nil, nil) != "" {
		t.Fatalf("expected empty tag suffix")
	}
}

func TestMetricName(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "gateway"}
	tests := map[string]string{
		" auth/attempt ": "gateway.auth_attempt",
		"sdk..call":      "gateway.sdk.call",
		"":               "",
	}
	for input, want := range tests {
		if got := c.metricName(input); got != want {
			t.Fatalf("metricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestClientDisabledIsNoop(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Enabled() {
		t.Fatalf("disabled client reports enabled")
	}
	c.Count("auth.attempt", 1, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var nilClient *Client
	nilClient.Count("x", 1, nil)
	nilClient.Timing("x", time.Second, nil)
}

func TestClientWritesLines(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen unavailable: %v", err)
	}
	defer pc.Close()

	c, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "gateway.",
		GlobalTags: map[string]string{"env": "test"},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Count("auth.attempt", 1, map[string]string{"reason": "new-user"})

	buf := make([]byte, 512)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	line := string(buf[:n])
	if !strings.HasPrefix(line, "gateway.auth.attempt:1|c|#") {
		t.Fatalf("unexpected line %q", line)
	}
	if !strings.Contains(line, "env:test") || !strings.Contains(line, "reason:new-user") {
		t.Fatalf("missing tags in %q", line)
	}
}
