package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterRefills(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	l := New(6, 1, WithClock(func() time.Time { return now }))

	require.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per key")

	now = now.Add(10 * time.Second)
	assert.True(t, l.Allow("a"))
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	l := New(6, 1, WithClock(func() time.Time { return now }))

	l.Allow("a")
	now = now.Add(idleTTL + 2*time.Minute)
	l.Allow("b")
	assert.NotContains(t, l.buckets, "a")
	assert.Contains(t, l.buckets, "b")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "reapply|admin-1|inst-9", Key("reapply", "admin-1", "inst-9"))
	assert.NotEqual(t, Key("apply", "10.0.0.1", "inst-9"), Key("apply", "10.0.0.1", "inst-8"))
}

func TestClientKey(t *testing.T) {
	tests := map[string]string{
		"203.0.113.7":                 "203.0.113.7",
		"::ffff:203.0.113.7":          "203.0.113.7",
		"2001:db8:1:2:aaaa::1":        "2001:db8:1:2::/64",
		"2001:db8:1:2:bbbb:cccc::9":   "2001:db8:1:2::/64",
		"":                            "unknown",
		"not-an-ip":                   "unknown",
		"203.0.113.7:52110 (spoofed)": "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, ClientKey(in), in)
	}
}
