package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlacklistEntry_Active(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	later, earlier := now.Add(time.Minute), now.Add(-time.Minute)

	assert.True(t, BlacklistEntry{IP: "10.0.0.1"}.Active(now), "no expiry blocks for good")
	assert.True(t, BlacklistEntry{ExpiresAt: &later}.Active(now))
	assert.False(t, BlacklistEntry{ExpiresAt: &earlier}.Active(now))
	assert.False(t, BlacklistEntry{ExpiresAt: &now}.Active(now), "expiry is exclusive")
}

func TestNormalizeIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", NormalizeIP("::ffff:10.0.0.1"))
	assert.Equal(t, "2001:db8::1", NormalizeIP("2001:DB8:0::1"))
	assert.Equal(t, "not-an-ip", NormalizeIP("not-an-ip"))
}
