package model

import (
	"net"
	"time"
)

// BlacklistEntry blocks every request from IP until ExpiresAt, or for good
// when ExpiresAt is nil.
type BlacklistEntry struct {
	IP        string     `json:"ip" validate:"required,ip"`
	Reason    string     `json:"reason" validate:"required,max=500"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (e BlacklistEntry) Active(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// NormalizeIP returns the canonical text form of ip, so IPv4-mapped IPv6
// addresses match their IPv4 spelling. Anything that does not parse is
// returned as given.
func NormalizeIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip
	}
	return parsed.String()
}

type Settings struct {
	RateLimitPerMinute int `json:"rate_limit_per_minute" validate:"min=1,max=100000"`
}
