package api_middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/model"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const APIKeyHeader = "X-API-Key"

// AuthMiddleware admits requests carrying the admin API key whose bcrypt hash
// is configured.
type AuthMiddleware struct {
	keyHash []byte
}

func NewAuthMiddleware(keyHash string) *AuthMiddleware {
	return &AuthMiddleware{keyHash: []byte(keyHash)}
}

func (am *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(APIKeyHeader)

		if apiKey == "" {
			logger.Event(model.LogLevelWarning, []string{"SECURITY"}, "no API key provided by %s", ClientIP(r))
			http.Error(w, "no API key provided", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword(am.keyHash, []byte(apiKey)); err != nil {
			logger.Event(model.LogLevelWarning, []string{"SECURITY"}, "invalid API key from %s", ClientIP(r))
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address. The limit can be
// changed while serving; existing buckets follow the change.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	perMinute int
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
}

const maxTrackedClients = 10000

func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		idle:    3 * time.Minute,
		now:     time.Now,
	}
	rl.setLocked(perMinute)
	return rl
}

func (rl *RateLimiter) setLocked(perMinute int) {
	perMinute = max(1, perMinute)
	rl.perMinute = perMinute
	rl.limit = rate.Limit(float64(perMinute) / 60)
	rl.burst = max(1, perMinute/6)
}

func (rl *RateLimiter) PerMinute() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.perMinute
}

func (rl *RateLimiter) SetPerMinute(perMinute int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.setLocked(perMinute)
	now := rl.now()
	for _, c := range rl.clients {
		c.limiter.SetLimitAt(now, rl.limit)
		c.limiter.SetBurstAt(now, rl.burst)
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[ip]
	if !ok {
		if len(rl.clients) >= maxTrackedClients {
			rl.sweepLocked(now)
		}
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.idle {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.Allow(ip) {
			logger.Event(model.LogLevelWarning, []string{"SECURITY"}, "rate limit exceeded for IP: %s", ip)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BlacklistChecker finds the active block on an address, if any.
type BlacklistChecker interface {
	Check(ctx context.Context, ip string) (*model.BlacklistEntry, error)
}

type blockedResponse struct {
	Message      string     `json:"message"`
	Reason       string     `json:"reason"`
	BlockedUntil *time.Time `json:"blocked_until"`
}

// BlacklistGuard rejects requests from blocked addresses with 403. When the
// blacklist cannot be read the request is let through.
func BlacklistGuard(checker BlacklistChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := model.NormalizeIP(ClientIP(r))
			block, err := checker.Check(r.Context(), ip)
			if err != nil {
				logger.Errorf("failed to check blacklist for %s: %v", ip, err)
				next.ServeHTTP(w, r)
				return
			}
			if block == nil {
				next.ServeHTTP(w, r)
				return
			}

			var until any
			if block.ExpiresAt != nil {
				until = block.ExpiresAt.Format(time.RFC3339)
			}
			logger.EventWith(model.LogLevelWarning, []string{"BLACKLIST", "SECURITY"}, map[string]any{
				model.MetadataIP:      ip,
				model.MetadataService: "blacklist-guard",
				model.MetadataExtra: map[string]any{
					"reason":     block.Reason,
					"expires_at": until,
					"method":     r.Method,
					"path":       r.URL.RequestURI(),
				},
			}, "blocked request from IP %s", ip)

			commons.RespondWithJSON(w, http.StatusForbidden, blockedResponse{
				Message:      "IP blocked",
				Reason:       block.Reason,
				BlockedUntil: block.ExpiresAt,
			})
		})
	}
}

// ClientIP returns the host part of the request's remote address. Behind a
// proxy, chi's RealIP middleware rewrites RemoteAddr first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// StaticWhitelist is a fixed set of addresses allowed to write into
// whitelist projects.
type StaticWhitelist map[string]struct{}

func NewStaticWhitelist(ips []string) StaticWhitelist {
	wl := make(StaticWhitelist, len(ips))
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			wl[ip] = struct{}{}
		}
	}
	return wl
}

func (wl StaticWhitelist) IsAllowed(ctx context.Context, ip string) (bool, error) {
	_, ok := wl[ip]
	return ok, nil
}
