package worker

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
)

const probeBodyLimit = 4 << 10

type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) model.PingStatus
}

type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{client: &http.Client{}}
}

// Probe issues a GET; any 2xx answer within timeout is reachable, everything
// else, including transport errors, is unreachable.
func (p *HTTPProber) Probe(ctx context.Context, url string, timeout time.Duration) model.PingStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.PingStatusUnreachable
	}
	req.Header.Set("User-Agent", "logpulse-ping")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.PingStatusUnreachable
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, probeBodyLimit))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return model.PingStatusReachable
	}
	return model.PingStatusUnreachable
}

// ProbeTimeout caps the configured timeout at 4/5 of the interval so a probe
// always finishes before the next one is due.
func ProbeTimeout(configured, interval time.Duration) time.Duration {
	limit := interval * 4 / 5
	if configured <= 0 || configured > limit {
		return limit
	}
	return configured
}
