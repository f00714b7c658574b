package fetcher

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Gate enforces a minimum delay between the end of one request and the start
// of the next request to the same origin.
type Gate struct {
	mu    sync.Mutex
	delay time.Duration
	last  map[string]time.Time
	now   func() time.Time
}

// NewGate creates a politeness gate. A zero delay disables waiting.
func NewGate(delay time.Duration) *Gate {
	return &Gate{
		delay: delay,
		last:  make(map[string]time.Time),
		now:   time.Now,
	}
}

// Wait blocks until a request to rawURL's origin may start.
func (g *Gate) Wait(ctx context.Context, rawURL string) error {
	if g.delay <= 0 {
		return nil
	}
	origin := Origin(rawURL)

	for {
		g.mu.Lock()
		last, seen := g.last[origin]
		g.mu.Unlock()
		if !seen {
			return nil
		}

		remaining := g.delay - g.now().Sub(last)
		if remaining <= 0 {
			return nil
		}

		t := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Done marks the end of a request to rawURL's origin.
func (g *Gate) Done(rawURL string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[Origin(rawURL)] = g.now()
}

// Origin returns scheme://host for rawURL, lowercased. Unparseable URLs are their own origin.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
