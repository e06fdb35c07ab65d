package marketdata

import (
	"context"
	"fmt"
	"time"

	"LureScan/internal/domain/models"
	drepo "LureScan/internal/domain/repository"
	"LureScan/internal/service/ratelimit"
	"LureScan/pkg/cache"
	"LureScan/pkg/logger"
)

// Cached wraps a MarketData source with a cache and an upstream rate limit.
// Windows are immutable for their bucket, so short TTLs are safe.
type Cached struct {
	next    drepo.MarketData
	cache   cache.Service
	limiter *ratelimit.Limiter
	ttl     time.Duration
	rpsCap  float64
	rpsRate float64
	log     *logger.Logger
}

func NewCached(next drepo.MarketData, c cache.Service, limiter *ratelimit.Limiter, ttl time.Duration, rpsCap, rpsRate float64, log *logger.Logger) *Cached {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cached{next: next, cache: c, limiter: limiter, ttl: ttl, rpsCap: rpsCap, rpsRate: rpsRate, log: log}
}

func windowKey(sym string, period drepo.Period, barCount int) string {
	return fmt.Sprintf("window:%s:%d:%s", period, barCount, sym)
}

func (c *Cached) FetchWindows(ctx context.Context, symbols []string, period drepo.Period, barCount int) (map[string]models.BarWindow, error) {
	out := make(map[string]models.BarWindow, len(symbols))
	missing := symbols

	if c.cache != nil {
		keys := make([]string, len(symbols))
		for i, sym := range symbols {
			keys[i] = windowKey(sym, period, barCount)
		}
		hits, err := cache.MGetTyped[models.BarWindow](ctx, c.cache, keys...)
		if err != nil {
			c.log.Warn("window cache read failed", logger.Error(err))
		} else {
			missing = missing[:0:0]
			for _, sym := range symbols {
				if w, ok := hits[windowKey(sym, period, barCount)]; ok && len(w) > 0 {
					out[sym] = w
				} else {
					missing = append(missing, sym)
				}
			}
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	if c.limiter != nil && !c.limiter.Allow("marketdata", c.rpsCap, c.rpsRate) {
		// Serve what we have rather than hammer the upstream.
		c.log.Warn("marketdata rate limited, serving cached subset",
			logger.Int("missing", len(missing)))
		return out, nil
	}

	fetched, err := c.next.FetchWindows(ctx, missing, period, barCount)
	if err != nil {
		if len(out) > 0 {
			c.log.Warn("upstream fetch failed, serving cached subset", logger.Error(err))
			return out, nil
		}
		return nil, err
	}

	if c.cache != nil && len(fetched) > 0 {
		values := make(map[string]interface{}, len(fetched))
		for sym, w := range fetched {
			values[windowKey(sym, period, barCount)] = w
		}
		if err := c.cache.MSet(ctx, values, c.ttl); err != nil {
			c.log.Warn("window cache write failed", logger.Error(err))
		}
	}

	for sym, w := range fetched {
		out[sym] = w
	}
	return out, nil
}
