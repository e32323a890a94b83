package feerate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	. "github.com/ahmetb/go-linq"
)

const (
	//MinFeeRate defines a lower bound for published fees (satoshi per byte)
	MinFeeRate = int64(10)
	//MaxFeeRate defines an upper bound for published fees (satoshi per byte)
	MaxFeeRate = int64(1000)
)

// fetchTimeout bounds the upstream call, a hung service must not starve
// readers blocked on the cache lock.
var fetchTimeout = 30 * time.Second

type cachedRate struct {
	value      int64
	computedAt time.Time
}

// RateCache caches the smoothed fee rate behind a TTL. A read on a stale
// cache triggers a refresh: fetch predictions, select the first one within
// the confirmation-delay policy, fold it into the moving-average window and
// clamp the result. All upstream failures degrade to MinFeeRate, callers
// never see an error.
type RateCache struct {
	currency string
	source   PredictionSource
	logger   *zap.Logger
	cfg      Config

	window *rateWindow
	cached *cachedRate
	now    func() time.Time

	mu sync.Mutex
}

var _ RateProvider = (*RateCache)(nil)

// NewRateCache returns a new fee rate cache for the given currency.
func NewRateCache(currency string, source PredictionSource, cfg Config, logger *zap.Logger) *RateCache {
	return &RateCache{
		currency: currency,
		source:   source,
		logger:   logger,
		cfg:      cfg,
		window:   newRateWindow(cfg.Capacity),
		now:      time.Now,
	}
}

// RefreshInterval hints how often a new value is computed.
func (c *RateCache) RefreshInterval() time.Duration {
	return c.cfg.TTL
}

// CurrentRate returns the cached rate, refreshing it first when its age
// reached the TTL. The whole refresh-and-read sequence holds the lock so
// concurrent callers never trigger redundant fetches or observe a window
// update without its timestamp.
func (c *RateCache) CurrentRate() FeeRate {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached == nil || c.now().Sub(c.cached.computedAt) >= c.cfg.TTL {
		c.refresh()
	}

	return FeeRate{
		Currency:  c.currency,
		Rate:      c.cached.value,
		Timestamp: c.cached.computedAt.Unix(),
	}
}

func (c *RateCache) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	predictions, err := c.source.FetchPredictions(ctx)
	if err != nil {
		c.logger.Error("could not fetch fee predictions", zap.Error(err))
		predictions = nil
	}

	// the upstream emits its predictions in its own priority order,
	// first match wins - do not sort
	rate := MinFeeRate
	match := From(predictions).FirstWithT(func(p Prediction) bool {
		return p.MaxDelayBlocks <= c.cfg.MaxBlocks
	})
	if match != nil {
		latest := match.(Prediction).FeeRate
		c.logger.Info("latest fee rate prediction", zap.Int64("satPerByte", latest))

		c.window.push(latest)
		average := c.window.average()
		c.logger.Info("averaged fee rate predictions",
			zap.Int64("satPerByte", average),
			zap.Int("window", c.window.len()))

		rate = clampRate(average)
	}

	// a floor-clamped fallback counts as a valid computation, resetting the
	// TTL clock keeps persistent upstream failures from hammering the service
	c.cached = &cachedRate{value: rate, computedAt: c.now()}
}

func clampRate(rate int64) int64 {
	if rate < MinFeeRate {
		return MinFeeRate
	}
	if rate > MaxFeeRate {
		return MaxFeeRate
	}

	return rate
}
