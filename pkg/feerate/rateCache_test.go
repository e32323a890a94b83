package feerate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	predictions []Prediction
	err         error
	calls       int
}

func (s *stubSource) FetchPredictions(ctx context.Context) ([]Prediction, error) {
	s.calls++
	return s.predictions, s.err
}

type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time {
	return c.current
}

func (c *testClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestCache(source PredictionSource, cfg Config) (*RateCache, *testClock) {
	cache := NewRateCache("BTC", source, cfg, zap.NewNop())
	clock := &testClock{current: time.Unix(1500000000, 0)}
	cache.now = clock.now
	return cache, clock
}

func TestShouldSelectFirstMatchingPrediction(t *testing.T) {
	// arrange
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 2, FeeRate: 50},
		{MaxDelayBlocks: 6, FeeRate: 20},
	}}
	cfg := NewConfig()
	cfg.MaxBlocks = 4
	cache, _ := newTestCache(source, cfg)

	// act
	rate := cache.CurrentRate()

	// assert
	assert.Equal(t, int64(50), rate.Rate)
	assert.Equal(t, "BTC", rate.Currency)
}

func TestShouldPreserveUpstreamOrderOverNumericMinimum(t *testing.T) {
	// arrange - the upstream list is not sorted by delay, the first match
	// must win even when a later prediction is cheaper
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 25, FeeRate: 500},
		{MaxDelayBlocks: 4, FeeRate: 80},
		{MaxDelayBlocks: 1, FeeRate: 40},
	}}
	cfg := NewConfig()
	cache, _ := newTestCache(source, cfg)

	// act
	rate := cache.CurrentRate()

	// assert
	assert.Equal(t, int64(80), rate.Rate)
}

func TestShouldPublishFloorWhenNoPredictionMatches(t *testing.T) {
	// arrange
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 20, FeeRate: 50},
	}}
	cfg := NewConfig() // maxBlocks 10
	cache, _ := newTestCache(source, cfg)

	// act
	rate := cache.CurrentRate()

	// assert
	assert.Equal(t, MinFeeRate, rate.Rate)
	assert.Equal(t, 0, cache.window.len())
}

func TestShouldPublishFloorAndResetTTLWhenFetchFails(t *testing.T) {
	// arrange
	source := &stubSource{err: errors.Wrap(ErrFetch, "boom")}
	cache, clock := newTestCache(source, NewConfig())

	// act
	first := cache.CurrentRate()
	clock.advance(time.Minute)
	second := cache.CurrentRate()

	// assert
	assert.Equal(t, MinFeeRate, first.Rate)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

func TestShouldAverageOverBoundedWindow(t *testing.T) {
	// arrange
	source := &stubSource{}
	cfg := NewConfig()
	cfg.Capacity = 2
	cache, clock := newTestCache(source, cfg)

	// act
	var rate FeeRate
	for i, fee := range []int64{100, 200, 300} {
		if i > 0 {
			clock.advance(cfg.TTL)
		}
		source.predictions = []Prediction{{MaxDelayBlocks: 2, FeeRate: fee}}
		rate = cache.CurrentRate()
	}

	// assert
	assert.Equal(t, []int64{200, 300}, cache.window.rates)
	assert.Equal(t, int64(250), rate.Rate)
}

func TestShouldEvictOldestObservationBeyondCapacity(t *testing.T) {
	// arrange
	source := &stubSource{}
	cfg := NewConfig() // capacity 4
	cache, clock := newTestCache(source, cfg)

	// act
	for _, fee := range []int64{11, 22, 33, 44, 55} {
		source.predictions = []Prediction{{MaxDelayBlocks: 2, FeeRate: fee}}
		cache.CurrentRate()
		clock.advance(cfg.TTL)
	}

	// assert
	assert.Equal(t, []int64{22, 33, 44, 55}, cache.window.rates)
}

func TestShouldReturnCachedValueBeforeTTLExpiry(t *testing.T) {
	// arrange
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 2, FeeRate: 42},
	}}
	cfg := NewConfig()
	cache, clock := newTestCache(source, cfg)

	// act
	first := cache.CurrentRate()
	clock.advance(cfg.TTL - time.Second)
	second := cache.CurrentRate()

	// assert
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

func TestShouldRefreshAfterTTLExpiry(t *testing.T) {
	// arrange
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 2, FeeRate: 42},
	}}
	cfg := NewConfig()
	cache, clock := newTestCache(source, cfg)

	// act
	first := cache.CurrentRate()
	clock.advance(cfg.TTL)
	second := cache.CurrentRate()

	// assert
	assert.Equal(t, 2, source.calls)
	assert.True(t, second.Timestamp > first.Timestamp)
}

func TestShouldClampAfterAveragingNotBefore(t *testing.T) {
	// arrange - the raw rates enter the window unclamped, were they clamped
	// before averaging the result would be (1000+100)/2 = 550
	source := &stubSource{}
	cfg := NewConfig()
	cfg.Capacity = 2
	cache, clock := newTestCache(source, cfg)

	// act
	var rate FeeRate
	for i, fee := range []int64{5000, 100} {
		if i > 0 {
			clock.advance(cfg.TTL)
		}
		source.predictions = []Prediction{{MaxDelayBlocks: 2, FeeRate: fee}}
		rate = cache.CurrentRate()
	}

	// assert
	assert.Equal(t, []int64{5000, 100}, cache.window.rates)
	assert.Equal(t, MaxFeeRate, rate.Rate)
}

func TestShouldClampBelowMinimum(t *testing.T) {
	// arrange
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 2, FeeRate: 3},
	}}
	cache, _ := newTestCache(source, NewConfig())

	// act
	rate := cache.CurrentRate()

	// assert
	assert.Equal(t, MinFeeRate, rate.Rate)
}

func TestShouldAlwaysStayWithinBounds(t *testing.T) {
	// arrange
	source := &stubSource{}
	cfg := NewConfig()
	cfg.Capacity = 3
	cache, clock := newTestCache(source, cfg)

	// act + assert
	for _, fee := range []int64{0, 1, 999999, 10, 1000000000, 7} {
		source.predictions = []Prediction{{MaxDelayBlocks: 2, FeeRate: fee}}
		rate := cache.CurrentRate()
		clock.advance(cfg.TTL)

		assert.True(t, rate.Rate >= MinFeeRate, "rate %v below floor", rate.Rate)
		assert.True(t, rate.Rate <= MaxFeeRate, "rate %v above ceiling", rate.Rate)
	}
}

func TestShouldKeepWindowAcrossFailedRefreshes(t *testing.T) {
	// arrange - fallback values never enter the window, a later successful
	// refresh averages with the observations made before the outage
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 2, FeeRate: 100},
	}}
	cfg := NewConfig()
	cache, clock := newTestCache(source, cfg)

	// act
	cache.CurrentRate()
	clock.advance(cfg.TTL)

	source.predictions = nil
	source.err = errors.Wrap(ErrParse, "bad payload")
	outage := cache.CurrentRate()
	clock.advance(cfg.TTL)

	source.err = nil
	source.predictions = []Prediction{{MaxDelayBlocks: 2, FeeRate: 300}}
	recovered := cache.CurrentRate()

	// assert
	assert.Equal(t, MinFeeRate, outage.Rate)
	assert.Equal(t, []int64{100, 300}, cache.window.rates)
	assert.Equal(t, int64(200), recovered.Rate)
}

type hangingSource struct{}

func (s *hangingSource) FetchPredictions(ctx context.Context) ([]Prediction, error) {
	<-ctx.Done()
	return nil, errors.Wrap(ErrFetch, ctx.Err().Error())
}

func TestShouldDegradeToFloorWhenUpstreamHangs(t *testing.T) {
	// arrange - the fetch deadline bounds how long a refresh may hold the
	// lock on a hung upstream
	original := fetchTimeout
	fetchTimeout = 50 * time.Millisecond
	defer func() { fetchTimeout = original }()

	cache, _ := newTestCache(&hangingSource{}, NewConfig())

	// act
	done := make(chan FeeRate, 1)
	go func() {
		done <- cache.CurrentRate()
	}()

	// assert
	select {
	case rate := <-done:
		assert.Equal(t, MinFeeRate, rate.Rate)
	case <-time.After(5 * time.Second):
		t.Fatal("read did not return after the fetch deadline")
	}
}

func TestShouldPublishComputationTimestamp(t *testing.T) {
	// arrange
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 2, FeeRate: 42},
	}}
	cache, clock := newTestCache(source, NewConfig())

	// act
	rate := cache.CurrentRate()

	// assert
	assert.Equal(t, clock.current.Unix(), rate.Timestamp)
}

func TestShouldTriggerSingleFetchForConcurrentReads(t *testing.T) {
	// arrange
	source := &stubSource{predictions: []Prediction{
		{MaxDelayBlocks: 2, FeeRate: 42},
	}}
	cache, _ := newTestCache(source, NewConfig())

	// act
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate := cache.CurrentRate()
			assert.Equal(t, int64(42), rate.Rate)
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, 1, source.calls)
}

func TestShouldHintRefreshInterval(t *testing.T) {
	// arrange
	cfg := NewConfig()
	cfg.TTL = 2 * time.Minute
	cache, _ := newTestCache(&stubSource{}, cfg)

	// assert
	require.Equal(t, 2*time.Minute, cache.RefreshInterval())
}
