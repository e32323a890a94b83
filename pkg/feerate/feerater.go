package feerate

import "time"

// FeeRate is a published fee rate recommendation.
type FeeRate struct {
	Currency  string `json:"currency"`
	Rate      int64  `json:"rate"`      // satoshi per byte
	Timestamp int64  `json:"timestamp"` // unix seconds of computation
}

// RateProvider is the per-asset capability: each supported currency brings its
// own prediction source and selection policy behind this interface.
type RateProvider interface {
	//RefreshInterval hints how often consumers should expect a new value
	RefreshInterval() time.Duration
	//CurrentRate returns the current recommended fee rate, it never fails
	CurrentRate() FeeRate
}
