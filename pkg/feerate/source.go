package feerate

import (
	"context"

	"github.com/pkg/errors"
)

var (
	//ErrFetch indicates the upstream service could not be reached or answered non-2xx
	ErrFetch = errors.New("fee predictions could not be fetched")
	//ErrParse indicates the upstream payload did not have the expected shape
	ErrParse = errors.New("fee predictions payload is malformed")
)

// Prediction is one upstream estimate: to confirm within MaxDelayBlocks
// blocks, pay at least FeeRate satoshi per byte.
type Prediction struct {
	MaxDelayBlocks int64
	FeeRate        int64
}

// PredictionSource fetches the current prediction set from an upstream
// service. Implementations do one outbound call per invocation, no retries,
// and must preserve the order the upstream emitted - selection depends on it.
type PredictionSource interface {
	FetchPredictions(ctx context.Context) ([]Prediction, error)
}
