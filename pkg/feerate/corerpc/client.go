package corerpc

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
	"go.uber.org/zap"

	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate"
)

// defaultTargets is the ladder of confirmation targets queried per fetch,
// ascending so that the fastest estimate is considered first.
var defaultTargets = []int64{2, 4, 6, 10, 25}

var defaultTimeout = 30 * time.Second

// Client fetches fee rate predictions from a bitcoin core node via the
// estimatesmartfee RPC, one call per confirmation target.
type Client struct {
	jsonClient jsonrpc.RPCClient
	logger     *zap.Logger
	targets    []int64
}

var _ feerate.PredictionSource = (*Client)(nil)

// NewClient creates a prediction source backed by a bitcoin core JSON RPC
// endpoint.
func NewClient(btcRPCURL, btcRPCUser, btcRPCPassword string, logger *zap.Logger) (*Client, error) {
	if btcRPCURL == "" {
		return nil, errors.New("rpc url not set")
	}

	targetURL := "http://" + btcRPCURL
	headers := make(map[string]string)
	if btcRPCUser != "" || btcRPCPassword != "" {
		headers["Authorization"] = "Basic " + basicAuth(btcRPCUser, btcRPCPassword)
	}

	httpClient := &http.Client{
		Timeout: defaultTimeout,
	}

	rpcOpts := jsonrpc.RPCClientOpts{
		CustomHeaders: headers,
		HTTPClient:    httpClient,
	}

	return &Client{
		jsonClient: jsonrpc.NewClientWithOpts(targetURL, &rpcOpts),
		logger:     logger,
		targets:    defaultTargets,
	}, nil
}

// basicAuth converts username and password to base64-encoded string
// that can be used in `Authorization` header with `Basic` prefix
// see https://golang.org/pkg/net/http/#Request.SetBasicAuth
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// FetchPredictions queries estimatesmartfee for each confirmation target and
// emits the answers in ladder order. Targets the node has no estimate for
// yield no prediction.
// NOTE the RPC client takes no context, the deadline is enforced by the
// underlying HTTP client timeout.
func (c *Client) FetchPredictions(ctx context.Context) ([]feerate.Prediction, error) {
	predictions := make([]feerate.Prediction, 0, len(c.targets))
	for _, target := range c.targets {
		// https://bitcoincore.org/en/doc/0.17.0/rpc/util/estimatesmartfee/
		var result btcjson.EstimateSmartFeeResult
		err := c.jsonClient.CallFor(&result, "estimatesmartfee", target)
		if err != nil {
			return nil, errors.Wrap(feerate.ErrFetch, err.Error())
		}

		if len(result.Errors) > 0 || result.FeeRate == nil {
			c.logger.Info("no estimate for target",
				zap.Int64("target", target),
				zap.Strings("errors", result.Errors))
			continue
		}

		rate, err := satPerByte(*result.FeeRate)
		if err != nil {
			return nil, errors.Wrap(feerate.ErrParse, err.Error())
		}

		predictions = append(predictions, feerate.Prediction{
			MaxDelayBlocks: result.Blocks,
			FeeRate:        rate,
		})
	}

	return predictions, nil
}

// satPerByte converts an estimatesmartfee rate (BTC per kilobyte) to
// satoshi per byte.
func satPerByte(btcPerKB float64) (int64, error) {
	amount, err := btcutil.NewAmount(btcPerKB)
	if err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, errors.Errorf("negative fee rate %v", btcPerKB)
	}

	return int64(amount) / 1000, nil
}
