package earn

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate"
	"github.com/mariusgiger/btc-feerate-provider/pkg/utils"
)

// userAgent is a non-empty placeholder, the upstream host answers 403 to
// requests with a default or empty agent.
const userAgent = "btc-feerate-provider"

var defaultTimeout = 30 * time.Second

// Client fetches fee rate predictions from a fees/list style REST endpoint
// returning categories of {maxDelay, maxFee} records.
type Client struct {
	url        string
	httpClient *http.Client
}

var _ feerate.PredictionSource = (*Client)(nil)

// NewClient creates a prediction source for the given endpoint URL.
func NewClient(url string) (*Client, error) {
	if url == "" {
		return nil, errors.New("endpoint url not set")
	}

	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// pointer fields so that a missing field is distinguishable from zero
type prediction struct {
	MaxDelay *int64 `json:"maxDelay"`
	MaxFee   *int64 `json:"maxFee"`
}

// FetchPredictions does one GET to the endpoint and flattens all categories
// into a single sequence, preserving the order the upstream emitted.
func (c *Client) FetchPredictions(ctx context.Context) ([]feerate.Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(feerate.ErrFetch, err.Error())
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(feerate.ErrFetch, err.Error())
	}
	defer utils.IgnoreErrorOn(resp.Body.Close)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(feerate.ErrFetch, "status code %v", resp.StatusCode)
	}

	// decode token-wise, unmarshalling the whole object into a map would
	// destroy the category order the upstream emitted
	decoder := json.NewDecoder(resp.Body)
	token, err := decoder.Token()
	if err != nil {
		return nil, errors.Wrap(feerate.ErrParse, err.Error())
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, errors.Wrapf(feerate.ErrParse, "expected object, got %v", token)
	}

	var predictions []feerate.Prediction
	for decoder.More() {
		if _, err := decoder.Token(); err != nil { // category name
			return nil, errors.Wrap(feerate.ErrParse, err.Error())
		}

		var entries []prediction
		if err := decoder.Decode(&entries); err != nil {
			return nil, errors.Wrap(feerate.ErrParse, err.Error())
		}

		for _, entry := range entries {
			if entry.MaxDelay == nil || entry.MaxFee == nil {
				return nil, errors.Wrap(feerate.ErrParse, "prediction misses maxDelay or maxFee")
			}
			if *entry.MaxDelay < 0 || *entry.MaxFee < 0 {
				return nil, errors.Wrapf(feerate.ErrParse,
					"negative prediction {%v %v}", *entry.MaxDelay, *entry.MaxFee)
			}

			predictions = append(predictions, feerate.Prediction{
				MaxDelayBlocks: *entry.MaxDelay,
				FeeRate:        *entry.MaxFee,
			})
		}
	}

	return predictions, nil
}
