package connectors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
)

const DefaultPolygonProofAPI = "https://proof-generator.polygon.technology/api/v1/matic"

var messageSentSignature = parseABI(contracts.PolygonSpokeConnectorABI).Events["MessageSent"].ID

type exitPayload struct {
	Result string `json:"result"`
}

type exitPayloadError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Polygon fetches the checkpointed exit payload for the MessageSent event
// from a proof generator API.
type Polygon struct {
	client *resty.Client
}

func NewPolygon(endpoint string, timeout time.Duration) *Polygon {
	if endpoint == "" {
		endpoint = DefaultPolygonProofAPI
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Polygon{
		client: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (p *Polygon) BuildArgs(ctx context.Context, msg *chain.RootMessage) ([]interface{}, error) {
	var result exitPayload
	var failure exitPayloadError
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("txHash", msg.TransactionHash.Hex()).
		SetQueryParam("eventSignature", messageSentSignature.Hex()).
		SetResult(&result).
		SetError(&failure).
		Get("/exit-payload/{txHash}")
	if err != nil {
		return nil, fmt.Errorf("fetch exit payload: %w", err)
	}

	if resp.IsError() {
		if resp.StatusCode() >= http.StatusInternalServerError || resp.StatusCode() == http.StatusNotFound {
			return nil, fmt.Errorf("%w: exit payload for %s: %s", ErrNotProvable, msg.TransactionHash.Hex(), failure.Message)
		}
		return nil, fmt.Errorf("fetch exit payload: status %d: %s", resp.StatusCode(), failure.Message)
	}

	payload, err := hexutil.Decode(result.Result)
	if err != nil {
		return nil, fmt.Errorf("decode exit payload: %w", err)
	}

	return []interface{}{payload}, nil
}
