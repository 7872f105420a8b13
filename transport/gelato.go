package transport

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/snowfork/root-relayer/chain"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultGelatoEndpoint = "https://relay.gelato.digital"
	sponsoredCallPath     = "/relays/v2/sponsored-call"
	defaultGelatoTimeout  = 30 * time.Second
)

type GelatoConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second" validate:"gte=0"`
	// Consecutive failures before the breaker opens.
	MaxFailures uint32 `mapstructure:"max-failures"`
}

type sponsoredCall struct {
	ChainID       string `json:"chainId"`
	Target        string `json:"target"`
	Data          string `json:"data"`
	SponsorAPIKey string `json:"sponsorApiKey"`
	GasLimit      string `json:"gasLimit,omitempty"`
}

type sponsoredCallResponse struct {
	TaskID string `json:"taskId"`
}

type gelatoError struct {
	Message string `json:"message"`
}

// Gelato submits sponsored calls to a Gelato style relay. The relay pays gas
// and returns a task id.
type Gelato struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewGelato(config GelatoConfig) *Gelato {
	if config.Endpoint == "" {
		config.Endpoint = DefaultGelatoEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = defaultGelatoTimeout
	}
	if config.MaxFailures == 0 {
		config.MaxFailures = 5
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	maxFailures := config.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gelato",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Relay circuit breaker changed state")
		},
	})

	client := resty.New().
		SetBaseURL(config.Endpoint).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Gelato{
		client:  client,
		breaker: breaker,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (g *Gelato) Submit(ctx context.Context, req *chain.RelayRequest) (chain.RelayAcknowledgment, error) {
	if req.Credential == "" {
		return "", ErrMissingCredential
	}

	err := g.limiter.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}

	taskID, err := g.breaker.Execute(func() (interface{}, error) {
		return g.sponsoredCall(ctx, req)
	})
	if err != nil {
		return "", err
	}

	return chain.RelayAcknowledgment(taskID.(string)), nil
}

func (g *Gelato) sponsoredCall(ctx context.Context, req *chain.RelayRequest) (string, error) {
	body := sponsoredCall{
		ChainID:       strconv.FormatUint(req.ChainID, 10),
		Target:        req.Target.Hex(),
		Data:          hexutil.Encode(req.Data),
		SponsorAPIKey: req.Credential,
	}
	if req.GasLimit != nil && req.GasLimit.Sign() > 0 {
		body.GasLimit = req.GasLimit.String()
	}

	var result sponsoredCallResponse
	var failure gelatoError
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post(sponsoredCallPath)
	if err != nil {
		return "", fmt.Errorf("post sponsored call: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("relay rejected sponsored call: status %d: %s", resp.StatusCode(), failure.Message)
	}

	if result.TaskID == "" {
		return "", fmt.Errorf("relay returned no task id")
	}

	log.WithFields(log.Fields{
		"chainID": req.ChainID,
		"target":  body.Target,
		"taskID":  result.TaskID,
	}).Debug("Sponsored call accepted")

	return result.TaskID, nil
}
