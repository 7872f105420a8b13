package processfromroot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"

	log "github.com/sirupsen/logrus"
)

// Directory locates the hub connector that receives a message.
type Directory interface {
	ResolveDestination(ctx context.Context, domain uint32, family contracts.ConnectorFamily) (uint64, common.Address, error)
}

// Submitter hands a relay request to the relay transport.
type Submitter interface {
	Submit(ctx context.Context, req *chain.RelayRequest) (chain.RelayAcknowledgment, error)
}

// Processor turns one root message into one relay submission.
type Processor struct {
	registry   *Registry
	directory  Directory
	submitter  Submitter
	credential string
	metrics    *Metrics
	tracer     trace.Tracer
}

func NewProcessor(
	registry *Registry,
	directory Directory,
	submitter Submitter,
	credential string,
	metrics *Metrics,
) *Processor {
	return &Processor{
		registry:   registry,
		directory:  directory,
		submitter:  submitter,
		credential: credential,
		metrics:    metrics,
		tracer:     otel.Tracer("github.com/snowfork/root-relayer/relays/processfromroot"),
	}
}

// Process resolves, builds, encodes and submits msg. Nothing is submitted
// unless every earlier step succeeds, and a failed submission is not retried.
func (p *Processor) Process(ctx context.Context, msg *chain.RootMessage) (ack chain.RelayAcknowledgment, err error) {
	ctx, span := p.tracer.Start(ctx, "ProcessFromRoot", trace.WithAttributes(
		attribute.String("message.id", msg.ID),
		attribute.Int64("message.origin", int64(msg.OriginDomain)),
		attribute.Int64("message.destination", int64(msg.DestinationDomain)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, KindOf(err).String())
		}
		span.End()
	}()

	logger := log.WithFields(log.Fields{
		"messageID":         msg.ID,
		"originDomain":      msg.OriginDomain,
		"destinationDomain": msg.DestinationDomain,
		"root":              msg.Root.Hex(),
		"txHash":            msg.TransactionHash.Hex(),
	})

	strategy, err := p.registry.Resolve(msg.OriginDomain)
	if err != nil {
		return "", fail(ctx, msg, KindUnknownDomain, err, false)
	}
	span.SetAttributes(attribute.String("connector.family", string(strategy.Family)))
	logger = logger.WithField("connector", strategy.Family)

	logger.Debug("Building connector arguments")
	args, err := strategy.Args.BuildArgs(ctx, msg)
	if err != nil {
		return "", fail(ctx, msg, KindArgBuild, fmt.Errorf("build %s args: %w", strategy.Family, err), true)
	}

	data, err := Encode(strategy.Family, msg, args)
	if err != nil {
		return "", fail(ctx, msg, KindEncoding, err, false)
	}

	chainID, target, err := p.directory.ResolveDestination(ctx, msg.DestinationDomain, strategy.Family)
	if err != nil {
		return "", fail(ctx, msg, KindUnresolvedDestination, fmt.Errorf("resolve hub connector: %w", err), true)
	}

	req := chain.RelayRequest{
		ChainID:    chainID,
		Target:     target,
		Data:       data,
		GasLimit:   msg.GasLimit,
		GasPrice:   msg.GasPrice,
		Credential: p.credential,
	}

	logger.WithFields(log.Fields{
		"chainID": chainID,
		"target":  target.Hex(),
	}).Debug("Submitting relay request")

	start := time.Now()
	ack, err = p.submitter.Submit(ctx, &req)
	p.metrics.observeSubmit(strategy.Family, time.Since(start))
	if err != nil {
		return "", fail(ctx, msg, KindSubmission, fmt.Errorf("submit relay request: %w", err), true)
	}

	logger.WithField("ack", ack).Info("Relayed root message")

	return ack, nil
}

// fail attaches the message id and kind to err. Steps that block on I/O are
// reported as cancelled or timed out when ctx is done at the time they fail.
func fail(ctx context.Context, msg *chain.RootMessage, kind Kind, err error, blocking bool) *Error {
	var e *Error
	if errors.As(err, &e) {
		kind, err = e.Kind, e.Err
	}

	if blocking {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				kind = KindTimeout
			} else {
				kind = KindCancelled
			}
		}
	}

	return &Error{Kind: kind, MessageID: msg.ID, Err: err}
}
