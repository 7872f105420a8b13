package processfromroot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/snowfork/root-relayer/chain"

	log "github.com/sirupsen/logrus"
)

const DefaultConcurrency = 10

// MessageStore is the read side of the root message store.
type MessageStore interface {
	ListPending(ctx context.Context) ([]chain.RootMessage, error)
}

type MessageProcessor interface {
	Process(ctx context.Context, msg *chain.RootMessage) (chain.RelayAcknowledgment, error)
}

// Coordinator relays every pending message once per call. It keeps no state
// between calls beyond the last result, so a message still pending on the
// next run is submitted again.
type Coordinator struct {
	store          MessageStore
	processor      MessageProcessor
	concurrency    int
	messageTimeout time.Duration
	metrics        *Metrics
	last           atomic.Pointer[BatchResult]
}

func NewCoordinator(
	store MessageStore,
	processor MessageProcessor,
	concurrency int,
	messageTimeout time.Duration,
	metrics *Metrics,
) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{
		store:          store,
		processor:      processor,
		concurrency:    concurrency,
		messageTimeout: messageTimeout,
		metrics:        metrics,
	}
}

// ProcessPending fails only when the pending set cannot be listed. Per
// message failures are recorded in the result.
func (c *Coordinator) ProcessPending(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
	logger := log.WithField("runID", result.RunID.String())

	messages, err := c.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending root messages: %w", err)
	}

	logger.WithField("count", len(messages)).Info("Processing pending root messages")

	result.Outcomes = make([]Outcome, len(messages))

	var eg errgroup.Group
	eg.SetLimit(c.concurrency)
	for i := range messages {
		i := i
		eg.Go(func() error {
			result.Outcomes[i] = c.processOne(ctx, logger, &messages[i])
			return nil
		})
	}
	_ = eg.Wait()

	result.FinishedAt = time.Now()
	c.last.Store(result)

	summary := result.Summary()
	c.metrics.observeBatch(result)
	logger.WithFields(log.Fields{
		"total":        summary.Total,
		"acknowledged": summary.Acknowledged,
		"failed":       summary.Failed,
		"duration":     result.FinishedAt.Sub(result.StartedAt),
	}).Info("Finished processing root messages")

	return result, nil
}

func (c *Coordinator) processOne(ctx context.Context, logger *log.Entry, msg *chain.RootMessage) Outcome {
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind := KindCancelled
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return Outcome{MessageID: msg.ID, Err: &Error{Kind: kind, MessageID: msg.ID, Err: ctxErr}}
	}

	if c.messageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.messageTimeout)
		defer cancel()
	}

	ack, err := c.process(ctx, logger, msg)
	if err != nil {
		kind := KindOf(err)
		entry := logger.WithFields(log.Fields{
			"messageID":    msg.ID,
			"originDomain": msg.OriginDomain,
			"kind":         kind.Label(),
			"retryable":    kind.Retryable(),
		}).WithError(err)
		if kind.Alert() {
			entry.WithField("alert", true).Error("Failed to relay root message")
		} else {
			entry.Warn("Failed to relay root message")
		}
		return Outcome{MessageID: msg.ID, Err: err}
	}

	return Outcome{MessageID: msg.ID, Ack: ack}
}

// process recovers a panic raised while processing msg into a KindPanic
// failure, so the rest of the batch still runs.
func (c *Coordinator) process(ctx context.Context, logger *log.Entry, msg *chain.RootMessage) (ack chain.RelayAcknowledgment, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(log.Fields{
				"messageID": msg.ID,
				"stack":     string(debug.Stack()),
			}).Debug("Recovered panic while processing root message")
			ack, err = "", &Error{Kind: KindPanic, MessageID: msg.ID, Err: fmt.Errorf("%v", r)}
		}
	}()

	return c.processor.Process(ctx, msg)
}

// Last returns the most recent batch result, or nil before the first run.
func (c *Coordinator) Last() *BatchResult {
	return c.last.Load()
}
