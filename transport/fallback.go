package transport

import (
	"context"
	"fmt"

	"github.com/snowfork/root-relayer/chain"

	log "github.com/sirupsen/logrus"
)

// Fallback tries the primary submitter and, if it fails, the backup.
type Fallback struct {
	primary Submitter
	backup  Submitter
}

func NewFallback(primary, backup Submitter) *Fallback {
	return &Fallback{primary: primary, backup: backup}
}

func (f *Fallback) Submit(ctx context.Context, req *chain.RelayRequest) (chain.RelayAcknowledgment, error) {
	ack, err := f.primary.Submit(ctx, req)
	if err == nil {
		return ack, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	log.WithError(err).WithFields(log.Fields{
		"chainID": req.ChainID,
		"target":  req.Target.Hex(),
	}).Warn("Primary relay failed, submitting through backup")

	ack, backupErr := f.backup.Submit(ctx, req)
	if backupErr != nil {
		return "", fmt.Errorf("primary relay: %v; backup relay: %w", err, backupErr)
	}

	return ack, nil
}
