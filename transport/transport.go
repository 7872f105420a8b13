// Package transport submits relay requests to a destination chain.
package transport

import (
	"context"
	"errors"

	"github.com/snowfork/root-relayer/chain"
)

var (
	ErrMissingCredential = errors.New("missing relay credential")
	ErrUnsupportedChain  = errors.New("unsupported destination chain")
)

type Submitter interface {
	Submit(ctx context.Context, req *chain.RelayRequest) (chain.RelayAcknowledgment, error)
}
