package transport

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/chain/ethereum"

	log "github.com/sirupsen/logrus"
)

// TxOptsFunc returns signing options for a fresh transaction.
type TxOptsFunc func(ctx context.Context) *bind.TransactOpts

type directChain struct {
	backend bind.ContractBackend
	opts    TxOptsFunc
}

// Direct sends the call as a transaction signed by the relayer key. Used as
// the backup when the sponsored relay is unavailable.
type Direct struct {
	mu     sync.RWMutex
	chains map[uint64]directChain
}

func NewDirect() *Direct {
	return &Direct{
		chains: make(map[uint64]directChain),
	}
}

func (d *Direct) AddChain(chainID uint64, backend bind.ContractBackend, opts TxOptsFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chains[chainID] = directChain{backend: backend, opts: opts}
}

// AddConnection registers an already connected chain.
func (d *Direct) AddConnection(conn *ethereum.Connection) {
	d.AddChain(conn.ChainID().Uint64(), conn.Client(), conn.MakeTxOpts)
}

func (d *Direct) Submit(ctx context.Context, req *chain.RelayRequest) (chain.RelayAcknowledgment, error) {
	d.mu.RLock()
	dc, ok := d.chains[req.ChainID]
	d.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedChain, req.ChainID)
	}

	opts := dc.opts(ctx)
	applyHints(opts, req)
	contract := bind.NewBoundContract(req.Target, abi.ABI{}, dc.backend, dc.backend, dc.backend)

	tx, err := contract.RawTransact(opts, req.Data)
	if err != nil {
		return "", fmt.Errorf("send transaction to %s: %w", req.Target.Hex(), err)
	}

	log.WithFields(log.Fields{
		"chainID": req.ChainID,
		"target":  req.Target.Hex(),
		"txHash":  tx.Hash().Hex(),
		"nonce":   tx.Nonce(),
		"gas":     tx.Gas(),
	}).Info("Sent transaction")

	return chain.RelayAcknowledgment(tx.Hash().Hex()), nil
}

// applyHints fills gas settings the chain config leaves open with the
// message's advisory hints. Configured values win, and unset ones are estimated.
func applyHints(opts *bind.TransactOpts, req *chain.RelayRequest) {
	if opts.GasLimit == 0 && req.GasLimit != nil && req.GasLimit.Sign() > 0 && req.GasLimit.IsUint64() {
		opts.GasLimit = req.GasLimit.Uint64()
	}

	dynamic := opts.GasFeeCap != nil || opts.GasTipCap != nil
	if opts.GasPrice == nil && !dynamic && req.GasPrice != nil && req.GasPrice.Sign() > 0 {
		opts.GasPrice = new(big.Int).Set(req.GasPrice)
	}
}
