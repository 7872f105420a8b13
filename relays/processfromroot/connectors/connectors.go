// Package connectors builds the hub connector call arguments for each rollup
// family from the spoke transaction that sent the root.
package connectors

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"

	"github.com/snowfork/root-relayer/contracts"
)

var (
	// ErrNotProvable means the message cannot be proven on the hub yet, for
	// example because the output or batch has not been published.
	ErrNotProvable = errors.New("message not yet provable")
	// ErrProofMismatch means fetched proof data does not connect to its root.
	ErrProofMismatch = errors.New("proof does not match root")
	ErrLogNotFound   = errors.New("log not found in receipt")
)

// ChainReader is the part of ethclient.Client the builders read through.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
	CallContract(ctx context.Context, call goethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q goethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// ProofReader serves eth_getProof, as gethclient.Client does.
type ProofReader interface {
	GetProof(ctx context.Context, account common.Address, keys []string, blockNumber *big.Int) (*gethclient.AccountResult, error)
}

// RawCaller issues chain specific JSON-RPC methods, as rpc.Client does.
type RawCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

func call(ctx context.Context, reader ChainReader, address common.Address, parsed *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	input, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	output, err := reader.CallContract(ctx, goethereum.CallMsg{To: &address, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, address.Hex(), err)
	}

	values, err := parsed.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}

	return values, nil
}

// findLog returns the first log emitted by address with the event's topic.
func findLog(receipt *types.Receipt, address common.Address, event abi.Event) (*types.Log, error) {
	for _, l := range receipt.Logs {
		if l.Address == address && len(l.Topics) > 0 && l.Topics[0] == event.ID {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s from %s in tx %s", ErrLogNotFound, event.Name, address.Hex(), receipt.TxHash.Hex())
}

func receipt(ctx context.Context, reader ChainReader, txHash common.Hash) (*types.Receipt, error) {
	r, err := reader.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt %s: %w", txHash.Hex(), err)
	}
	if r.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", txHash.Hex())
	}
	return r, nil
}

func parseABI(definition string) *abi.ABI {
	parsed := contracts.MustParseABI(definition)
	return &parsed
}
