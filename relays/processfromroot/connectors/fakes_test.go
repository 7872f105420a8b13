package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
)

var errNotFound = errors.New("not found")

// fakeChain serves canned chain data. Contract calls are dispatched on the 4
// byte selector.
type fakeChain struct {
	mu       sync.Mutex
	head     uint64
	receipts map[common.Hash]*types.Receipt
	byNumber map[uint64]*types.Header
	byHash   map[common.Hash]*types.Header
	methods  map[[4]byte]func(input []byte) ([]byte, error)
	logs     []types.Log
	queries  []goethereum.FilterQuery
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		receipts: make(map[common.Hash]*types.Receipt),
		byNumber: make(map[uint64]*types.Header),
		byHash:   make(map[common.Hash]*types.Header),
		methods:  make(map[[4]byte]func([]byte) ([]byte, error)),
	}
}

func (f *fakeChain) handle(selector []byte, fn func(input []byte) ([]byte, error)) {
	var key [4]byte
	copy(key[:], selector)
	f.methods[key] = fn
}

func (f *fakeChain) addHeader(h *types.Header) {
	f.byNumber[h.Number.Uint64()] = h
	f.byHash[h.Hash()] = h
}

func (f *fakeChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	r, ok := f.receipts[txHash]
	if !ok {
		return nil, errNotFound
	}
	return r, nil
}

func (f *fakeChain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	h, ok := f.byNumber[number.Uint64()]
	if !ok {
		return nil, errNotFound
	}
	return h, nil
}

func (f *fakeChain) HeaderByHash(_ context.Context, hash common.Hash) (*types.Header, error) {
	h, ok := f.byHash[hash]
	if !ok {
		return nil, errNotFound
	}
	return h, nil
}

func (f *fakeChain) CallContract(_ context.Context, call goethereum.CallMsg, _ *big.Int) ([]byte, error) {
	var key [4]byte
	copy(key[:], call.Data)
	fn, ok := f.methods[key]
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	return fn(call.Data[4:])
}

func (f *fakeChain) FilterLogs(_ context.Context, q goethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	var matched []types.Log
	for _, l := range f.logs {
		if len(q.Addresses) > 0 && l.Address != q.Addresses[0] {
			continue
		}
		if !topicsMatch(q.Topics, l.Topics) {
			continue
		}
		matched = append(matched, l)
	}
	return matched, nil
}

func topicsMatch(filter [][]common.Hash, topics []common.Hash) bool {
	for i, options := range filter {
		if len(options) == 0 {
			continue
		}
		if i >= len(topics) || topics[i] != options[0] {
			return false
		}
	}
	return true
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	return f.head, nil
}

type fakeProofs struct {
	result  *gethclient.AccountResult
	account common.Address
	keys    []string
	block   *big.Int
}

func (f *fakeProofs) GetProof(_ context.Context, account common.Address, keys []string, blockNumber *big.Int) (*gethclient.AccountResult, error) {
	f.account, f.keys, f.block = account, keys, blockNumber
	return f.result, nil
}

type rpcCall struct {
	method string
	args   []interface{}
}

// fakeRPC answers JSON-RPC calls by round tripping canned values through JSON.
type fakeRPC struct {
	responses map[string]interface{}
	calls     []rpcCall
}

func (f *fakeRPC) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	f.calls = append(f.calls, rpcCall{method: method, args: args})
	response, ok := f.responses[method]
	if !ok {
		return fmt.Errorf("method %s not found", method)
	}
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}
