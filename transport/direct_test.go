package transport

import (
	"context"
	"math/big"
	"sync"
	"testing"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/crypto/secp256k1"
)

type fakeBackend struct {
	mu   sync.Mutex
	sent []*types.Transaction
}

func (b *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) CallContract(context.Context, goethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) EstimateGas(context.Context, goethereum.CallMsg) (uint64, error) {
	return 210_000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) FilterLogs(context.Context, goethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(context.Context, goethereum.FilterQuery, chan<- types.Log) (goethereum.Subscription, error) {
	return nil, nil
}

func TestDirectSubmit(t *testing.T) {
	kp := secp256k1.Alice()
	chainID := big.NewInt(1)
	backend := &fakeBackend{}

	direct := NewDirect()
	direct.AddChain(1, backend, func(ctx context.Context) *bind.TransactOpts {
		return &bind.TransactOpts{From: kp.CommonAddress(), Signer: kp.Signer(chainID), Context: ctx}
	})

	req := relayRequest()
	ack, err := direct.Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, chain.RelayAcknowledgment(tx.Hash().Hex()), ack)
	assert.Equal(t, req.Target, *tx.To())
	assert.Equal(t, req.Data, tx.Data())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(600_000), tx.Gas())
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, kp.CommonAddress(), sender)
}

func TestDirectUnsupportedChain(t *testing.T) {
	req := relayRequest()
	req.ChainID = 10

	_, err := NewDirect().Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestDirectSubmitGasHints(t *testing.T) {
	kp := secp256k1.Alice()
	chainID := big.NewInt(1)

	cases := []struct {
		name     string
		opts     func() *bind.TransactOpts
		gasLimit *big.Int
		gasPrice *big.Int
		wantGas  uint64
		wantType uint8
		wantCap  *big.Int
	}{
		{
			name:     "estimated without hints",
			opts:     func() *bind.TransactOpts { return &bind.TransactOpts{} },
			wantGas:  210_000,
			wantType: types.DynamicFeeTxType,
		},
		{
			name:     "hints applied",
			opts:     func() *bind.TransactOpts { return &bind.TransactOpts{} },
			gasLimit: big.NewInt(450_000),
			gasPrice: big.NewInt(3_000_000_000),
			wantGas:  450_000,
			wantType: types.LegacyTxType,
			wantCap:  big.NewInt(3_000_000_000),
		},
		{
			name: "configured values win",
			opts: func() *bind.TransactOpts {
				return &bind.TransactOpts{GasLimit: 300_000, GasFeeCap: big.NewInt(5_000_000_000), GasTipCap: big.NewInt(1)}
			},
			gasLimit: big.NewInt(450_000),
			gasPrice: big.NewInt(3_000_000_000),
			wantGas:  300_000,
			wantType: types.DynamicFeeTxType,
			wantCap:  big.NewInt(5_000_000_000),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{}
			direct := NewDirect()
			direct.AddChain(1, backend, func(ctx context.Context) *bind.TransactOpts {
				opts := tc.opts()
				opts.From = kp.CommonAddress()
				opts.Signer = kp.Signer(chainID)
				opts.Context = ctx
				return opts
			})

			req := relayRequest()
			req.GasLimit = tc.gasLimit
			req.GasPrice = tc.gasPrice

			_, err := direct.Submit(context.Background(), req)
			require.NoError(t, err)

			require.Len(t, backend.sent, 1)
			tx := backend.sent[0]
			assert.Equal(t, tc.wantGas, tx.Gas())
			assert.Equal(t, tc.wantType, tx.Type())
			if tc.wantCap != nil {
				assert.Equal(t, tc.wantCap, tx.GasFeeCap())
			}
		})
	}
}
