package connectors

import (
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
	"github.com/snowfork/root-relayer/crypto/keccak"
)

type arbitrumFixture struct {
	spoke     *fakeChain
	hub       *fakeChain
	rollup    common.Address
	message   contracts.L2Message
	sendRoot  common.Hash
	blockHash common.Hash
	proof     [][32]byte
}

// newArbitrumFixture confirms a node whose outbox tree holds sendCount sends,
// with the relayed send at position 2.
func newArbitrumFixture(t *testing.T, sendCount uint64) *arbitrumFixture {
	f := &arbitrumFixture{
		spoke:  newFakeChain(),
		hub:    newFakeChain(),
		rollup: common.HexToAddress("0x5eF0D09d1E6204141B4d37530808eD19f60FBa35"),
		message: contracts.L2Message{
			L2Sender:    spokeConnector,
			To:          hubConnector,
			L2Block:     big.NewInt(500),
			L1Block:     big.NewInt(17_000_000),
			L2Timestamp: big.NewInt(1_700_000_000),
			Value:       big.NewInt(1),
			CallData:    common.FromHex("0x4ff746f6"),
		},
	}

	send := sendHash(f.message)
	leaves := []common.Hash{
		keccak.Sum([]byte("send 0")),
		keccak.Sum([]byte("send 1")),
		keccak.Sum(send.Bytes()),
		keccak.Sum([]byte("send 3")),
	}
	left := keccak.Sum(leaves[0].Bytes(), leaves[1].Bytes())
	right := keccak.Sum(leaves[2].Bytes(), leaves[3].Bytes())
	f.sendRoot = keccak.Sum(left.Bytes(), right.Bytes())
	f.proof = [][32]byte{leaves[3], left}

	event := arbSysABI.Events["L2ToL1Tx"]
	data, err := event.Inputs.NonIndexed().Pack(
		f.message.L2Sender, f.message.L2Block, f.message.L1Block,
		f.message.L2Timestamp, f.message.Value, f.message.CallData,
	)
	require.NoError(t, err)

	f.spoke.receipts[sendTx] = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      sendTx,
		BlockNumber: big.NewInt(500),
		Logs: []*types.Log{{
			Address: contracts.ArbSys,
			Topics: []common.Hash{
				event.ID,
				common.BytesToHash(f.message.To.Bytes()),
				send,
				common.BigToHash(big.NewInt(2)),
			},
			Data: data,
		}},
	}

	var mixDigest common.Hash
	binary.BigEndian.PutUint64(mixDigest[:8], sendCount)
	header := &types.Header{
		Number:     big.NewInt(900),
		MixDigest:  mixDigest,
		Extra:      f.sendRoot.Bytes(),
		Difficulty: big.NewInt(1),
	}
	f.spoke.addHeader(header)
	f.blockHash = header.Hash()

	latest := rollupABI.Methods["latestConfirmed"]
	f.hub.handle(latest.ID, func([]byte) ([]byte, error) {
		return latest.Outputs.Pack(uint64(7))
	})

	nodeConfirmed := rollupABI.Events["NodeConfirmed"]
	nodeData, err := nodeConfirmed.Inputs.NonIndexed().Pack([32]byte(f.blockHash), [32]byte(f.sendRoot))
	require.NoError(t, err)
	f.hub.logs = []types.Log{{
		Address: f.rollup,
		Topics:  []common.Hash{nodeConfirmed.ID, common.BigToHash(big.NewInt(7))},
		Data:    nodeData,
	}}

	outboxProof := nodeInterfaceABI.Methods["constructOutboxProof"]
	f.spoke.handle(outboxProof.ID, func(input []byte) ([]byte, error) {
		args, err := outboxProof.Inputs.Unpack(input)
		require.NoError(t, err)
		assert.Equal(t, sendCount, args[0].(uint64))
		assert.Equal(t, uint64(2), args[1].(uint64))
		return outboxProof.Outputs.Pack([32]byte(send), [32]byte(f.sendRoot), f.proof)
	})

	return f
}

func TestArbitrumBuildArgs(t *testing.T) {
	f := newArbitrumFixture(t, 4)

	args, err := NewArbitrum(f.spoke, f.hub, f.rollup, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	require.NoError(t, err)

	require.Len(t, args, 6)
	assert.Equal(t, uint64(7), args[0])
	assert.Equal(t, [32]byte(f.sendRoot), args[1])
	assert.Equal(t, [32]byte(f.blockHash), args[2])
	assert.Equal(t, f.proof, args[3])
	assert.Equal(t, big.NewInt(2), args[4])
	assert.Equal(t, f.message, args[5])

	require.Len(t, f.hub.queries, 1)
	assert.Nil(t, f.hub.queries[0].FromBlock)

	_, err = contracts.MustParseABI(contracts.ArbitrumHubConnectorABI).Pack("processMessageFromRoot", args...)
	assert.NoError(t, err)
}

func TestArbitrumLookback(t *testing.T) {
	f := newArbitrumFixture(t, 4)
	f.hub.head = 10_000

	_, err := NewArbitrum(f.spoke, f.hub, f.rollup, 1_000).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	require.NoError(t, err)

	require.Len(t, f.hub.queries, 1)
	assert.Equal(t, int64(9_000), f.hub.queries[0].FromBlock.Int64())
}

func TestArbitrumSendNotYetConfirmed(t *testing.T) {
	f := newArbitrumFixture(t, 2)

	_, err := NewArbitrum(f.spoke, f.hub, f.rollup, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	assert.True(t, errors.Is(err, ErrNotProvable))
}

func TestArbitrumBadProof(t *testing.T) {
	f := newArbitrumFixture(t, 4)
	f.proof[0] = keccak.Sum([]byte("wrong sibling"))

	_, err := NewArbitrum(f.spoke, f.hub, f.rollup, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	assert.True(t, errors.Is(err, ErrProofMismatch))
}

func TestArbitrumMissingNodeConfirmed(t *testing.T) {
	f := newArbitrumFixture(t, 4)
	f.hub.logs = nil

	_, err := NewArbitrum(f.spoke, f.hub, f.rollup, 0).BuildArgs(context.Background(), &chain.RootMessage{ID: "m1", TransactionHash: sendTx})
	assert.True(t, errors.Is(err, ErrLogNotFound))
}
