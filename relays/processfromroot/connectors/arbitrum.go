package connectors

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
	"github.com/snowfork/root-relayer/crypto/keccak"
	"github.com/snowfork/root-relayer/crypto/merkle"

	log "github.com/sirupsen/logrus"
)

var (
	arbSysABI        = parseABI(contracts.ArbSysABI)
	nodeInterfaceABI = parseABI(contracts.ArbNodeInterfaceABI)
	rollupABI        = parseABI(contracts.ArbRollupABI)
)

// Arbitrum proves an L2ToL1Tx against the send root of the latest confirmed
// rollup node.
type Arbitrum struct {
	spoke  ChainReader
	hub    ChainReader
	rollup common.Address
	// Hub blocks searched for the NodeConfirmed event. Zero searches from genesis.
	lookback uint64
}

func NewArbitrum(spoke ChainReader, hub ChainReader, rollup common.Address, lookback uint64) *Arbitrum {
	return &Arbitrum{
		spoke:    spoke,
		hub:      hub,
		rollup:   rollup,
		lookback: lookback,
	}
}

type l2ToL1Tx struct {
	message  contracts.L2Message
	hash     common.Hash
	position uint64
}

type confirmedNode struct {
	num       uint64
	blockHash common.Hash
	sendRoot  common.Hash
}

func (a *Arbitrum) BuildArgs(ctx context.Context, msg *chain.RootMessage) ([]interface{}, error) {
	r, err := receipt(ctx, a.spoke, msg.TransactionHash)
	if err != nil {
		return nil, err
	}

	l, err := findLog(r, contracts.ArbSys, arbSysABI.Events["L2ToL1Tx"])
	if err != nil {
		return nil, err
	}

	tx, err := decodeL2ToL1Tx(l)
	if err != nil {
		return nil, err
	}

	node, err := a.latestConfirmedNode(ctx)
	if err != nil {
		return nil, err
	}

	header, err := a.spoke.HeaderByHash(ctx, node.blockHash)
	if err != nil {
		return nil, fmt.Errorf("fetch l2 block %s: %w", node.blockHash.Hex(), err)
	}
	sendCount := binary.BigEndian.Uint64(header.MixDigest[:8])
	if common.BytesToHash(header.Extra) != node.sendRoot {
		return nil, fmt.Errorf("%w: block %s send root differs from node %d", ErrProofMismatch, node.blockHash.Hex(), node.num)
	}

	if tx.position >= sendCount {
		return nil, fmt.Errorf("%w: position %d not confirmed by node %d with send count %d", ErrNotProvable, tx.position, node.num, sendCount)
	}

	values, err := call(ctx, a.spoke, contracts.ArbNodeInterface, nodeInterfaceABI, "constructOutboxProof", sendCount, tx.position)
	if err != nil {
		return nil, err
	}
	send := common.Hash(values[0].([32]byte))
	root := common.Hash(values[1].([32]byte))
	proof := values[2].([][32]byte)

	if send != tx.hash {
		return nil, fmt.Errorf("%w: outbox proof is for send %s, expected %s", ErrProofMismatch, send.Hex(), tx.hash.Hex())
	}
	if root != node.sendRoot {
		return nil, fmt.Errorf("%w: outbox proof root %s, node send root %s", ErrProofMismatch, root.Hex(), node.sendRoot.Hex())
	}

	path := make([]common.Hash, len(proof))
	for i := range proof {
		path[i] = proof[i]
	}
	if !merkle.Verify(keccak.Sum(send.Bytes()), node.sendRoot, tx.position, path) {
		return nil, fmt.Errorf("%w: send %s at position %d", ErrProofMismatch, send.Hex(), tx.position)
	}

	log.WithFields(log.Fields{
		"nodeNum":  node.num,
		"position": tx.position,
		"sendRoot": node.sendRoot.Hex(),
	}).Debug("Built arbitrum outbox proof")

	return []interface{}{
		node.num,
		[32]byte(node.sendRoot),
		[32]byte(node.blockHash),
		proof,
		new(big.Int).SetUint64(tx.position),
		tx.message,
	}, nil
}

func (a *Arbitrum) latestConfirmedNode(ctx context.Context) (*confirmedNode, error) {
	values, err := call(ctx, a.hub, a.rollup, rollupABI, "latestConfirmed")
	if err != nil {
		return nil, err
	}
	num := values[0].(uint64)

	query := goethereum.FilterQuery{
		Addresses: []common.Address{a.rollup},
		Topics: [][]common.Hash{
			{rollupABI.Events["NodeConfirmed"].ID},
			{common.BigToHash(new(big.Int).SetUint64(num))},
		},
	}
	if a.lookback > 0 {
		head, err := a.hub.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch hub block number: %w", err)
		}
		if head > a.lookback {
			query.FromBlock = new(big.Int).SetUint64(head - a.lookback)
		}
	}

	logs, err := a.hub.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter NodeConfirmed logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("%w: NodeConfirmed for node %d", ErrLogNotFound, num)
	}

	out, err := rollupABI.Events["NodeConfirmed"].Inputs.NonIndexed().Unpack(logs[len(logs)-1].Data)
	if err != nil {
		return nil, fmt.Errorf("unpack NodeConfirmed: %w", err)
	}

	return &confirmedNode{
		num:       num,
		blockHash: out[0].([32]byte),
		sendRoot:  out[1].([32]byte),
	}, nil
}

func decodeL2ToL1Tx(l *types.Log) (*l2ToL1Tx, error) {
	if len(l.Topics) != 4 {
		return nil, fmt.Errorf("L2ToL1Tx log has %d topics", len(l.Topics))
	}

	values, err := arbSysABI.Events["L2ToL1Tx"].Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack L2ToL1Tx: %w", err)
	}

	position := new(big.Int).SetBytes(l.Topics[3].Bytes())
	if !position.IsUint64() {
		return nil, fmt.Errorf("L2ToL1Tx position %s overflows", position)
	}

	tx := &l2ToL1Tx{
		message: contracts.L2Message{
			L2Sender:    values[0].(common.Address),
			To:          common.BytesToAddress(l.Topics[1].Bytes()),
			L2Block:     values[1].(*big.Int),
			L1Block:     values[2].(*big.Int),
			L2Timestamp: values[3].(*big.Int),
			Value:       values[4].(*big.Int),
			CallData:    values[5].([]byte),
		},
		hash:     l.Topics[2],
		position: position.Uint64(),
	}

	if computed := sendHash(tx.message); computed != tx.hash {
		return nil, fmt.Errorf("%w: send hash %s, logged %s", ErrProofMismatch, computed.Hex(), tx.hash.Hex())
	}

	return tx, nil
}

// sendHash is the outbox item hash: keccak256(abi.encodePacked(sender, to,
// l2Block, l1Block, timestamp, value, data)).
func sendHash(m contracts.L2Message) common.Hash {
	return keccak.Sum(
		m.L2Sender.Bytes(),
		m.To.Bytes(),
		common.BigToHash(m.L2Block).Bytes(),
		common.BigToHash(m.L1Block).Bytes(),
		common.BigToHash(m.L2Timestamp).Bytes(),
		common.BigToHash(m.Value).Bytes(),
		m.CallData,
	)
}
