package connectors

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
	"github.com/snowfork/root-relayer/crypto/keccak"
	"github.com/snowfork/root-relayer/crypto/merkle"

	log "github.com/sirupsen/logrus"
)

var l1MessengerABI = parseABI(contracts.ZkSyncL1MessengerABI)

// ZkSync proves an L1MessageSent log against the L2 to L1 log tree of the
// batch that included it.
type ZkSync struct {
	spoke RawCaller
}

func NewZkSync(spoke RawCaller) *ZkSync {
	return &ZkSync{spoke: spoke}
}

type zkLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

type zkL2ToL1Log struct {
	Sender common.Address `json:"sender"`
	Key    common.Hash    `json:"key"`
	Value  common.Hash    `json:"value"`
}

// zkReceipt carries the batch fields zkSync adds to eth_getTransactionReceipt.
type zkReceipt struct {
	Status         hexutil.Uint64 `json:"status"`
	L1BatchNumber  *hexutil.Big   `json:"l1BatchNumber"`
	L1BatchTxIndex *hexutil.Big   `json:"l1BatchTxIndex"`
	Logs           []zkLog        `json:"logs"`
	L2ToL1Logs     []zkL2ToL1Log  `json:"l2ToL1Logs"`
}

type zkLogProof struct {
	Proof []common.Hash `json:"proof"`
	ID    uint64        `json:"id"`
	Root  common.Hash   `json:"root"`
}

func (z *ZkSync) BuildArgs(ctx context.Context, msg *chain.RootMessage) ([]interface{}, error) {
	var r *zkReceipt
	err := z.spoke.CallContext(ctx, &r, "eth_getTransactionReceipt", msg.TransactionHash)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt %s: %w", msg.TransactionHash.Hex(), err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: receipt %s not found", ErrNotProvable, msg.TransactionHash.Hex())
	}
	if r.Status != 1 {
		return nil, fmt.Errorf("transaction %s reverted", msg.TransactionHash.Hex())
	}
	if r.L1BatchNumber == nil || r.L1BatchTxIndex == nil {
		return nil, fmt.Errorf("%w: transaction %s not yet in an l1 batch", ErrNotProvable, msg.TransactionHash.Hex())
	}

	txIndex := r.L1BatchTxIndex.ToInt()
	if !txIndex.IsUint64() || txIndex.Uint64() > 0xffff {
		return nil, fmt.Errorf("l1 batch tx index %s overflows uint16", txIndex)
	}
	txNumberInBatch := uint16(txIndex.Uint64())

	event := l1MessengerABI.Events["L1MessageSent"]
	var sent *zkLog
	for i := range r.Logs {
		l := &r.Logs[i]
		if l.Address == contracts.ZkSyncL1Messenger && len(l.Topics) == 3 && l.Topics[0] == event.ID {
			sent = l
			break
		}
	}
	if sent == nil {
		return nil, fmt.Errorf("%w: L1MessageSent in tx %s", ErrLogNotFound, msg.TransactionHash.Hex())
	}

	values, err := event.Inputs.NonIndexed().Unpack(sent.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack L1MessageSent: %w", err)
	}
	message := values[0].([]byte)
	sender, messageHash := sent.Topics[1], sent.Topics[2]

	if keccak.Sum(message) != messageHash {
		return nil, fmt.Errorf("%w: L1MessageSent hash", ErrProofMismatch)
	}

	logIndex := -1
	for i, l := range r.L2ToL1Logs {
		if l.Sender == contracts.ZkSyncL1Messenger && l.Key == sender && l.Value == messageHash {
			logIndex = i
			break
		}
	}
	if logIndex < 0 {
		return nil, fmt.Errorf("%w: l2 to l1 log for message %s", ErrLogNotFound, messageHash.Hex())
	}

	var proof *zkLogProof
	err = z.spoke.CallContext(ctx, &proof, "zks_getL2ToL1LogProof", msg.TransactionHash, logIndex)
	if err != nil {
		return nil, fmt.Errorf("fetch l2 to l1 log proof: %w", err)
	}
	if proof == nil {
		return nil, fmt.Errorf("%w: no log proof for tx %s", ErrNotProvable, msg.TransactionHash.Hex())
	}

	leaf := l2ToL1LogLeaf(txNumberInBatch, sender, messageHash)
	if !merkle.Verify(keccak.Sum(leaf), proof.Root, proof.ID, proof.Proof) {
		return nil, fmt.Errorf("%w: log %d in batch %s", ErrProofMismatch, proof.ID, r.L1BatchNumber.ToInt())
	}

	path := make([][32]byte, len(proof.Proof))
	for i, h := range proof.Proof {
		path[i] = h
	}

	log.WithFields(log.Fields{
		"batchNumber": r.L1BatchNumber.ToInt(),
		"messageID":   proof.ID,
		"txNumber":    txNumberInBatch,
	}).Debug("Built zksync log proof")

	return []interface{}{
		new(big.Int).Set(r.L1BatchNumber.ToInt()),
		new(big.Int).SetUint64(proof.ID),
		txNumberInBatch,
		message,
		path,
	}, nil
}

// l2ToL1LogLeaf packs an L2ToL1Log the way the mailbox hashes it: shard id,
// isService, tx number in batch, sender, key and value.
func l2ToL1LogLeaf(txNumberInBatch uint16, key, value common.Hash) []byte {
	leaf := make([]byte, 0, 88)
	leaf = append(leaf, 0x00, 0x01)
	leaf = binary.BigEndian.AppendUint16(leaf, txNumberInBatch)
	leaf = append(leaf, contracts.ZkSyncL1Messenger.Bytes()...)
	leaf = append(leaf, key.Bytes()...)
	leaf = append(leaf, value.Bytes()...)
	return leaf
}
