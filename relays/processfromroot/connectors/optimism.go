package connectors

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
	"github.com/snowfork/root-relayer/crypto/keccak"

	log "github.com/sirupsen/logrus"
)

var (
	messagePasserABI = parseABI(contracts.L2ToL1MessagePasserABI)
	outputOracleABI  = parseABI(contracts.L2OutputOracleABI)
	withdrawalArgs   = abi.Arguments{
		{Type: mustType("uint256")},
		{Type: mustType("address")},
		{Type: mustType("address")},
		{Type: mustType("uint256")},
		{Type: mustType("uint256")},
		{Type: mustType("bytes")},
	}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Optimism proves a bedrock withdrawal against the output proposed to the
// L2OutputOracle on the hub.
type Optimism struct {
	spoke  ChainReader
	proofs ProofReader
	hub    ChainReader
	oracle common.Address
}

func NewOptimism(spoke ChainReader, proofs ProofReader, hub ChainReader, oracle common.Address) *Optimism {
	return &Optimism{
		spoke:  spoke,
		proofs: proofs,
		hub:    hub,
		oracle: oracle,
	}
}

func (o *Optimism) BuildArgs(ctx context.Context, msg *chain.RootMessage) ([]interface{}, error) {
	r, err := receipt(ctx, o.spoke, msg.TransactionHash)
	if err != nil {
		return nil, err
	}

	l, err := findLog(r, contracts.OptimismMessagePasser, messagePasserABI.Events["MessagePassed"])
	if err != nil {
		return nil, err
	}

	withdrawal, withdrawalHash, err := decodeWithdrawal(l)
	if err != nil {
		return nil, err
	}

	values, err := call(ctx, o.hub, o.oracle, outputOracleABI, "getL2OutputIndexAfter", r.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: find output after block %d: %v", ErrNotProvable, r.BlockNumber, err)
	}
	outputIndex := values[0].(*big.Int)

	values, err = call(ctx, o.hub, o.oracle, outputOracleABI, "getL2Output", outputIndex)
	if err != nil {
		return nil, err
	}
	proposal := *abi.ConvertType(values[0], new(contracts.OutputProposal)).(*contracts.OutputProposal)

	slot := keccak.Sum(withdrawalHash.Bytes(), make([]byte, 32))
	account, err := o.proofs.GetProof(ctx, contracts.OptimismMessagePasser, []string{slot.Hex()}, proposal.L2BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch withdrawal storage proof: %w", err)
	}
	if len(account.StorageProof) != 1 {
		return nil, fmt.Errorf("expected 1 storage proof, got %d", len(account.StorageProof))
	}

	header, err := o.spoke.HeaderByNumber(ctx, proposal.L2BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch l2 block %d: %w", proposal.L2BlockNumber, err)
	}

	outputRootProof := contracts.OutputRootProof{
		StateRoot:                header.Root,
		MessagePasserStorageRoot: account.StorageHash,
		LatestBlockhash:          header.Hash(),
	}
	if outputRoot(outputRootProof) != proposal.OutputRoot {
		return nil, fmt.Errorf("%w: output %d", ErrProofMismatch, outputIndex)
	}

	withdrawalProof := make([][]byte, len(account.StorageProof[0].Proof))
	for i, node := range account.StorageProof[0].Proof {
		withdrawalProof[i], err = hexutil.Decode(node)
		if err != nil {
			return nil, fmt.Errorf("decode storage proof node %d: %w", i, err)
		}
	}

	log.WithFields(log.Fields{
		"withdrawalHash": withdrawalHash.Hex(),
		"outputIndex":    outputIndex,
		"l2BlockNumber":  proposal.L2BlockNumber,
	}).Debug("Built optimism withdrawal proof")

	return []interface{}{withdrawal, outputIndex, outputRootProof, withdrawalProof}, nil
}

func decodeWithdrawal(l *types.Log) (contracts.WithdrawalTransaction, common.Hash, error) {
	if len(l.Topics) != 4 {
		return contracts.WithdrawalTransaction{}, common.Hash{}, fmt.Errorf("MessagePassed log has %d topics", len(l.Topics))
	}

	values, err := messagePasserABI.Events["MessagePassed"].Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return contracts.WithdrawalTransaction{}, common.Hash{}, fmt.Errorf("unpack MessagePassed: %w", err)
	}

	withdrawal := contracts.WithdrawalTransaction{
		Nonce:    new(big.Int).SetBytes(l.Topics[1].Bytes()),
		Sender:   common.BytesToAddress(l.Topics[2].Bytes()),
		Target:   common.BytesToAddress(l.Topics[3].Bytes()),
		Value:    values[0].(*big.Int),
		GasLimit: values[1].(*big.Int),
		Data:     values[2].([]byte),
	}
	logged := common.Hash(values[3].([32]byte))

	computed, err := hashWithdrawal(withdrawal)
	if err != nil {
		return contracts.WithdrawalTransaction{}, common.Hash{}, err
	}
	if computed != logged {
		return contracts.WithdrawalTransaction{}, common.Hash{}, fmt.Errorf("%w: withdrawal hash %s, logged %s", ErrProofMismatch, computed.Hex(), logged.Hex())
	}

	return withdrawal, computed, nil
}

func hashWithdrawal(w contracts.WithdrawalTransaction) (common.Hash, error) {
	encoded, err := withdrawalArgs.Pack(w.Nonce, w.Sender, w.Target, w.Value, w.GasLimit, w.Data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode withdrawal: %w", err)
	}
	return keccak.Sum(encoded), nil
}

func outputRoot(p contracts.OutputRootProof) [32]byte {
	return keccak.Sum(p.Version[:], p.StateRoot[:], p.MessagePasserStorageRoot[:], p.LatestBlockhash[:])
}
