// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RootMessage is a commitment emitted on a spoke domain that still has to be
// processed by the hub connector on the destination domain.
type RootMessage struct {
	ID                string
	OriginDomain      uint32
	DestinationDomain uint32
	Root              common.Hash
	Caller            common.Address
	TransactionHash   common.Hash
	BlockNumber       uint64
	Timestamp         uint64
	// Advisory cost hints carried over from the origin event. They are handed
	// to the relay transport untouched.
	GasPrice *big.Int
	GasLimit *big.Int
}

// RelayRequest is a single call the relay transport should deliver.
type RelayRequest struct {
	ChainID    uint64
	Target     common.Address
	Data       []byte
	GasLimit   *big.Int
	GasPrice   *big.Int
	Credential string
}

// RelayAcknowledgment identifies an accepted submission (a relay task ID or a
// transaction hash). It does not imply execution on the destination.
type RelayAcknowledgment string
