// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/snowfork/root-relayer/config"
	"github.com/snowfork/root-relayer/crypto/secp256k1"

	log "github.com/sirupsen/logrus"
)

type Connection struct {
	endpoint string
	kp       *secp256k1.Keypair
	rpc      *rpc.Client
	client   *ethclient.Client
	geth     *gethclient.Client
	chainID  *big.Int
	config   *config.EthereumConfig
}

func NewConnection(config *config.EthereumConfig, kp *secp256k1.Keypair) *Connection {
	return &Connection{
		endpoint: config.Endpoint,
		kp:       kp,
		config:   config,
	}
}

func (co *Connection) Connect(ctx context.Context) error {
	rpcClient, err := rpc.DialContext(ctx, co.endpoint)
	if err != nil {
		return fmt.Errorf("dial %s: %w", co.endpoint, err)
	}

	client := ethclient.NewClient(rpcClient)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return fmt.Errorf("fetch chain id: %w", err)
	}

	log.WithFields(logrus.Fields{
		"endpoint": co.endpoint,
		"chainID":  chainID,
	}).Info("Connected to chain")

	co.rpc = rpcClient
	co.client = client
	co.geth = gethclient.New(rpcClient)
	co.chainID = chainID

	return nil
}

func (co *Connection) Close() {
	if co.client != nil {
		co.client.Close()
	}
}

func (co *Connection) Client() *ethclient.Client {
	return co.client
}

// Geth exposes the geth-specific RPC namespace, used for eth_getProof.
func (co *Connection) Geth() *gethclient.Client {
	return co.geth
}

// RPC exposes the raw client for chain-specific methods such as zks_*.
func (co *Connection) RPC() *rpc.Client {
	return co.rpc
}

func (co *Connection) Keypair() *secp256k1.Keypair {
	return co.kp
}

func (co *Connection) ChainID() *big.Int {
	return co.chainID
}

func (co *Connection) MakeTxOpts(ctx context.Context) *bind.TransactOpts {
	chainID := co.ChainID()
	keypair := co.Keypair()

	options := bind.TransactOpts{
		From:    keypair.CommonAddress(),
		Signer:  keypair.Signer(chainID),
		Context: ctx,
	}

	if co.config.GasFeeCap > 0 {
		fee := big.NewInt(0)
		fee.SetUint64(co.config.GasFeeCap)
		options.GasFeeCap = fee
	}

	if co.config.GasTipCap > 0 {
		tip := big.NewInt(0)
		tip.SetUint64(co.config.GasTipCap)
		options.GasTipCap = tip
	}

	if co.config.GasLimit > 0 {
		options.GasLimit = co.config.GasLimit
	}

	return &options
}
