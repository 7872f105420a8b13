// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package secp256k1

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeypairFromSeed(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	assert.NotEmpty(t, kp.PublicKey())
	assert.NotEmpty(t, kp.Address())
}

func TestEncodeAndDecodeKeypair(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	enc := kp.Encode()
	res := new(Keypair)
	require.NoError(t, res.Decode(enc))

	assert.Equal(t, kp.CommonAddress(), res.CommonAddress())
	assert.Equal(t, kp.PublicKey(), res.PublicKey())
}

func TestKeyringIsDeterministic(t *testing.T) {
	assert.Equal(t, Alice().CommonAddress(), Alice().CommonAddress())
	assert.NotEqual(t, Alice().CommonAddress(), Bob().CommonAddress())
}

func TestSignTxRecoversSender(t *testing.T) {
	kp := Alice()
	chainID := big.NewInt(1)
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Data:      []byte{0xde, 0xad},
	})

	signed, err := kp.SignTx(tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, kp.CommonAddress(), sender)
}

func TestSignerRejectsOtherAccounts(t *testing.T) {
	signer := Alice().Signer(big.NewInt(1))
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := types.NewTx(&types.LegacyTx{Nonce: 0, Gas: 21000, To: &to, GasPrice: big.NewInt(1)})

	_, err := signer(Bob().CommonAddress(), tx)
	assert.Error(t, err)
}
