// Package contracts holds the ABI fragments of the hub connectors and of the
// spoke-side system contracts the relay reads from.
package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ConnectorFamily names a hub connector protocol variant. It selects the call
// encoding and the deployment name of the hub connector.
type ConnectorFamily string

const (
	Optimism ConnectorFamily = "Optimism"
	Arbitrum ConnectorFamily = "Arbitrum"
	Polygon  ConnectorFamily = "Polygon"
	ZkSync   ConnectorFamily = "ZkSync"
	Gnosis   ConnectorFamily = "Gnosis"
)

// Families lists every supported family.
var Families = []ConnectorFamily{Optimism, Arbitrum, Polygon, ZkSync, Gnosis}

// ParseConnectorFamily matches name case-insensitively against Families.
func ParseConnectorFamily(name string) (ConnectorFamily, error) {
	for _, f := range Families {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown connector family %q", name)
}

// HubConnectorName is the deployment name of the family's hub connector.
func (f ConnectorFamily) HubConnectorName() string {
	return string(f) + "HubConnector"
}

const OptimismHubConnectorABI = `[{"type":"function","name":"processMessageFromRoot","stateMutability":"nonpayable","outputs":[],"inputs":[` +
	`{"name":"_tx","type":"tuple","internalType":"struct Types.WithdrawalTransaction","components":[` +
	`{"name":"nonce","type":"uint256"},{"name":"sender","type":"address"},{"name":"target","type":"address"},` +
	`{"name":"value","type":"uint256"},{"name":"gasLimit","type":"uint256"},{"name":"data","type":"bytes"}]},` +
	`{"name":"_l2OutputIndex","type":"uint256"},` +
	`{"name":"_outputRootProof","type":"tuple","internalType":"struct Types.OutputRootProof","components":[` +
	`{"name":"version","type":"bytes32"},{"name":"stateRoot","type":"bytes32"},` +
	`{"name":"messagePasserStorageRoot","type":"bytes32"},{"name":"latestBlockhash","type":"bytes32"}]},` +
	`{"name":"_withdrawalProof","type":"bytes[]"}]}]`

const ArbitrumHubConnectorABI = `[{"type":"function","name":"processMessageFromRoot","stateMutability":"nonpayable","outputs":[],"inputs":[` +
	`{"name":"_nodeNum","type":"uint64"},{"name":"_sendRoot","type":"bytes32"},{"name":"_blockHash","type":"bytes32"},` +
	`{"name":"_proof","type":"bytes32[]"},{"name":"_index","type":"uint256"},` +
	`{"name":"_message","type":"tuple","internalType":"struct L2Message","components":[` +
	`{"name":"l2Sender","type":"address"},{"name":"to","type":"address"},{"name":"l2Block","type":"uint256"},` +
	`{"name":"l1Block","type":"uint256"},{"name":"l2Timestamp","type":"uint256"},{"name":"value","type":"uint256"},` +
	`{"name":"callData","type":"bytes"}]}]}]`

const PolygonHubConnectorABI = `[{"type":"function","name":"receiveMessage","stateMutability":"nonpayable","outputs":[],"inputs":[` +
	`{"name":"inputData","type":"bytes"}]}]`

const ZkSyncHubConnectorABI = `[{"type":"function","name":"processMessageFromRoot","stateMutability":"nonpayable","outputs":[],"inputs":[` +
	`{"name":"_l2BatchNumber","type":"uint256"},{"name":"_l2MessageIndex","type":"uint256"},` +
	`{"name":"_l2TxNumberInBatch","type":"uint16"},{"name":"_message","type":"bytes"},{"name":"_proof","type":"bytes32[]"}]}]`

const GnosisHubConnectorABI = `[{"type":"function","name":"processMessageFromRoot","stateMutability":"nonpayable","outputs":[],"inputs":[` +
	`{"name":"_root","type":"bytes32"}]}]`

// WithdrawalTransaction mirrors Types.WithdrawalTransaction.
type WithdrawalTransaction struct {
	Nonce    *big.Int
	Sender   common.Address
	Target   common.Address
	Value    *big.Int
	GasLimit *big.Int
	Data     []byte
}

// OutputRootProof mirrors Types.OutputRootProof.
type OutputRootProof struct {
	Version                  [32]byte
	StateRoot                [32]byte
	MessagePasserStorageRoot [32]byte
	LatestBlockhash          [32]byte
}

// L2Message mirrors the arbitrum hub connector's L2Message struct.
type L2Message struct {
	L2Sender    common.Address
	To          common.Address
	L2Block     *big.Int
	L1Block     *big.Int
	L2Timestamp *big.Int
	Value       *big.Int
	CallData    []byte
}

// MustParseABI parses a JSON ABI and panics on malformed input. Only used on
// the constants of this package.
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}
