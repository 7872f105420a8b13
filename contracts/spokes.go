package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Predeployed system contracts on the spoke chains.
var (
	OptimismMessagePasser = common.HexToAddress("0x4200000000000000000000000000000000000016")
	ArbSys                = common.HexToAddress("0x0000000000000000000000000000000000000064")
	ArbNodeInterface      = common.HexToAddress("0x00000000000000000000000000000000000000C8")
	ZkSyncL1Messenger     = common.HexToAddress("0x0000000000000000000000000000000000008008")
)

const L2ToL1MessagePasserABI = `[{"type":"event","name":"MessagePassed","anonymous":false,"inputs":[` +
	`{"name":"nonce","type":"uint256","indexed":true},{"name":"sender","type":"address","indexed":true},` +
	`{"name":"target","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false},` +
	`{"name":"gasLimit","type":"uint256","indexed":false},{"name":"data","type":"bytes","indexed":false},` +
	`{"name":"withdrawalHash","type":"bytes32","indexed":false}]}]`

const L2OutputOracleABI = `[` +
	`{"type":"function","name":"getL2OutputIndexAfter","stateMutability":"view","inputs":[{"name":"_l2BlockNumber","type":"uint256"}],` +
	`"outputs":[{"name":"","type":"uint256"}]},` +
	`{"type":"function","name":"getL2Output","stateMutability":"view","inputs":[{"name":"_l2OutputIndex","type":"uint256"}],` +
	`"outputs":[{"name":"","type":"tuple","internalType":"struct Types.OutputProposal","components":[` +
	`{"name":"outputRoot","type":"bytes32"},{"name":"timestamp","type":"uint128"},{"name":"l2BlockNumber","type":"uint128"}]}]}]`

const ArbSysABI = `[{"type":"event","name":"L2ToL1Tx","anonymous":false,"inputs":[` +
	`{"name":"caller","type":"address","indexed":false},{"name":"destination","type":"address","indexed":true},` +
	`{"name":"hash","type":"uint256","indexed":true},{"name":"position","type":"uint256","indexed":true},` +
	`{"name":"arbBlockNum","type":"uint256","indexed":false},{"name":"ethBlockNum","type":"uint256","indexed":false},` +
	`{"name":"timestamp","type":"uint256","indexed":false},{"name":"callvalue","type":"uint256","indexed":false},` +
	`{"name":"data","type":"bytes","indexed":false}]}]`

const ArbNodeInterfaceABI = `[{"type":"function","name":"constructOutboxProof","stateMutability":"view",` +
	`"inputs":[{"name":"size","type":"uint64"},{"name":"leaf","type":"uint64"}],` +
	`"outputs":[{"name":"send","type":"bytes32"},{"name":"root","type":"bytes32"},{"name":"proof","type":"bytes32[]"}]}]`

const ArbRollupABI = `[` +
	`{"type":"function","name":"latestConfirmed","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},` +
	`{"type":"event","name":"NodeConfirmed","anonymous":false,"inputs":[` +
	`{"name":"nodeNum","type":"uint64","indexed":true},{"name":"blockHash","type":"bytes32","indexed":false},` +
	`{"name":"sendRoot","type":"bytes32","indexed":false}]}]`

const ZkSyncL1MessengerABI = `[{"type":"event","name":"L1MessageSent","anonymous":false,"inputs":[` +
	`{"name":"_sender","type":"address","indexed":true},{"name":"_hash","type":"bytes32","indexed":true},` +
	`{"name":"_message","type":"bytes","indexed":false}]}]`

const PolygonSpokeConnectorABI = `[{"type":"event","name":"MessageSent","anonymous":false,"inputs":[` +
	`{"name":"message","type":"bytes","indexed":false}]}]`

// OutputProposal mirrors Types.OutputProposal.
type OutputProposal struct {
	OutputRoot    [32]byte
	Timestamp     *big.Int
	L2BlockNumber *big.Int
}
