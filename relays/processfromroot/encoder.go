package processfromroot

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
)

type variant struct {
	method abi.Method
	// leading derives the arguments that come from the message itself. They
	// precede the builder's extra arguments.
	leading func(msg *chain.RootMessage) []interface{}
}

func noLeading(*chain.RootMessage) []interface{} { return nil }

func newVariant(definition, name string, leading func(msg *chain.RootMessage) []interface{}) variant {
	method, ok := contracts.MustParseABI(definition).Methods[name]
	if !ok {
		panic(fmt.Sprintf("abi has no method %s", name))
	}
	return variant{method: method, leading: leading}
}

var variants = map[contracts.ConnectorFamily]variant{
	contracts.Optimism: newVariant(contracts.OptimismHubConnectorABI, "processMessageFromRoot", noLeading),
	contracts.Arbitrum: newVariant(contracts.ArbitrumHubConnectorABI, "processMessageFromRoot", noLeading),
	contracts.Polygon:  newVariant(contracts.PolygonHubConnectorABI, "receiveMessage", noLeading),
	contracts.ZkSync:   newVariant(contracts.ZkSyncHubConnectorABI, "processMessageFromRoot", noLeading),
	contracts.Gnosis: newVariant(contracts.GnosisHubConnectorABI, "processMessageFromRoot", func(msg *chain.RootMessage) []interface{} {
		return []interface{}{[32]byte(msg.Root)}
	}),
}

// Supports reports whether family has an encoder variant.
func Supports(family contracts.ConnectorFamily) bool {
	_, ok := variants[family]
	return ok
}

// ExtraArity is the number of builder arguments the family's call expects.
func ExtraArity(family contracts.ConnectorFamily) (int, bool) {
	v, ok := variants[family]
	if !ok {
		return 0, false
	}
	return len(v.method.Inputs) - len(v.leading(&chain.RootMessage{})), true
}

// Encode builds the hub connector calldata: selector followed by the ABI
// encoded arguments. It performs no I/O.
func Encode(family contracts.ConnectorFamily, msg *chain.RootMessage, extra []interface{}) (data []byte, err error) {
	v, ok := variants[family]
	if !ok {
		return nil, &Error{Kind: KindEncoding, Err: fmt.Errorf("no encoder for connector family %q", family)}
	}

	leading := v.leading(msg)
	if len(leading)+len(extra) != len(v.method.Inputs) {
		return nil, &Error{
			Kind: KindEncoding,
			Err: fmt.Errorf("%s %s expects %d extra args, got %d",
				family, v.method.Name, len(v.method.Inputs)-len(leading), len(extra)),
		}
	}

	args := make([]interface{}, 0, len(v.method.Inputs))
	args = append(args, leading...)
	args = append(args, extra...)

	// The abi packer panics on some malformed values (nil big.Int).
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &Error{Kind: KindEncoding, Err: fmt.Errorf("pack %s %s: %v", family, v.method.Name, r)}
		}
	}()

	packed, err := v.method.Inputs.Pack(args...)
	if err != nil {
		return nil, &Error{Kind: KindEncoding, Err: fmt.Errorf("pack %s %s: %w", family, v.method.Name, err)}
	}

	data = make([]byte, 0, len(v.method.ID)+len(packed))
	data = append(data, v.method.ID...)
	data = append(data, packed...)

	return data, nil
}
