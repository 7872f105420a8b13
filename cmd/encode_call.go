package cmd

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
	"github.com/snowfork/root-relayer/relays/processfromroot"
)

func encodeCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encode-call",
		Short:   "Print the hub connector call data for a root",
		Args:    cobra.ExactArgs(0),
		Example: "root-relay encode-call --connector polygon --root 0x27ae... --args '[\"0xf90c2b...\"]'",
		RunE:    encodeCallFunc,
	}

	cmd.Flags().String("connector", "", "Connector family")
	cmd.MarkFlagRequired("connector")

	cmd.Flags().String("root", "", "Aggregated root")
	cmd.MarkFlagRequired("root")

	cmd.Flags().String("args", "[]", "JSON array of the connector specific arguments")

	viper.BindPFlags(cmd.Flags())

	return cmd
}

func encodeCallFunc(_ *cobra.Command, _ []string) error {
	family, err := contracts.ParseConnectorFamily(viper.GetString("connector"))
	if err != nil {
		return err
	}

	root := viper.GetString("root")
	if len(common.FromHex(root)) != common.HashLength {
		return fmt.Errorf("root must be %d bytes", common.HashLength)
	}

	extra, err := parseExtraArgs(family, viper.GetString("args"))
	if err != nil {
		return err
	}

	msg := &chain.RootMessage{Root: common.HexToHash(root)}
	data, err := processfromroot.Encode(family, msg, extra)
	if err != nil {
		return err
	}

	fmt.Println(hexutil.Encode(data))
	return nil
}

// parseExtraArgs converts JSON values into the Go types the family's ABI
// expects. Only the flat argument kinds are accepted on the command line.
func parseExtraArgs(family contracts.ConnectorFamily, raw string) ([]interface{}, error) {
	var values []json.RawMessage
	err := json.Unmarshal([]byte(raw), &values)
	if err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	switch family {
	case contracts.Gnosis:
		return []interface{}{}, checkArity(values, 0)
	case contracts.Polygon:
		if err := checkArity(values, 1); err != nil {
			return nil, err
		}
		payload, err := hexArg(values[0])
		if err != nil {
			return nil, err
		}
		return []interface{}{payload}, nil
	case contracts.ZkSync:
		if err := checkArity(values, 5); err != nil {
			return nil, err
		}
		var (
			batch, index   string
			txNumber       uint16
			message        string
			proofHexValues []string
		)
		for i, target := range []interface{}{&batch, &index, &txNumber, &message, &proofHexValues} {
			if err := json.Unmarshal(values[i], target); err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
		}
		batchNumber, ok := new(big.Int).SetString(batch, 0)
		if !ok {
			return nil, fmt.Errorf("invalid batch number %q", batch)
		}
		messageIndex, ok := new(big.Int).SetString(index, 0)
		if !ok {
			return nil, fmt.Errorf("invalid message index %q", index)
		}
		proof := make([][32]byte, len(proofHexValues))
		for i, h := range proofHexValues {
			proof[i] = common.HexToHash(h)
		}
		return []interface{}{batchNumber, messageIndex, txNumber, common.FromHex(message), proof}, nil
	}

	return nil, fmt.Errorf("%s arguments cannot be given on the command line, supported: %s", family, strings.Join([]string{
		string(contracts.Gnosis), string(contracts.Polygon), string(contracts.ZkSync),
	}, ", "))
}

func checkArity(values []json.RawMessage, n int) error {
	if len(values) != n {
		return fmt.Errorf("expected %d args, got %d", n, len(values))
	}
	return nil
}

func hexArg(value json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, err
	}
	return hexutil.Decode(s)
}
