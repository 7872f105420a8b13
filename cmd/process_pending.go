package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	runner "github.com/snowfork/root-relayer/cmd/run/processfromroot"
	"github.com/snowfork/root-relayer/relays/processfromroot"
)

func processPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "process-pending",
		Short:   "Relay every pending root message once and print the outcomes",
		Args:    cobra.ExactArgs(0),
		Example: "root-relay process-pending --config root-relay.yaml --relayer.api-key-file gelato.key",
		RunE:    processPendingFunc,
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to configuration file")
	cmd.MarkFlagRequired("config")
	runner.AddSecretFlags(cmd)

	return cmd
}

type outcomeLine struct {
	MessageID string `json:"messageId"`
	Ack       string `json:"ack,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

func processPendingFunc(_ *cobra.Command, _ []string) error {
	config, err := processfromroot.LoadConfig(configFile)
	if err != nil {
		return err
	}

	keypair, key, err := runner.ResolveSecrets()
	if err != nil {
		return err
	}

	relay := processfromroot.NewRelay(config, keypair, key)
	defer relay.Close()

	ctx := context.Background()
	coordinator, err := relay.Setup(ctx)
	if err != nil {
		return err
	}

	result, err := coordinator.ProcessPending(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, o := range result.Outcomes {
		line := outcomeLine{MessageID: o.MessageID, Ack: string(o.Ack)}
		if !o.OK() {
			line.Kind = processfromroot.KindOf(o.Err).Label()
			line.Error = o.Err.Error()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	if failed := len(result.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d root messages failed", failed, len(result.Outcomes))
	}
	return nil
}
