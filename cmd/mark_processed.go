package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snowfork/root-relayer/relays/processfromroot"
	"github.com/snowfork/root-relayer/store"

	log "github.com/sirupsen/logrus"
)

func markProcessedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mark-processed [message-id...]",
		Short:   "Mark root messages as processed in the message store",
		Args:    cobra.MinimumNArgs(1),
		Example: "root-relay mark-processed --config root-relay.yaml 0x6b2c...",
		RunE:    markProcessedFunc,
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to configuration file")
	cmd.MarkFlagRequired("config")

	return cmd
}

func markProcessedFunc(_ *cobra.Command, ids []string) error {
	config, err := processfromroot.LoadConfig(configFile)
	if err != nil {
		return err
	}

	st, err := store.Open(config.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	updated, err := st.MarkProcessed(context.Background(), ids...)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"requested": len(ids),
		"updated":   updated,
	}).Info("Marked root messages processed")

	if updated != int64(len(ids)) {
		return fmt.Errorf("only %d of %d messages were pending", updated, len(ids))
	}
	return nil
}
