package run

import (
	"github.com/snowfork/root-relayer/cmd/run/processfromroot"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a relay service",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(processfromroot.Command())

	return cmd
}
