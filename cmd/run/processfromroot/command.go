package processfromroot

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/snowfork/root-relayer/chain/ethereum"
	"github.com/snowfork/root-relayer/crypto/secp256k1"
	"github.com/snowfork/root-relayer/relays/processfromroot"
)

var (
	configFile     string
	privateKey     string
	privateKeyFile string
	apiKey         string
	apiKeyFile     string
	logLevel       string
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-from-root",
		Short: "Start the process-from-root relay",
		Args:  cobra.ExactArgs(0),
		RunE:  run,
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to configuration file")
	cmd.MarkFlagRequired("config")

	AddSecretFlags(cmd)
	cmd.Flags().StringVar(&logLevel, "log-level", "debug", "Log level")

	return cmd
}

// AddSecretFlags registers the key and relay credential flags shared by the
// commands that submit messages.
func AddSecretFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&privateKey, "ethereum.private-key", "", "Ethereum private key used for backup transactions")
	cmd.Flags().StringVar(&privateKeyFile, "ethereum.private-key-file", "", "The file from which to read the private key")
	cmd.Flags().StringVar(&apiKey, "relayer.api-key", "", "Sponsored relay API key")
	cmd.Flags().StringVar(&apiKeyFile, "relayer.api-key-file", "", "The file from which to read the relay API key")
}

// ResolveSecrets returns the signing key, nil when none was supplied, and the
// relay API key.
func ResolveSecrets() (*secp256k1.Keypair, string, error) {
	var keypair *secp256k1.Keypair
	if privateKey != "" || privateKeyFile != "" {
		kp, err := ethereum.ResolvePrivateKey(privateKey, privateKeyFile)
		if err != nil {
			return nil, "", err
		}
		keypair = kp
	}

	key, err := ethereum.ResolveSecret(apiKey, apiKeyFile)
	if err != nil {
		return nil, "", err
	}

	return keypair, key, nil
}

func run(_ *cobra.Command, _ []string) error {
	log.SetOutput(logrus.WithFields(logrus.Fields{"logger": "stdlib"}).WriterLevel(logrus.InfoLevel))
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	logrus.Info("Process-from-root relayer started up")

	config, err := processfromroot.LoadConfig(configFile)
	if err != nil {
		return err
	}

	keypair, key, err := ResolveSecrets()
	if err != nil {
		return err
	}

	relay := processfromroot.NewRelay(config, keypair, key)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	// Ensure clean termination upon SIGINT, SIGTERM
	eg.Go(func() error {
		notify := make(chan os.Signal, 1)
		signal.Notify(notify, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-notify:
			logrus.WithField("signal", sig.String()).Info("Received signal")
			cancel()
		}

		return nil
	})

	err = relay.Start(ctx, eg)
	if err != nil {
		logrus.WithError(err).Fatal("Unhandled error")
		cancel()
		return err
	}

	err = eg.Wait()
	if err != nil && err != context.Canceled {
		logrus.WithError(err).Fatal("Unhandled error")
		return err
	}

	return nil
}
