package processfromroot

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/snowfork/root-relayer/config"
	"github.com/snowfork/root-relayer/contracts"
	"github.com/snowfork/root-relayer/directory"
	"github.com/snowfork/root-relayer/store"
	"github.com/snowfork/root-relayer/tracing"
	"github.com/snowfork/root-relayer/transport"
)

const (
	DefaultSchedule       = "@every 1m"
	DefaultMessageTimeout = 2 * time.Minute

	ModeGelato           = "gelato"
	ModeDirect           = "direct"
	ModeGelatoWithBackup = "gelato-with-backup"
)

type Config struct {
	Schedule       string           `mapstructure:"schedule"`
	Concurrency    int              `mapstructure:"concurrency" validate:"gte=0"`
	MessageTimeout time.Duration    `mapstructure:"message-timeout" validate:"gte=0"`
	Store          store.Config     `mapstructure:"store"`
	Directory      directory.Config `mapstructure:"directory"`
	Hub            HubConfig        `mapstructure:"hub"`
	Spokes         []SpokeConfig    `mapstructure:"spokes" validate:"required,min=1,dive"`
	Relayer        RelayerConfig    `mapstructure:"relayer"`
	Status         StatusConfig     `mapstructure:"status"`
	Tracing        tracing.Config   `mapstructure:"tracing"`
}

type HubConfig struct {
	// L1 connection. Needed for proofs checked against hub contracts and for
	// direct submission.
	Ethereum *config.EthereumConfig `mapstructure:"ethereum" validate:"omitempty"`
}

type SpokeConfig struct {
	Domain    uint32                 `mapstructure:"domain" validate:"required"`
	Connector string                 `mapstructure:"connector" validate:"required"`
	Ethereum  *config.EthereumConfig `mapstructure:"ethereum" validate:"omitempty"`
	Contracts SpokeContractsConfig   `mapstructure:"contracts"`
	// Polygon proof generator.
	ProofAPI     string        `mapstructure:"proof-api" validate:"omitempty,url"`
	ProofTimeout time.Duration `mapstructure:"proof-timeout"`
	// Arbitrum NodeConfirmed search window in hub blocks.
	Lookback uint64 `mapstructure:"lookback"`
}

// SpokeContractsConfig holds hub side contracts of the spoke's rollup.
type SpokeContractsConfig struct {
	L2OutputOracle common.Address `mapstructure:"L2OutputOracle"`
	Rollup         common.Address `mapstructure:"Rollup"`
}

type RelayerConfig struct {
	Mode   string                 `mapstructure:"mode" validate:"omitempty,oneof=gelato direct gelato-with-backup"`
	Gelato transport.GelatoConfig `mapstructure:"gelato"`
}

type StatusConfig struct {
	// Listen address of the status server. Disabled when empty.
	Address string `mapstructure:"address"`
}

func (c *Config) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MessageTimeout == 0 {
		c.MessageTimeout = DefaultMessageTimeout
	}
	if c.Relayer.Mode == "" {
		c.Relayer.Mode = ModeGelatoWithBackup
	}
}

func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	needsHub := c.Relayer.Mode == ModeDirect || c.Relayer.Mode == ModeGelatoWithBackup
	seen := make(map[uint32]bool, len(c.Spokes))
	for _, spoke := range c.Spokes {
		if seen[spoke.Domain] {
			return fmt.Errorf("spoke domain %d configured twice", spoke.Domain)
		}
		seen[spoke.Domain] = true

		family, err := contracts.ParseConnectorFamily(spoke.Connector)
		if err != nil {
			return fmt.Errorf("spoke %d: %w", spoke.Domain, err)
		}

		switch family {
		case contracts.Optimism:
			if spoke.Contracts.L2OutputOracle == (common.Address{}) {
				return fmt.Errorf("spoke %d: optimism requires contracts.L2OutputOracle", spoke.Domain)
			}
			needsHub = true
		case contracts.Arbitrum:
			if spoke.Contracts.Rollup == (common.Address{}) {
				return fmt.Errorf("spoke %d: arbitrum requires contracts.Rollup", spoke.Domain)
			}
			needsHub = true
		}

		switch family {
		case contracts.Optimism, contracts.Arbitrum, contracts.ZkSync:
			if spoke.Ethereum == nil {
				return fmt.Errorf("spoke %d: %s requires an ethereum endpoint", spoke.Domain, family)
			}
		}
	}

	if needsHub && c.Hub.Ethereum == nil {
		return fmt.Errorf("hub ethereum endpoint is required")
	}

	return nil
}

// LoadConfig reads, defaults and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(config.DecodeHook()))
	if err != nil {
		return nil, err
	}
	c.SetDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
