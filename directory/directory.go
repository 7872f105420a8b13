// Package directory resolves where a hub connector is deployed.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"

	"github.com/snowfork/root-relayer/contracts"
)

var ErrUnresolvedDestination = errors.New("unresolved destination")

const EnvironmentStaging = "staging"

type Config struct {
	Environment string        `mapstructure:"environment" validate:"omitempty,oneof=production staging"`
	Deployments string        `mapstructure:"deployments" validate:"required"`
	Domains     []DomainChain `mapstructure:"domains" validate:"required,min=1,dive"`
}

// DomainChain maps a messaging domain to the chain it lives on.
type DomainChain struct {
	Domain  uint32 `mapstructure:"domain" validate:"required"`
	ChainID uint64 `mapstructure:"chain-id" validate:"required"`
}

// Directory reads a hardhat-deploy export, which lists per chain id the
// networks deployed there and their contracts:
//
//	{"1": [{"name": "mainnet", "chainId": "1", "contracts": {"OptimismHubConnector": {"address": "0x..."}}}]}
type Directory struct {
	chains      map[uint32]uint64
	deployments []byte
	staging     bool
}

func New(domains []DomainChain, deployments []byte, environment string) (*Directory, error) {
	if !gjson.ValidBytes(deployments) {
		return nil, fmt.Errorf("deployments are not valid json")
	}

	chains := make(map[uint32]uint64, len(domains))
	for _, d := range domains {
		if existing, ok := chains[d.Domain]; ok && existing != d.ChainID {
			return nil, fmt.Errorf("domain %d mapped to chains %d and %d", d.Domain, existing, d.ChainID)
		}
		chains[d.Domain] = d.ChainID
	}

	return &Directory{
		chains:      chains,
		deployments: deployments,
		staging:     environment == EnvironmentStaging,
	}, nil
}

func Load(config Config) (*Directory, error) {
	data, err := os.ReadFile(config.Deployments)
	if err != nil {
		return nil, fmt.Errorf("read deployments: %w", err)
	}
	return New(config.Domains, data, config.Environment)
}

// DeploymentName is the name the family's hub connector is exported under.
func (d *Directory) DeploymentName(family contracts.ConnectorFamily) string {
	name := family.HubConnectorName()
	if d.staging {
		name += "Staging"
	}
	return name
}

func (d *Directory) ResolveDestination(_ context.Context, domain uint32, family contracts.ConnectorFamily) (uint64, common.Address, error) {
	chainID, ok := d.chains[domain]
	if !ok {
		return 0, common.Address{}, fmt.Errorf("%w: no chain id for domain %d", ErrUnresolvedDestination, domain)
	}

	name := d.DeploymentName(family)
	path := fmt.Sprintf("%d.#.contracts.%s.address", chainID, name)

	for _, result := range gjson.GetBytes(d.deployments, path).Array() {
		address := result.String()
		if address == "" {
			continue
		}
		if !common.IsHexAddress(address) {
			return 0, common.Address{}, fmt.Errorf("%w: %s on chain %d has invalid address %q", ErrUnresolvedDestination, name, chainID, address)
		}
		return chainID, common.HexToAddress(address), nil
	}

	return 0, common.Address{}, fmt.Errorf("%w: %s not deployed on chain %d", ErrUnresolvedDestination, name, chainID)
}
