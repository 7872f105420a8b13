package processfromroot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
)

var ErrInvalidStrategy = errors.New("invalid strategy")

// ArgBuilder produces the family-specific call arguments for a message. It may
// block on chain reads.
type ArgBuilder interface {
	BuildArgs(ctx context.Context, msg *chain.RootMessage) ([]interface{}, error)
}

type ArgBuilderFunc func(ctx context.Context, msg *chain.RootMessage) ([]interface{}, error)

func (f ArgBuilderFunc) BuildArgs(ctx context.Context, msg *chain.RootMessage) ([]interface{}, error) {
	return f(ctx, msg)
}

// NoArgs is the builder for families whose call needs nothing beyond the message.
var NoArgs = ArgBuilderFunc(func(context.Context, *chain.RootMessage) ([]interface{}, error) {
	return nil, nil
})

type Strategy struct {
	Family contracts.ConnectorFamily
	Args   ArgBuilder
}

// Registry maps origin domains to their strategy. It is filled at startup and
// only read while relaying.
type Registry struct {
	mu         sync.RWMutex
	strategies map[uint32]Strategy
}

func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[uint32]Strategy),
	}
}

func (r *Registry) Register(domain uint32, strategy Strategy) error {
	if strategy.Family == "" {
		return fmt.Errorf("%w: domain %d has no connector family", ErrInvalidStrategy, domain)
	}
	if strategy.Args == nil {
		return fmt.Errorf("%w: domain %d has no argument builder", ErrInvalidStrategy, domain)
	}
	if !Supports(strategy.Family) {
		return fmt.Errorf("%w: domain %d uses unsupported connector family %q", ErrInvalidStrategy, domain, strategy.Family)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.strategies[domain]; ok {
		return fmt.Errorf("%w: domain %d already registered with %s", ErrInvalidStrategy, domain, existing.Family)
	}
	r.strategies[domain] = strategy

	return nil
}

func (r *Registry) Resolve(domain uint32) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, ok := r.strategies[domain]
	if !ok {
		return Strategy{}, &Error{
			Kind: KindUnknownDomain,
			Err:  fmt.Errorf("no strategy registered for domain %d", domain),
		}
	}

	return strategy, nil
}

// Domains returns the registered origin domains in ascending order.
func (r *Registry) Domains() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domains := make([]uint32, 0, len(r.strategies))
	for domain := range r.strategies {
		domains = append(domains, domain)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })

	return domains
}
