package processfromroot

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/snowfork/root-relayer/chain"
	"github.com/snowfork/root-relayer/contracts"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, req *chain.RelayRequest) (chain.RelayAcknowledgment, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(chain.RelayAcknowledgment), args.Error(1)
}

// fakeDirectory places every hub connector on chain 1.
type fakeDirectory struct {
	mu      sync.Mutex
	targets map[contracts.ConnectorFamily]common.Address
	calls   int
}

func (d *fakeDirectory) ResolveDestination(_ context.Context, domain uint32, family contracts.ConnectorFamily) (uint64, common.Address, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	target, ok := d.targets[family]
	if !ok {
		return 0, common.Address{}, fmt.Errorf("%s not deployed on domain %d", family.HubConnectorName(), domain)
	}
	return 1, target, nil
}

type staticStore struct {
	messages []chain.RootMessage
	err      error
}

func (s *staticStore) ListPending(context.Context) ([]chain.RootMessage, error) {
	return s.messages, s.err
}

// countingBuilder records calls and returns fixed args.
type countingBuilder struct {
	mu    sync.Mutex
	args  []interface{}
	err   error
	calls int
}

func (b *countingBuilder) BuildArgs(context.Context, *chain.RootMessage) ([]interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.args, b.err
}

// blockingBuilder waits for the context to end.
var blockingBuilder = ArgBuilderFunc(func(ctx context.Context, _ *chain.RootMessage) ([]interface{}, error) {
	<-ctx.Done()
	return nil, ctx.Err()
})

var (
	gnosisHub  = common.HexToAddress("0x245F757d660C3ec9d9CA0d5C9C2e6E1a3f5C2F4e")
	polygonHub = common.HexToAddress("0xd151C9ef49cE2d30B829a98A07767E3280F70961")
)

const (
	domainA uint32 = 6778479
	domainB uint32 = 1886350457
	hub     uint32 = 6648936
)

func newDirectory() *fakeDirectory {
	return &fakeDirectory{targets: map[contracts.ConnectorFamily]common.Address{
		contracts.Gnosis:  gnosisHub,
		contracts.Polygon: polygonHub,
	}}
}
