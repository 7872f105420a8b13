package processfromroot

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/snowfork/root-relayer/chain/ethereum"
	"github.com/snowfork/root-relayer/contracts"
	"github.com/snowfork/root-relayer/crypto/secp256k1"
	"github.com/snowfork/root-relayer/directory"
	"github.com/snowfork/root-relayer/relays/processfromroot/connectors"
	"github.com/snowfork/root-relayer/store"
	"github.com/snowfork/root-relayer/tracing"
	"github.com/snowfork/root-relayer/transport"

	log "github.com/sirupsen/logrus"
)

type Relay struct {
	config   *Config
	keypair  *secp256k1.Keypair
	apiKey   string
	hubconn  *ethereum.Connection
	spokes   []*ethereum.Connection
	store    *store.Store
	registry *Registry
	gatherer *prometheus.Registry
	shutdown tracing.ShutdownFunc
}

// NewRelay returns a relay that signs backup transactions with keypair. The
// keypair may be nil when the relayer mode is gelato.
func NewRelay(config *Config, keypair *secp256k1.Keypair, apiKey string) *Relay {
	return &Relay{
		config:  config,
		keypair: keypair,
		apiKey:  apiKey,
	}
}

// Setup connects every collaborator and assembles the coordinator.
func (r *Relay) Setup(ctx context.Context) (*Coordinator, error) {
	shutdown, err := tracing.Setup(ctx, r.config.Tracing)
	if err != nil {
		return nil, err
	}
	r.shutdown = shutdown

	if r.config.Hub.Ethereum != nil {
		r.hubconn = ethereum.NewConnection(r.config.Hub.Ethereum, r.keypair)
		err = r.hubconn.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect hub: %w", err)
		}
	}

	registry := NewRegistry()
	for _, spoke := range r.config.Spokes {
		family, err := contracts.ParseConnectorFamily(spoke.Connector)
		if err != nil {
			return nil, err
		}

		args, err := r.argBuilder(ctx, family, spoke)
		if err != nil {
			return nil, fmt.Errorf("spoke %d: %w", spoke.Domain, err)
		}

		err = registry.Register(spoke.Domain, Strategy{Family: family, Args: args})
		if err != nil {
			return nil, err
		}
	}
	r.registry = registry

	submitter, err := r.submitter()
	if err != nil {
		return nil, err
	}

	dir, err := directory.Load(r.config.Directory)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(r.config.Store)
	if err != nil {
		return nil, err
	}
	r.store = st
	if r.config.Store.Driver == store.DriverSqlite {
		err = st.EnsureSchema(ctx)
		if err != nil {
			return nil, err
		}
	}

	r.gatherer = prometheus.NewRegistry()
	r.gatherer.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := NewMetrics(r.gatherer)
	st.Instrument(r.gatherer)

	processor := NewProcessor(registry, dir, submitter, r.apiKey, metrics)

	log.WithFields(log.Fields{
		"domains":     registry.Domains(),
		"mode":        r.config.Relayer.Mode,
		"concurrency": r.config.Concurrency,
	}).Info("Root relay configured")

	return NewCoordinator(st, processor, r.config.Concurrency, r.config.MessageTimeout, metrics), nil
}

// Start runs a batch immediately and then on every tick of the configured
// schedule. A tick is skipped while the previous batch is still running.
func (r *Relay) Start(ctx context.Context, eg *errgroup.Group) error {
	coordinator, err := r.Setup(ctx)
	if err != nil {
		return err
	}

	logger := cron.VerbosePrintfLogger(log.StandardLogger())
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	id, err := scheduler.AddFunc(r.config.Schedule, func() {
		r.runBatch(ctx, coordinator)
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", r.config.Schedule, err)
	}

	eg.Go(func() error {
		scheduler.Entry(id).WrappedJob.Run()
		scheduler.Start()

		<-ctx.Done()
		<-scheduler.Stop().Done()
		r.Close()
		return nil
	})

	if r.config.Status.Address != "" {
		status := NewStatusServer(r.config.Status.Address, coordinator, r.registry, r.store, r.gatherer)
		eg.Go(func() error {
			return status.Run(ctx)
		})
	}

	return nil
}

func (r *Relay) runBatch(ctx context.Context, coordinator *Coordinator) {
	if ctx.Err() != nil {
		return
	}

	result, err := coordinator.ProcessPending(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to process pending root messages")
		return
	}

	summary := result.Summary()
	log.WithFields(log.Fields{
		"runID":        summary.RunID,
		"total":        summary.Total,
		"acknowledged": summary.Acknowledged,
		"failed":       summary.Failed,
	}).Info("Processed pending root messages")
}

func (r *Relay) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}
	for _, conn := range r.spokes {
		conn.Close()
	}
	if r.hubconn != nil {
		r.hubconn.Close()
	}
	if r.shutdown != nil {
		if err := r.shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to flush traces")
		}
	}
}

func (r *Relay) argBuilder(ctx context.Context, family contracts.ConnectorFamily, spoke SpokeConfig) (ArgBuilder, error) {
	switch family {
	case contracts.Gnosis:
		return NoArgs, nil
	case contracts.Polygon:
		return connectors.NewPolygon(spoke.ProofAPI, spoke.ProofTimeout), nil
	}

	conn := ethereum.NewConnection(spoke.Ethereum, nil)
	err := conn.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect spoke: %w", err)
	}
	r.spokes = append(r.spokes, conn)

	switch family {
	case contracts.Optimism:
		return connectors.NewOptimism(conn.Client(), conn.Geth(), r.hubconn.Client(), spoke.Contracts.L2OutputOracle), nil
	case contracts.Arbitrum:
		return connectors.NewArbitrum(conn.Client(), r.hubconn.Client(), spoke.Contracts.Rollup, spoke.Lookback), nil
	case contracts.ZkSync:
		return connectors.NewZkSync(conn.RPC()), nil
	}

	return nil, fmt.Errorf("no argument builder for %s", family)
}

func (r *Relay) submitter() (Submitter, error) {
	mode := r.config.Relayer.Mode
	if mode == ModeGelato {
		return transport.NewGelato(r.config.Relayer.Gelato), nil
	}

	if r.keypair == nil {
		return nil, fmt.Errorf("relayer mode %s requires an ethereum private key", mode)
	}
	direct := transport.NewDirect()
	direct.AddConnection(r.hubconn)

	if mode == ModeDirect {
		return direct, nil
	}
	return transport.NewFallback(transport.NewGelato(r.config.Relayer.Gelato), direct), nil
}
