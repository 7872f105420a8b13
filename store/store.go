// Package store reads pending root messages from the cartographer's
// root_messages table.
package store

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/snowfork/root-relayer/chain"

	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSqlite, sqlx.QUESTION)
}

type Config struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	DSN          string `mapstructure:"dsn" validate:"required"`
	Limit        int    `mapstructure:"limit" validate:"gte=0"`
	MaxOpenConns int    `mapstructure:"max-open-conns" validate:"gte=0"`
}

const Schema = `
CREATE TABLE IF NOT EXISTS root_messages (
	id TEXT PRIMARY KEY,
	spoke_domain BIGINT NOT NULL,
	hub_domain BIGINT NOT NULL,
	root TEXT NOT NULL,
	caller TEXT NOT NULL,
	transaction_hash TEXT NOT NULL,
	block_number BIGINT NOT NULL,
	timestamp BIGINT NOT NULL,
	gas_price TEXT NOT NULL DEFAULT '0',
	gas_limit TEXT NOT NULL DEFAULT '0',
	processed BOOLEAN NOT NULL DEFAULT false
)`

const columns = `id, spoke_domain, hub_domain, root, caller, transaction_hash, block_number, timestamp, gas_price, gas_limit`

const listPendingQuery = `SELECT ` + columns + ` FROM root_messages WHERE processed = false ORDER BY block_number ASC, id ASC`

type row struct {
	ID              string `db:"id"`
	SpokeDomain     int64  `db:"spoke_domain"`
	HubDomain       int64  `db:"hub_domain"`
	Root            string `db:"root"`
	Caller          string `db:"caller"`
	TransactionHash string `db:"transaction_hash"`
	BlockNumber     int64  `db:"block_number"`
	Timestamp       int64  `db:"timestamp"`
	GasPrice        string `db:"gas_price"`
	GasLimit        string `db:"gas_limit"`
}

type Store struct {
	db        *sqlx.DB
	limit     int
	malformed prometheus.Counter
}

func New(db *sqlx.DB, limit int) *Store {
	return &Store{db: db, limit: limit}
}

func Open(config Config) (*Store, error) {
	db, err := sqlx.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", config.Driver, err)
	}

	switch {
	case config.Driver == DriverSqlite:
		// Each connection to an in-memory database is a separate database.
		db.SetMaxOpenConns(1)
	case config.MaxOpenConns > 0:
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	return New(db, config.Limit), nil
}

// Instrument registers root_relay_malformed_messages_total, the count of
// pending rows ListPending could not decode.
func (s *Store) Instrument(registerer prometheus.Registerer) {
	s.malformed = promauto.With(registerer).NewCounter(prometheus.CounterOpts{
		Namespace: "root_relay",
		Name:      "malformed_messages_total",
		Help:      "Pending root messages skipped because their row could not be decoded.",
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the root_messages table for local runs. Production
// databases are migrated by the cartographer.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create root_messages table: %w", err)
	}
	return nil
}

// ListPending returns unprocessed messages, oldest first. Rows that cannot be
// decoded are skipped and counted when the store is instrumented.
func (s *Store) ListPending(ctx context.Context) ([]chain.RootMessage, error) {
	query := listPendingQuery
	var args []interface{}
	if s.limit > 0 {
		query += ` LIMIT ?`
		args = append(args, s.limit)
	}

	var rows []row
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select pending root messages: %w", err)
	}

	messages := make([]chain.RootMessage, 0, len(rows))
	for _, r := range rows {
		msg, err := r.decode()
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"messageID": r.ID,
				"alert":     true,
			}).Error("Skipping malformed root message")
			if s.malformed != nil {
				s.malformed.Inc()
			}
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkProcessed flags messages as handled so later runs skip them.
func (s *Store) MarkProcessed(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`UPDATE root_messages SET processed = true WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("mark root messages processed: %w", err)
	}

	return result.RowsAffected()
}

// Insert writes messages as pending. Used to seed local databases.
func (s *Store) Insert(ctx context.Context, messages ...chain.RootMessage) error {
	query := s.db.Rebind(`INSERT INTO root_messages (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, msg := range messages {
		_, err = tx.ExecContext(ctx, query,
			msg.ID, int64(msg.OriginDomain), int64(msg.DestinationDomain),
			msg.Root.Hex(), msg.Caller.Hex(), msg.TransactionHash.Hex(),
			int64(msg.BlockNumber), int64(msg.Timestamp),
			decimal(msg.GasPrice), decimal(msg.GasLimit),
		)
		if err != nil {
			return fmt.Errorf("insert root message %s: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (r row) decode() (chain.RootMessage, error) {
	if !validHash(r.Root) {
		return chain.RootMessage{}, fmt.Errorf("invalid root %q", r.Root)
	}
	if !common.IsHexAddress(r.Caller) {
		return chain.RootMessage{}, fmt.Errorf("invalid caller %q", r.Caller)
	}
	if !validHash(r.TransactionHash) {
		return chain.RootMessage{}, fmt.Errorf("invalid transaction hash %q", r.TransactionHash)
	}
	if r.SpokeDomain < 0 || r.SpokeDomain > int64(^uint32(0)) || r.HubDomain < 0 || r.HubDomain > int64(^uint32(0)) {
		return chain.RootMessage{}, fmt.Errorf("domain out of range")
	}

	gasPrice, ok := new(big.Int).SetString(strings.TrimSpace(r.GasPrice), 10)
	if !ok {
		return chain.RootMessage{}, fmt.Errorf("invalid gas price %q", r.GasPrice)
	}
	gasLimit, ok := new(big.Int).SetString(strings.TrimSpace(r.GasLimit), 10)
	if !ok {
		return chain.RootMessage{}, fmt.Errorf("invalid gas limit %q", r.GasLimit)
	}

	return chain.RootMessage{
		ID:                r.ID,
		OriginDomain:      uint32(r.SpokeDomain),
		DestinationDomain: uint32(r.HubDomain),
		Root:              common.HexToHash(r.Root),
		Caller:            common.HexToAddress(r.Caller),
		TransactionHash:   common.HexToHash(r.TransactionHash),
		BlockNumber:       uint64(r.BlockNumber),
		Timestamp:         uint64(r.Timestamp),
		GasPrice:          gasPrice,
		GasLimit:          gasLimit,
	}, nil
}

func validHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
