// Package shelter is the data-access and authentication layer between the
// dashboard boundary and the document store.
//
// A Client holds one live connection for its lifetime and exposes four record
// operations on the animals collection (Create, Read, Update, Delete) and two
// identity operations on the users collection (Register, Authenticate).
// Callers construct one Client explicitly and pass it to whatever needs it.
//
// Failure channels:
//   - ErrInvalidArgument: empty or absent required input; never reaches the store.
//   - *ConnectionError: the store was unreachable at construction.
//   - *StoreError: a store call failed after validation.
//   - Outcome{OK: false}: expected identity failures, returned as data.
//
// No operation is retried, and the client does no locking of its own;
// concurrent callers rely on the store's document-level isolation.
package shelter

import (
	"context"

	animalstore "github.com/dalemusser/stratashelter/internal/app/store/animals"
	credentialstore "github.com/dalemusser/stratashelter/internal/app/store/credentials"
	"github.com/dalemusser/stratashelter/internal/app/system/digest"
	"github.com/dalemusser/stratashelter/internal/app/system/indexes"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Client is the document store client. It is safe for concurrent use to the
// extent the underlying driver is.
type Client struct {
	mc      *mongo.Client
	db      *mongo.Database
	owned   bool // Close disconnects only connections this package opened
	animals *animalstore.Store
	creds   *credentialstore.Store
	hasher  digest.Hasher
	logger  *zap.Logger

	// compared against for unknown usernames under non-deterministic schemes
	dummyDigest string
}

// Connect resolves cfg, opens the connection, checks liveness within
// cfg.ServerSelectionTimeout (5s by default) and ensures the unique username
// index. Any connectivity failure is a *ConnectionError; nothing is retried.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := cfg.Resolve()
	if err != nil {
		return nil, errors.Wrap(err, "resolve shelter config")
	}
	hasher, err := digest.New(cfg.DigestScheme, cfg.Salt)
	if err != nil {
		return nil, errors.Wrap(err, "configure password digest")
	}

	opts := options.Client().
		ApplyURI(cfg.URI()).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	mc, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, &ConnectionError{Target: cfg.Target(), Err: err}
	}

	bootCtx, cancel := context.WithTimeout(ctx, cfg.ServerSelectionTimeout)
	defer cancel()

	if err := mc.Ping(bootCtx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, &ConnectionError{Target: cfg.Target(), Err: err}
	}

	db := mc.Database(cfg.Database)
	if err := indexes.EnsureUsers(bootCtx, db); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ensure unique username index")
	}

	logger.Info("connected to document store",
		zap.String("target", cfg.Target()),
		zap.String("collection", cfg.Collection),
		zap.String("digest", cfg.DigestScheme),
		zap.Duration("server_selection_timeout", cfg.ServerSelectionTimeout))

	c := New(db, cfg.Collection, hasher, logger)
	c.mc = mc
	c.owned = true
	return c, nil
}

// New wraps an already connected database. It performs no I/O; the caller is
// responsible for indexes and liveness (bootstrap does both in EnsureSchema).
func New(db *mongo.Database, collection string, hasher digest.Hasher, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = digest.SaltedSHA256{Salt: DefaultSalt}
	}
	c := &Client{
		mc:      db.Client(),
		db:      db,
		animals: animalstore.New(db, collection),
		creds:   credentialstore.New(db),
		hasher:  hasher,
		logger:  logger,
	}
	if !hasher.Deterministic() {
		c.dummyDigest, _ = hasher.Hash(uuid.NewString())
	}
	return c
}

// Database returns the database the client operates on.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Collection returns the name of the animals collection.
func (c *Client) Collection() string {
	return c.animals.Name()
}

// Ping issues a liveness check against the primary.
func (c *Client) Ping(ctx context.Context) error {
	return c.mc.Ping(ctx, readpref.Primary())
}

// Close disconnects the connection if Connect opened it.
func (c *Client) Close(ctx context.Context) error {
	if !c.owned || c.mc == nil {
		return nil
	}
	return c.mc.Disconnect(ctx)
}
