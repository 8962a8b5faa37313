package shelter

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/system/digest"
	"github.com/dalemusser/stratashelter/internal/app/system/indexes"
	"github.com/dalemusser/stratashelter/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// newTestClient wraps a fresh per-test database.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	return New(testutil.SetupTestDB(t), DefaultCollection, digest.SaltedSHA256{Salt: DefaultSalt}, zap.NewNop())
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := Config{
		Host:                   "127.0.0.1",
		Port:                   1,
		Database:               "unreachable",
		ServerSelectionTimeout: 300 * time.Millisecond,
	}

	start := time.Now()
	c, err := Connect(context.Background(), cfg, zap.NewNop())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, IsConnectionError(err), "got %T: %v", err, err)

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "127.0.0.1:1/unreachable", ce.Target)
	assert.Contains(t, err.Error(), "could not connect to MongoDB")
	assert.Less(t, elapsed, 5*time.Second, "the liveness check must honor the configured timeout")
}

func TestConnect_BadDigestScheme(t *testing.T) {
	_, err := Connect(context.Background(), Config{DigestScheme: "md5"}, zap.NewNop())
	require.Error(t, err)
	assert.False(t, IsConnectionError(err))
}

func TestConnect_Live(t *testing.T) {
	u, err := url.Parse(testutil.TestDBURI())
	if err != nil || u.Port() == "" {
		t.Skipf("test URI %q has no explicit host:port", testutil.TestDBURI())
	}
	port, _ := strconv.Atoi(u.Port())
	pw, _ := u.User.Password()

	cfg := Config{
		User:     u.User.Username(),
		Password: pw,
		Host:     u.Hostname(),
		Port:     port,
		Database: "shelter_test_connect_" + uuid.New().String()[:8],
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := Connect(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Database().Drop(context.Background())
		_ = c.Close(context.Background())
	})

	assert.Equal(t, DefaultCollection, c.Collection())
	require.NoError(t, c.Ping(ctx))

	// the unique username index exists after Connect
	specs, err := c.Database().Collection("users").Indexes().ListSpecifications(ctx)
	require.NoError(t, err)
	var found bool
	for _, s := range specs {
		if s.Name == indexes.UsernameIndexName {
			found = true
			require.NotNil(t, s.Unique)
			assert.True(t, *s.Unique)
		}
	}
	assert.True(t, found, "missing %s", indexes.UsernameIndexName)
}

func TestNew_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := New(db, "", nil, nil)

	assert.Equal(t, DefaultCollection, c.Collection())
	assert.Equal(t, digest.SaltedSHA256{Salt: DefaultSalt}, c.hasher)
	// a borrowed connection is never closed by the client
	require.NoError(t, c.Close(context.Background()))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	assert.NoError(t, db.Client().Ping(ctx, nil))
	_, err := db.Collection("animals").CountDocuments(ctx, bson.M{})
	assert.NoError(t, err)
}
