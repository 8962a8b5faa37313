package indexes_test

import (
	"testing"

	"github.com/dalemusser/stratashelter/internal/app/system/indexes"
	"github.com/dalemusser/stratashelter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func usernameIndex(t *testing.T, db *mongo.Database) *mongo.IndexSpecification {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	specs, err := db.Collection("users").Indexes().ListSpecifications(ctx)
	require.NoError(t, err)
	for _, s := range specs {
		var keys bson.D
		require.NoError(t, bson.Unmarshal(s.KeysDocument, &keys))
		if len(keys) == 1 && keys[0].Key == "username" {
			return s
		}
	}
	return nil
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t) // already ran EnsureAll once
	ctx, cancel := testutil.TestContext()
	defer cancel()

	require.NoError(t, indexes.EnsureAll(ctx, db))

	idx := usernameIndex(t, db)
	require.NotNil(t, idx)
	assert.Equal(t, indexes.UsernameIndexName, idx.Name)
	require.NotNil(t, idx.Unique)
	assert.True(t, *idx.Unique)
}

func TestEnsureUsers_UpgradesNonUniqueIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	_, err := users.Indexes().DropOne(ctx, indexes.UsernameIndexName)
	require.NoError(t, err)
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName("username_1"),
	})
	require.NoError(t, err)

	require.NoError(t, indexes.EnsureUsers(ctx, db))

	idx := usernameIndex(t, db)
	require.NotNil(t, idx)
	require.NotNil(t, idx.Unique)
	assert.True(t, *idx.Unique)
}

func TestEnsureUsers_DuplicatesReported(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	_, err := users.Indexes().DropOne(ctx, indexes.UsernameIndexName)
	require.NoError(t, err)
	_, err = users.InsertMany(ctx, []any{
		bson.M{"username": "ranger", "password": "a"},
		bson.M{"username": "ranger", "password": "b"},
	})
	require.NoError(t, err)

	err = indexes.EnsureUsers(ctx, db)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "duplicates present")
	}
}
