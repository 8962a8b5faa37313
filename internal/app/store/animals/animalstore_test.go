package animalstore

import (
	"testing"

	"github.com/dalemusser/stratashelter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNew_DefaultCollection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	assert.Equal(t, DefaultCollection, New(db, "").Name())
	assert.Equal(t, "outcomes", New(db, "outcomes").Name())
}

func TestStore_InsertFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id, err := s.Insert(ctx, bson.M{"name": "Lucy", "animal_type": "Dog"})
	require.NoError(t, err)
	assert.NotNil(t, id)

	docs, err := s.Find(ctx, bson.M{"name": "Lucy"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0]["_id"])
	assert.Equal(t, "Dog", docs[0]["animal_type"])
}

func TestStore_Find_NoMatchIsEmptyNotNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	docs, err := s.Find(ctx, bson.M{"name": "Nobody"})
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestStore_SetMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedAnimals(t, db, DefaultCollection, testutil.SampleAnimals()...)
	s := New(db, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	matched, modified, err := s.SetMany(ctx, bson.M{"animal_type": "Dog"}, bson.M{"outcome_subtype": "Partner"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, matched)
	// A1 already had Partner
	assert.EqualValues(t, 2, modified)

	docs, err := s.Find(ctx, bson.M{"animal_id": "A2"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Partner", docs[0]["outcome_subtype"])
	assert.Equal(t, "German Shepherd", docs[0]["breed"])
}

func TestStore_DeleteMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedAnimals(t, db, DefaultCollection, testutil.SampleAnimals()...)
	s := New(db, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := s.DeleteMany(ctx, bson.M{"animal_type": "Cat"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteMany(ctx, bson.M{"animal_type": "Cat"})
	require.NoError(t, err)
	assert.Zero(t, n)
}
