package shelter

import (
	"context"
	"testing"

	"github.com/dalemusser/stratashelter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func seeded(t *testing.T) (*Client, context.Context) {
	t.Helper()
	c := newTestClient(t)
	testutil.SeedAnimals(t, c.Database(), DefaultCollection, testutil.SampleAnimals()...)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	return c, ctx
}

func ids(docs []bson.M) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["animal_id"].(string))
	}
	return out
}

func TestRead(t *testing.T) {
	c, ctx := seeded(t)

	all, err := c.Read(ctx, bson.M{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2", "A3", "A4"}, ids(all))
	for _, d := range all {
		assert.Contains(t, d, "_id", "raw results keep the identifier")
	}

	dogs, err := c.Read(ctx, bson.M{"animal_type": "Dog"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2", "A3"}, ids(dogs))

	none, err := c.Read(ctx, bson.M{"animal_type": "Parrot"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRead_NilFilter(t *testing.T) {
	c, ctx := seeded(t)
	_, err := c.Read(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreate(t *testing.T) {
	c, ctx := seeded(t)

	ok, err := c.Create(ctx, bson.M{"animal_id": "A5", "animal_type": "Dog", "name": "Bolt"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := c.Read(ctx, bson.M{"animal_id": "A5"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bolt", got[0]["name"])
}

func TestCreate_Empty(t *testing.T) {
	c, ctx := seeded(t)

	for _, data := range []bson.M{nil, {}} {
		ok, err := c.Create(ctx, data)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.False(t, IsStoreError(err))
	}

	all, err := c.Read(ctx, bson.M{})
	require.NoError(t, err)
	assert.Len(t, all, 4, "rejected input never reaches the store")
}

func TestUpdate(t *testing.T) {
	c, ctx := seeded(t)

	before, err := c.Read(ctx, bson.M{"animal_type": "Dog"})
	require.NoError(t, err)

	res, err := c.Update(ctx, bson.M{"animal_type": "Dog"}, bson.M{"outcome_subtype": "Adopted"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Matched)
	assert.GreaterOrEqual(t, res.Matched, res.Modified)

	after, err := c.Read(ctx, bson.M{"animal_type": "Dog"})
	require.NoError(t, err)
	require.Len(t, after, len(before))

	byID := map[interface{}]bson.M{}
	for _, d := range before {
		byID[d["_id"]] = d
	}
	for _, d := range after {
		assert.Equal(t, "Adopted", d["outcome_subtype"])
		orig := byID[d["_id"]]
		require.NotNil(t, orig)
		for k, v := range orig {
			if k == "outcome_subtype" {
				continue
			}
			assert.Equal(t, v, d[k], "field %s changed", k)
		}
	}

	// the cat is untouched
	cats, err := c.Read(ctx, bson.M{"animal_type": "Cat"})
	require.NoError(t, err)
	assert.Equal(t, "Foster", cats[0]["outcome_subtype"])
}

func TestUpdate_Invalid(t *testing.T) {
	c, ctx := seeded(t)

	tests := []struct {
		name            string
		filter, changes bson.M
	}{
		{"empty changes", bson.M{"animal_type": "Dog"}, bson.M{}},
		{"nil changes", bson.M{"animal_type": "Dog"}, nil},
		{"empty filter", bson.M{}, bson.M{"name": "X"}},
		{"nil filter", nil, bson.M{"name": "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Update(ctx, tt.filter, tt.changes)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestDelete(t *testing.T) {
	c, ctx := seeded(t)

	res, err := c.Delete(ctx, bson.M{"animal_type": "Dog"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Deleted)

	gone, err := c.Read(ctx, bson.M{"animal_type": "Dog"})
	require.NoError(t, err)
	assert.Empty(t, gone)

	rest, err := c.Read(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A4"}, ids(rest))
}

func TestDelete_Empty(t *testing.T) {
	c, ctx := seeded(t)

	for _, f := range []bson.M{nil, {}} {
		_, err := c.Delete(ctx, f)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	all, err := c.Read(ctx, bson.M{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStoreError_OnCancelledContext(t *testing.T) {
	c, _ := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Read(ctx, bson.M{})
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "read", se.Op)
}
