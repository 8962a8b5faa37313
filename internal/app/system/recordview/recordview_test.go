package recordview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStripIDs(t *testing.T) {
	id := primitive.NewObjectID()
	in := []bson.M{
		{"_id": id, "name": "Lucy", "breed": "Labrador Retriever Mix"},
		{"name": "Tom"},
	}

	out := StripIDs(in)

	assert.Equal(t, []bson.M{
		{"name": "Lucy", "breed": "Labrador Retriever Mix"},
		{"name": "Tom"},
	}, out)
	// input untouched
	assert.Equal(t, id, in[0]["_id"])
}

func TestStripIDs_Empty(t *testing.T) {
	assert.NotNil(t, StripIDs(nil))
	assert.Empty(t, StripIDs(nil))
	assert.Empty(t, StripIDs([]bson.M{}))
}

func TestColumns(t *testing.T) {
	cols := Columns([]bson.M{
		{"name": "Lucy", "breed": "Lab"},
		{"name": "Tom", "age_upon_outcome_in_weeks": 12},
	})
	assert.Equal(t, []string{"age_upon_outcome_in_weeks", "breed", "name"}, cols)
	assert.Empty(t, Columns(nil))
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument("filter", []byte(`{"name":"Lucy","age_upon_outcome_in_weeks":{"$gte":100}}`))
	assert.NoError(t, err)
	assert.Equal(t, "Lucy", doc["name"])
	assert.Contains(t, doc, "age_upon_outcome_in_weeks")

	empty, err := ParseDocument("filter", []byte(`{}`))
	assert.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, raw := range []string{"", "null"} {
		doc, err := ParseDocument("filter", []byte(raw))
		assert.NoError(t, err)
		assert.Nil(t, doc)
	}

	_, err = ParseDocument("data", []byte(`[1,2]`))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "data must be a JSON object")
	}
}
