// internal/app/store/animals/animalstore.go
package animalstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "animals"

// Store passes animal records through to one collection. Records are opaque
// documents; the store never inspects their shape.
type Store struct {
	c *mongo.Collection
}

// New returns a Store over db.collection. An empty name selects DefaultCollection.
func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{c: db.Collection(collection)}
}

// Name returns the collection name.
func (s *Store) Name() string {
	return s.c.Name()
}

// Insert stores one record and returns the identifier the store assigned.
func (s *Store) Insert(ctx context.Context, doc bson.M) (interface{}, error) {
	res, err := s.c.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

// Find returns every record matching filter in store-native order.
func (s *Store) Find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetMany merges fields into every record matching filter.
func (s *Store) SetMany(ctx context.Context, filter, fields bson.M) (matched, modified int64, err error) {
	res, err := s.c.UpdateMany(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// DeleteMany removes every record matching filter.
func (s *Store) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
