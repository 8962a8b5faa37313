// internal/app/store/credentials/credentialstore.go
package credentialstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratashelter/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the identity store collection.
const CollectionName = "users"

var (
	// ErrDuplicateUsername is returned when the unique username index rejects an insert.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrNotFound is returned when no credential matches a lookup.
	ErrNotFound = errors.New("credential not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Insert stores a new credential. The username is stored exactly as given;
// uniqueness is enforced by the idx_users_username index.
func (s *Store) Insert(ctx context.Context, username, digest string) (models.Credential, error) {
	cred := models.Credential{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Password:  digest,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, cred); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Credential{}, ErrDuplicateUsername
		}
		return models.Credential{}, err
	}
	return cred, nil
}

// FindByUsernameAndDigest looks up the credential whose username and digest
// both match exactly. Returns ErrNotFound if there is none.
func (s *Store) FindByUsernameAndDigest(ctx context.Context, username, digest string) (*models.Credential, error) {
	return s.findOne(ctx, bson.M{"username": username, "password": digest})
}

// FindByUsername looks up a credential by exact username. Returns ErrNotFound if there is none.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.Credential, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

// Count returns the number of stored credentials.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Credential, error) {
	var cred models.Credential
	if err := s.c.FindOne(ctx, filter).Decode(&cred); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}
