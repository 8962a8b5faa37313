// Package testutil provides database setup, fixtures and request helpers for tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/system/indexes"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultTestDBURI is used unless SHELTER_TEST_MONGO_URI is set.
	DefaultTestDBURI = "mongodb://localhost:27017"
	// TestDBName prefixes every per-test database name.
	TestDBName = "shelter_test"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// TestDBURI returns the MongoDB URI tests connect to.
func TestDBURI() string {
	if v := os.Getenv("SHELTER_TEST_MONGO_URI"); v != "" {
		return v
	}
	return DefaultTestDBURI
}

// getClient returns the MongoDB client shared by every test in the process.
func getClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		clientOpts := options.Client().
			ApplyURI(TestDBURI()).
			SetMaxPoolSize(100).
			SetMinPoolSize(5).
			SetMaxConnIdleTime(30 * time.Second).
			SetConnectTimeout(10 * time.Second).
			SetServerSelectionTimeout(10 * time.Second)

		client, clientErr = mongo.Connect(ctx, clientOpts)
		if clientErr != nil {
			return
		}
		clientErr = client.Ping(ctx, nil)
	})
	return client, clientErr
}

// SetupTestDB returns an empty database named after the test, with the
// production indexes in place. It is dropped when the test finishes.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	client, err := getClient()
	if err != nil {
		t.Fatalf("failed to connect to test MongoDB: %v", err)
	}

	// Test binaries for different packages run in parallel, so the name gets a
	// random suffix to keep same-named tests apart.
	db := client.Database(fmt.Sprintf("%s_%s_%s", TestDBName, sanitizeTestName(t.Name()), uuid.New().String()[:8]))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Drop(ctx); err != nil {
		t.Fatalf("failed to drop test database: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("warning: failed to drop test database on cleanup: %v", err)
		}
	})

	return db
}

// SeedAnimals inserts docs into db.collection and fails the test on error.
func SeedAnimals(t *testing.T, db *mongo.Database, collection string, docs ...bson.M) {
	t.Helper()
	if len(docs) == 0 {
		return
	}
	ctx, cancel := TestContext()
	defer cancel()

	many := make([]interface{}, len(docs))
	for i, d := range docs {
		many[i] = d
	}
	if _, err := db.Collection(collection).InsertMany(ctx, many); err != nil {
		t.Fatalf("failed to seed %s: %v", collection, err)
	}
}

// SampleAnimals returns a small outcome data set covering the rescue presets.
func SampleAnimals() []bson.M {
	return []bson.M{
		{"animal_id": "A1", "animal_type": "Dog", "breed": "Labrador Retriever Mix", "name": "Lucy",
			"sex_upon_outcome": "Intact Female", "age_upon_outcome_in_weeks": 52, "outcome_subtype": "Partner",
			"location_lat": 30.75, "location_long": -97.48},
		{"animal_id": "A2", "animal_type": "Dog", "breed": "German Shepherd", "name": "Max",
			"sex_upon_outcome": "Intact Male", "age_upon_outcome_in_weeks": 104, "outcome_subtype": "",
			"location_lat": 30.51, "location_long": -97.61},
		{"animal_id": "A3", "animal_type": "Dog", "breed": "Bloodhound", "name": "Rex",
			"sex_upon_outcome": "Intact Male", "age_upon_outcome_in_weeks": 250, "outcome_subtype": "",
			"location_lat": 30.32, "location_long": -97.70},
		{"animal_id": "A4", "animal_type": "Cat", "breed": "Domestic Shorthair Mix", "name": "Tom",
			"sex_upon_outcome": "Neutered Male", "age_upon_outcome_in_weeks": 12, "outcome_subtype": "Foster",
			"location_lat": 30.40, "location_long": -97.55},
	}
}

// sanitizeTestName turns a test name into a valid database name suffix.
func sanitizeTestName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	// MongoDB caps database names at 63 bytes; prefix and suffix take 22.
	const maxLen = 41
	if len(result) > maxLen {
		result = result[:maxLen]
	}
	return string(result)
}

// TestContext returns a context with a reasonable timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
