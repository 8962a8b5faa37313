// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler and Shutdown. Shutdown closes the shelter client.
type DBDeps struct {
	// Shelter is the one document store client for the process. Every
	// feature that reads or writes animals or users goes through it.
	Shelter *shelter.Client

	// MongoDatabase is the same database Shelter uses, for the auxiliary
	// stores (rate limits, audit log).
	MongoDatabase *mongo.Database
}
