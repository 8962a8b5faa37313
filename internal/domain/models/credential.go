// internal/domain/models/credential.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credential is one record of the identity store ("users" collection).
//
// Field names follow the documents written by earlier deployments so existing
// identity stores stay readable: the digest lives under "password", never the
// plaintext. Records are created once at registration and never updated.
type Credential struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"` // digest; never serialized to clients
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
}

// LoginState is the client-visible session state that gates protected views.
type LoginState struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
}
