// Package audit persists security-relevant events: registrations, logins
// and changes made to animal records.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is where events are stored.
const CollectionName = "audit_logs"

// Event categories
const (
	CategoryAuth    = "auth"
	CategoryRecords = "records"
)

// Auth event types
const (
	EventRegisterSuccess = "register_success"
	EventRegisterFailed  = "register_failed"
	EventLoginSuccess    = "login_success"
	EventLoginFailed     = "login_failed"
	EventLoginLockedOut  = "login_locked_out"
	EventLogout          = "logout"
)

// Record event types
const (
	EventRecordCreated = "record_created"
	EventRecordUpdated = "record_updated"
	EventRecordDeleted = "record_deleted"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who: the username attempted or signed in. Never a password or digest.
	Username string `bson:"username,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`
	RequestID string `bson:"request_id,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query results. Zero fields are ignored.
type QueryFilter struct {
	Username  string
	Category  string
	EventType string
	Since     *time.Time
	Limit     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

// DeleteBefore removes events created before cutoff and reports how many
// were removed.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.Username != "" {
		q["username"] = f.Username
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil {
		q["created_at"] = bson.M{"$gte": *f.Since}
	}
	return q
}
