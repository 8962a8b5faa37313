// Package ratelimit throttles repeated failed logins per username.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds one document per throttled username.
const CollectionName = "rate_limits"

// Attempt tracks failed logins for one username. Usernames are matched
// exactly, the same way the users collection matches them.
type Attempt struct {
	Username    string     `bson:"username"`
	Failures    int        `bson:"failures"`     // failures in the current window
	WindowStart time.Time  `bson:"window_start"` // when the current window opened
	LockedUntil *time.Time `bson:"locked_until"` // nil unless locked
	LastAttempt time.Time  `bson:"last_attempt"` // TTL index field
}

// Status is the verdict for a username.
type Status struct {
	Allowed     bool
	Remaining   int        // failures left before lockout; 0 when locked
	LockedUntil *time.Time // set while locked
}

// Store manages login throttling state.
type Store struct {
	c           *mongo.Collection
	maxFailures int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

// New creates a Store that locks a username for lockout after maxFailures
// failures inside window. Indexes are created by indexes.EnsureAll.
func New(db *mongo.Database, maxFailures int, window, lockout time.Duration) *Store {
	return &Store{
		c:           db.Collection(CollectionName),
		maxFailures: maxFailures,
		window:      window,
		lockout:     lockout,
		now:         time.Now,
	}
}

// Check reports whether username may attempt a login now. Lookup failures
// allow the attempt; the store being down must not lock everyone out.
func (s *Store) Check(ctx context.Context, username string) Status {
	a, err := s.Lookup(ctx, username)
	if err != nil || a == nil {
		return Status{Allowed: true, Remaining: s.maxFailures}
	}
	return s.evaluate(a, s.now())
}

// Fail records a failed login and returns the resulting status. Allowed is
// false when this failure triggered (or fell inside) a lockout.
func (s *Store) Fail(ctx context.Context, username string) Status {
	now := s.now()

	a, err := s.Lookup(ctx, username)
	if err != nil {
		return Status{Allowed: true, Remaining: s.maxFailures}
	}
	if a != nil && a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return s.evaluate(a, now)
	}
	if a == nil || a.LockedUntil != nil || now.After(a.WindowStart.Add(s.window)) {
		a = &Attempt{Username: username, WindowStart: now}
	}
	a.Failures++
	a.LastAttempt = now
	if a.Failures >= s.maxFailures {
		until := now.Add(s.lockout)
		a.LockedUntil = &until
	}

	_, _ = s.c.ReplaceOne(ctx,
		bson.M{"username": username},
		a,
		options.Replace().SetUpsert(true),
	)
	return s.evaluate(a, now)
}

// Reset clears the failure count for username after a successful login.
func (s *Store) Reset(ctx context.Context, username string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"username": username})
	return err
}

// Lookup returns the stored attempt record for username, or nil if none.
func (s *Store) Lookup(ctx context.Context, username string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"username": username}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) evaluate(a *Attempt, now time.Time) Status {
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return Status{Allowed: false, LockedUntil: a.LockedUntil}
	}
	if now.After(a.WindowStart.Add(s.window)) {
		return Status{Allowed: true, Remaining: s.maxFailures}
	}
	remaining := s.maxFailures - a.Failures
	if remaining <= 0 {
		// lockout already expired but the window has not; start over
		return Status{Allowed: true, Remaining: s.maxFailures}
	}
	return Status{Allowed: true, Remaining: remaining}
}
