package animals

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/stratashelter/internal/app/features/errors"
	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const collection = "animals"

type fixture struct {
	db      *mongo.Database
	client  *shelter.Client
	handler http.Handler
	audits  *audit.Store
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedAnimals(t, db, collection, testutil.SampleAnimals()...)

	logger := zap.NewNop()
	client := shelter.New(db, collection, nil, logger)
	audits := audit.New(db)
	al := auditlog.New(audits, logger, auditlog.Config{Auth: auditlog.DestOff, Records: auditlog.DestDB})
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, false, logger)
	require.NoError(t, err)

	h := NewHandler(client, errorsfeature.NewErrorLogger(logger), al, logger)
	return fixture{db: db, client: client, handler: Routes(h, sm), audits: audits}
}

func (f fixture) do(t *testing.T, method, target string, body any) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	f.handler.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, "ranger"))
	return rec
}

func names(t *testing.T, rec *testutil.ResponseRecorder) []string {
	t.Helper()
	var rows []map[string]any
	rec.DecodeJSON(t, &rows)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		_, hasID := row["_id"]
		assert.False(t, hasID, "rows must not carry _id")
		out = append(out, row["name"].(string))
	}
	return out
}

func TestRoutes_RequireSession(t *testing.T) {
	f := setup(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := testutil.NewRecorder()
			f.handler.ServeHTTP(rec, testutil.NewJSONRequest(t, method, "/", `{"filter":{"name":"Lucy"}}`))
			rec.AssertStatus(t, http.StatusUnauthorized)
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := f.db.Collection(collection).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, n, "anonymous calls must not touch the store")
}

func TestList_RescuePresets(t *testing.T) {
	f := setup(t)

	tests := []struct {
		rescue string
		want   []string
	}{
		{"", []string{"Lucy", "Max", "Rex", "Tom"}},
		{"reset", []string{"Lucy", "Max", "Rex", "Tom"}},
		{"water", []string{"Lucy"}},
		{"mountain", []string{"Max"}},
		{"disaster", []string{"Max", "Rex"}},
	}
	for _, tt := range tests {
		t.Run("rescue="+tt.rescue, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/?rescue="+tt.rescue, nil)
			rec.AssertStatus(t, http.StatusOK)
			assert.ElementsMatch(t, tt.want, names(t, rec))
		})
	}
}

func TestList_UnknownPreset(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodGet, "/?rescue=avalanche", nil)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "avalanche")
}

func TestPresets(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodGet, "/presets", nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Water Rescue")
}

func TestSearch(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       []string
	}{
		{"by field", `{"filter":{"animal_type":"Cat"}}`, http.StatusOK, []string{"Tom"}},
		{"operator", `{"filter":{"age_upon_outcome_in_weeks":{"$gte":100}}}`, http.StatusOK, []string{"Max", "Rex"}},
		{"empty filter matches all", `{"filter":{}}`, http.StatusOK, []string{"Lucy", "Max", "Rex", "Tom"}},
		{"no match", `{"filter":{"name":"Nobody"}}`, http.StatusOK, []string{}},
		{"missing filter", `{}`, http.StatusBadRequest, nil},
		{"null filter", `{"filter":null}`, http.StatusBadRequest, nil},
		{"non-object filter", `{"filter":[1,2]}`, http.StatusBadRequest, nil},
		{"malformed body", `{"filter":`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/search", tt.body)
			rec.AssertStatus(t, tt.wantStatus)
			if tt.want != nil {
				assert.ElementsMatch(t, tt.want, names(t, rec))
			}
		})
	}
}

func TestCreate(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/", map[string]any{
		"data": map[string]any{"animal_id": "A9", "name": "Bolt", "animal_type": "Dog"},
	})
	rec.AssertStatus(t, http.StatusCreated)
	var out map[string]bool
	rec.DecodeJSON(t, &out)
	assert.True(t, out["created"])

	rec = f.do(t, http.MethodPost, "/search", `{"filter":{"animal_id":"A9"}}`)
	assert.Equal(t, []string{"Bolt"}, names(t, rec))

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events, err := f.audits.Query(ctx, audit.QueryFilter{EventType: audit.EventRecordCreated})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ranger", events[0].Username)
	assert.Equal(t, collection, events[0].Details["collection"])
}

func TestCreate_Rejected(t *testing.T) {
	f := setup(t)

	for name, body := range map[string]string{
		"empty data":   `{"data":{}}`,
		"missing data": `{}`,
		"null data":    `{"data":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/", body)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := f.db.Collection(collection).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestUpdate(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPatch, "/", `{"filter":{"animal_type":"Dog"},"changes":{"outcome_type":"Adoption"}}`)
	rec.AssertStatus(t, http.StatusOK)
	var res shelter.UpdateResult
	rec.DecodeJSON(t, &res)
	assert.EqualValues(t, 3, res.Matched)
	assert.EqualValues(t, 3, res.Modified)

	// fields not named in changes survive
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var doc bson.M
	require.NoError(t, f.db.Collection(collection).FindOne(ctx, bson.M{"animal_id": "A1"}).Decode(&doc))
	assert.Equal(t, "Adoption", doc["outcome_type"])
	assert.Equal(t, "Lucy", doc["name"])
	assert.Equal(t, "Labrador Retriever Mix", doc["breed"])
}

func TestUpdate_Rejected(t *testing.T) {
	f := setup(t)

	tests := map[string]string{
		"empty changes":  `{"filter":{"name":"Lucy"},"changes":{}}`,
		"empty filter":   `{"filter":{},"changes":{"name":"X"}}`,
		"missing filter": `{"changes":{"name":"X"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPatch, "/", body)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestDelete(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodDelete, "/", `{"filter":{"animal_type":"Dog"}}`)
	rec.AssertStatus(t, http.StatusOK)
	var res shelter.DeleteResult
	rec.DecodeJSON(t, &res)
	assert.EqualValues(t, 3, res.Deleted)

	rec = f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, []string{"Tom"}, names(t, rec))

	rec = f.do(t, http.MethodDelete, "/", `{"filter":{}}`)
	rec.AssertStatus(t, http.StatusBadRequest)
}

type failingRecords struct{}

func (failingRecords) Create(context.Context, bson.M) (bool, error) {
	return false, &shelter.StoreError{Op: "create", Err: errors.New("write concern failed")}
}
func (failingRecords) Read(context.Context, bson.M) ([]bson.M, error) {
	return nil, &shelter.StoreError{Op: "read", Err: errors.New("cursor killed")}
}
func (failingRecords) Update(context.Context, bson.M, bson.M) (shelter.UpdateResult, error) {
	return shelter.UpdateResult{}, &shelter.StoreError{Op: "update", Err: errors.New("timeout")}
}
func (failingRecords) Delete(context.Context, bson.M) (shelter.DeleteResult, error) {
	return shelter.DeleteResult{}, &shelter.StoreError{Op: "delete", Err: errors.New("timeout")}
}
func (failingRecords) Collection() string { return collection }

func TestStoreFailures(t *testing.T) {
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, false, logger)
	require.NoError(t, err)
	h := Routes(NewHandler(failingRecords{}, errorsfeature.NewErrorLogger(logger), nil, logger), sm)

	tests := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/", ""},
		{http.MethodPost, "/search", `{"filter":{}}`},
		{http.MethodPost, "/", `{"data":{"name":"X"}}`},
		{http.MethodPatch, "/", `{"filter":{"name":"X"},"changes":{"name":"Y"}}`},
		{http.MethodDelete, "/", `{"filter":{"name":"X"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var body any
			if tt.body != "" {
				body = tt.body
			}
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, tt.method, tt.target, body, "ranger"))
			rec.AssertStatus(t, http.StatusInternalServerError)
		})
	}
}
