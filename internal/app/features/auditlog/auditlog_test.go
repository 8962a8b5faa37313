package auditlog

import (
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/stratashelter/internal/app/features/errors"
	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, false, logger)
	require.NoError(t, err)
	return Routes(NewHandler(store, errorsfeature.NewErrorLogger(logger), logger), sm, []string{"ranger"}), store
}

func seed(t *testing.T, store *audit.Store) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Username: "ranger", Success: true, CreatedAt: old},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, Username: "medic", FailureReason: "invalid credentials"},
		{Category: audit.CategoryRecords, EventType: audit.EventRecordUpdated, Username: "ranger", Success: true,
			Details: map[string]string{"collection": "animals", "matched": "3"}},
	} {
		require.NoError(t, store.Log(ctx, e))
	}
}

func get(t *testing.T, h http.Handler, target string, signedIn bool) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest(t, http.MethodGet, target, nil)
	if signedIn {
		req = testutil.NewAuthenticatedRequest(t, http.MethodGet, target, nil, "ranger")
	}
	h.ServeHTTP(rec, req)
	return rec
}

func TestList_RequiresSession(t *testing.T) {
	h, _ := setup(t)
	get(t, h, "/", false).AssertStatus(t, http.StatusUnauthorized)
}

func TestList_ViewersOnly(t *testing.T) {
	h, store := setup(t)
	seed(t, store)

	for _, user := range []string{"medic", "stranger", "Ranger"} {
		t.Run(user, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/", nil, user))
			rec.AssertStatus(t, http.StatusForbidden)
			assert.NotContains(t, rec.Body.String(), "login_failed")
		})
	}
}

func TestList_NoViewersConfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, false, logger)
	require.NoError(t, err)
	h := Routes(NewHandler(audit.New(db), errorsfeature.NewErrorLogger(logger), logger), sm, nil)

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/", nil, "ranger"))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestList_Filters(t *testing.T) {
	h, store := setup(t)
	seed(t, store)

	tests := []struct {
		target string
		want   int
	}{
		{"/", 3},
		{"/?category=auth", 2},
		{"/?category=records", 1},
		{"/?username=ranger", 2},
		{"/?event_type=login_failed", 1},
		{"/?since=2021-01-01", 2},
		{"/?since=2019-12-31T00:00:00Z", 3},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, h, tt.target, true)
			rec.AssertStatus(t, http.StatusOK)
			var resp ListResponse
			rec.DecodeJSON(t, &resp)
			assert.Len(t, resp.Events, tt.want)
			assert.EqualValues(t, tt.want, resp.Total)
		})
	}
}

func TestList_LimitAndOrder(t *testing.T) {
	h, store := setup(t)
	seed(t, store)

	rec := get(t, h, "/?limit=1", true)
	rec.AssertStatus(t, http.StatusOK)
	var resp ListResponse
	rec.DecodeJSON(t, &resp)
	require.Len(t, resp.Events, 1)
	assert.EqualValues(t, 3, resp.Total)
	assert.NotEqual(t, audit.EventLoginSuccess, resp.Events[0].EventType, "oldest event must not come first")
}

func TestList_BadParams(t *testing.T) {
	h, _ := setup(t)
	for _, target := range []string{"/?category=admin", "/?since=yesterday", "/?limit=0", "/?limit=abc"} {
		t.Run(target, func(t *testing.T) {
			get(t, h, target, true).AssertStatus(t, http.StatusBadRequest)
		})
	}
}
