package logout

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"github.com/dalemusser/stratashelter/internal/app/system/auditlog"
	"github.com/dalemusser/stratashelter/internal/app/system/auth"
	"github.com/dalemusser/stratashelter/internal/domain/models"
	"github.com/dalemusser/stratashelter/internal/testutil"
	"go.uber.org/zap"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-1234567890", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func TestLogout_ExpiresCookie(t *testing.T) {
	sm := newSessionManager(t)
	h := Routes(NewHandler(sm, nil))

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", nil, "alice"))
	rec.AssertStatus(t, http.StatusOK)

	var st models.LoginState
	rec.DecodeJSON(t, &st)
	if st.LoggedIn || st.Username != "" {
		t.Errorf("state = %+v, want logged out", st)
	}

	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("logout should expire the session cookie")
	}
}

func TestLogout_Anonymous(t *testing.T) {
	h := Routes(NewHandler(newSessionManager(t), nil))

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", nil))
	rec.AssertStatus(t, http.StatusOK)
}

func TestLogout_Audited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	audits := audit.New(db)
	al := auditlog.New(audits, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB})
	h := Routes(NewHandler(newSessionManager(t), al))

	h.ServeHTTP(testutil.NewRecorder(), testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", nil, "alice"))

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := audits.Count(ctx, audit.QueryFilter{EventType: audit.EventLogout, Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("logout events = %d, want 1", n)
	}
}
