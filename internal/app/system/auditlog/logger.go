// Package auditlog routes audit events to MongoDB, zap, both or neither,
// per event category.
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Destinations accepted in Config.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls register, login and logout events.
	Auth string
	// Records controls animal record create, update and delete events.
	Records string
}

// Logger records audit events. A nil *Logger is a no-op so handlers can be
// tested without one.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// ValidDestination reports whether v is one of the accepted destinations.
func ValidDestination(v string) bool {
	switch v {
	case DestAll, DestDB, DestLog, DestOff:
		return true
	}
	return false
}

// Log records event according to the destination for its category.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var dest string
	switch event.Category {
	case audit.CategoryAuth:
		dest = l.config.Auth
	case audit.CategoryRecords:
		dest = l.config.Records
	}
	if dest == "" {
		dest = DestAll
	}
	if dest == DestOff {
		return
	}

	if dest == DestAll || dest == DestLog {
		l.logToZap(event)
	}
	if (dest == DestAll || dest == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.Username != "" {
		fields = append(fields, zap.String("username", event.Username))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// --- Authentication Events ---

// Registered logs a registration attempt. reason is empty on success.
func (l *Logger) Registered(r *http.Request, username string, ok bool, reason string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventRegisterSuccess, username)
	ev.Success = ok
	if !ok {
		ev.EventType = audit.EventRegisterFailed
		ev.FailureReason = reason
	}
	l.Log(r.Context(), ev)
}

// LoginSucceeded logs a successful login.
func (l *Logger) LoginSucceeded(r *http.Request, username, sessionID string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess, username)
	ev.Success = true
	ev.Details = map[string]string{"session_id": sessionID}
	l.Log(r.Context(), ev)
}

// LoginFailed logs a rejected login. remaining is the number of failures
// left before lockout.
func (l *Logger) LoginFailed(r *http.Request, username, reason string, remaining int) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailed, username)
	ev.FailureReason = reason
	ev.Details = map[string]string{"remaining": strconv.Itoa(remaining)}
	l.Log(r.Context(), ev)
}

// LoginLockedOut logs a login refused because the username is locked.
func (l *Logger) LoginLockedOut(r *http.Request, username string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLoginLockedOut, username)
	ev.FailureReason = "too many failed attempts"
	l.Log(r.Context(), ev)
}

// Logout logs a user logout.
func (l *Logger) Logout(r *http.Request, username string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLogout, username)
	ev.Success = true
	l.Log(r.Context(), ev)
}

// --- Record Events ---

// RecordChanged logs a successful write to the animals collection. counts
// holds what the write reported (created, matched, modified or deleted).
func (l *Logger) RecordChanged(r *http.Request, eventType, username, collection string, counts map[string]int64) {
	ev := fromRequest(r, audit.CategoryRecords, eventType, username)
	ev.Success = true
	ev.Details = map[string]string{"collection": collection}
	for k, v := range counts {
		ev.Details[k] = strconv.FormatInt(v, 10)
	}
	l.Log(r.Context(), ev)
}

// --- Helper functions ---

func fromRequest(r *http.Request, category, eventType, username string) audit.Event {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return audit.Event{
		Category:  category,
		EventType: eventType,
		Username:  username,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: reqID,
	}
}

// ClientIP returns the originating client address. The first hop of
// X-Forwarded-For wins, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
