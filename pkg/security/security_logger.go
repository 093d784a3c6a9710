package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type EventType string

const (
	EventLoginFailed        EventType = "login_failed"
	EventLoginBlocked       EventType = "login_blocked"
	EventLoginSuccess       EventType = "login_success"
	EventTokenRejected      EventType = "token_rejected"
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventAccessDenied       EventType = "access_denied"
	EventBlockCreated       EventType = "block_created"
	EventUploadRejected     EventType = "upload_rejected"
	EventStatusChanged      EventType = "application_status_changed"
)

var eventLevels = map[EventType]zapcore.Level{
	EventLoginSuccess:       zapcore.InfoLevel,
	EventStatusChanged:      zapcore.InfoLevel,
	EventLoginFailed:        zapcore.WarnLevel,
	EventTokenRejected:      zapcore.WarnLevel,
	EventRateLimitTriggered: zapcore.WarnLevel,
	EventUploadRejected:     zapcore.WarnLevel,
	EventAccessDenied:       zapcore.WarnLevel,
	EventLoginBlocked:       zapcore.ErrorLevel,
	EventBlockCreated:       zapcore.ErrorLevel,
}

type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Level        string                 `json:"level"`
	Event        EventType              `json:"event"`
	SubjectType  string                 `json:"subject_type,omitempty"`  // email | ip | user_id
	SubjectValue string                 `json:"subject_value,omitempty"` // masked or hashed
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// PersistFunc stores an event durably. It runs off the request path.
type PersistFunc func(ctx context.Context, event SecurityEvent) error

// SecurityLogger writes security events through zap and optionally persists them.
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
	persist     PersistFunc
	wg          sync.WaitGroup
}

var (
	defaultLogger *SecurityLogger
	defaultMu     sync.Mutex
)

// NewSecurityLogger builds a logger on top of z. A nil z uses a zap
// production config writing JSON to stdout.
func NewSecurityLogger(z *zap.Logger, serviceName, environment string) *SecurityLogger {
	if z == nil {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		var err error
		z, err = cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
		if err != nil {
			z = zap.NewNop()
		}
	}
	return &SecurityLogger{
		zapLogger:   z.Named("security"),
		serviceName: serviceName,
		environment: environment,
	}
}

// InitSecurityLogger creates the process-wide logger returned by DefaultLogger.
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	sl := NewSecurityLogger(nil, serviceName, environment)
	defaultMu.Lock()
	defaultLogger = sl
	defaultMu.Unlock()
	return sl
}

func DefaultLogger() *SecurityLogger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewSecurityLogger(nil, "jobboard-backend", Environment())
	}
	return defaultLogger
}

func (sl *SecurityLogger) SetPersistFunc(f PersistFunc) {
	sl.persist = f
}

func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment

	level, ok := eventLevels[event.Event]
	if !ok {
		level = zapcore.WarnLevel
	}
	event.Level = level.String()

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
	}
	for _, kv := range [][2]string{
		{"subject_type", event.SubjectType},
		{"subject_value", event.SubjectValue},
		{"ip", event.IP},
		{"user_agent", event.UserAgent},
		{"request_id", event.RequestID},
	} {
		if kv[1] != "" {
			fields = append(fields, zap.String(kv[0], kv[1]))
		}
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)

	if sl.persist == nil {
		return
	}
	sl.wg.Add(1)
	go func(e SecurityEvent) {
		defer sl.wg.Done()
		// request context may already be canceled
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sl.persist(pctx, e); err != nil {
			sl.zapLogger.Error("persist security event", zap.Error(err))
		}
	}(event)
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, email, ip, userAgent, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventLoginFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"reason": reason},
	})
}

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, userID int64, ip, requestID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventLoginSuccess,
		SubjectType:  "user_id",
		SubjectValue: strconv.FormatInt(userID, 10),
		IP:           ip,
		RequestID:    requestID,
	})
}

func (sl *SecurityLogger) LogLoginBlocked(ctx context.Context, email, ip, requestID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventLoginBlocked,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]interface{}{"reason": "too_many_failed_attempts"},
	})
}

func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint},
	})
}

func (sl *SecurityLogger) LogBlockCreated(ctx context.Context, subjectType, subjectValue, ip string, duration time.Duration) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventBlockCreated,
		SubjectType:  subjectType,
		SubjectValue: maskValue(subjectType, subjectValue),
		IP:           ip,
		Details:      map[string]interface{}{"duration_minutes": int(duration.Minutes())},
	})
}

// LogAccessDenied records a role or ownership refusal for an authenticated user.
func (sl *SecurityLogger) LogAccessDenied(ctx context.Context, userID, ip, requestID, endpoint, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventAccessDenied,
		SubjectType:  "user_id",
		SubjectValue: userID,
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint, "reason": reason},
	})
}

func (sl *SecurityLogger) LogUploadRejected(ctx context.Context, userID, filename, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventUploadRejected,
		SubjectType:  "user_id",
		SubjectValue: userID,
		Details:      map[string]interface{}{"filename": filename, "reason": reason},
	})
}

func (sl *SecurityLogger) LogStatusChanged(ctx context.Context, recruiterID string, applicationID int64, from, to string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventStatusChanged,
		SubjectType:  "user_id",
		SubjectValue: recruiterID,
		Details: map[string]interface{}{
			"application_id": applicationID,
			"from":           from,
			"to":             to,
		},
	})
}

// Close waits for in-flight persistence and flushes zap.
func (sl *SecurityLogger) Close() error {
	sl.wg.Wait()
	return sl.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***" + email[1:]
	}
	return email[:1] + "***" + email[at:]
}

// HashValue returns a short SHA256 prefix so values can be correlated without PII.
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

func maskValue(subjectType, value string) string {
	switch subjectType {
	case "email":
		return MaskEmail(value)
	case "ip", "user_id":
		return value
	default:
		return HashValue(value)
	}
}

func Environment() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "production"
	}
	return "development"
}
