// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/logging"
	"github.com/opsight-ai/opsight-engine/pkg/middleware"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventStatementRejected is logged when the safety screen blocks a
	// generated statement before it reaches the database.
	EventStatementRejected SecurityEventType = "statement_rejected"
	// EventRetryExhausted is logged when the repair loop runs out of attempts
	// without a successful execution.
	EventRetryExhausted SecurityEventType = "retry_exhausted"
	// EventQueryExecution is logged for successful query execution (optional, can be high volume).
	EventQueryExecution SecurityEventType = "query_execution"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// RejectionDetails contains specifics of a statement blocked by the safety screen.
type RejectionDetails struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
	Reason   string `json:"reason"`
}

// ExhaustionDetails contains specifics of a repair loop that ran out of attempts.
type ExhaustionDetails struct {
	Question  string `json:"question"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error"`
}

// ExecutionDetails contains specifics of a successfully executed query.
type ExecutionDetails struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
	Rows     int    `json:"rows"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
// The logger is automatically configured with "security_audit" namespace for easy
// filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogStatementRejected records a generated statement blocked by the safety
// screen. This is logged at ERROR level with "critical" severity: the screen
// only trips on non-SELECT statements, statement stacking, or string literals
// matching injection patterns, all of which mean either model misbehavior or
// instructions smuggled in through the question.
//
// The context is used to extract the request ID assigned by the HTTP
// middleware if available.
func (a *SecurityAuditor) LogStatementRejected(ctx context.Context, details RejectionDetails) {
	requestID := middleware.RequestIDFromContext(ctx)

	details.SQL = logging.SanitizeSQL(details.SQL)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventStatementRejected,
		RequestID: requestID,
		Details:   details,
		Severity:  "critical",
	}

	// Serialize event to JSON for SIEM ingestion
	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("Generated statement rejected",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("question", details.Question),
		zap.String("sql", details.SQL),
		zap.String("reason", details.Reason),
		zap.String("severity", "critical"),
	)
}

// LogRetryExhausted records a repair loop that ran out of attempts.
// This is logged at WARN level as these are typically model or schema errors,
// not attacks.
func (a *SecurityAuditor) LogRetryExhausted(ctx context.Context, details ExhaustionDetails) {
	requestID := middleware.RequestIDFromContext(ctx)

	details.LastError = logging.SanitizeErrorText(details.LastError)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventRetryExhausted,
		RequestID: requestID,
		Details:   details,
		Severity:  "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Query retry budget exhausted",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("question", details.Question),
		zap.Int("attempts", details.Attempts),
		zap.String("last_error", details.LastError),
		zap.String("severity", "warning"),
	)
}

// LogQueryExecution records a successful query execution for audit trail.
// This is logged at INFO level and can be enabled/disabled based on audit requirements.
// Note: This can generate high log volume in production.
func (a *SecurityAuditor) LogQueryExecution(ctx context.Context, details ExecutionDetails) {
	requestID := middleware.RequestIDFromContext(ctx)

	details.SQL = logging.SanitizeSQL(details.SQL)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventQueryExecution,
		RequestID: requestID,
		Details:   details,
		Severity:  "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Query executed",
		zap.String("event_json", string(eventJSON)),
		zap.String("request_id", requestID),
		zap.String("question", details.Question),
		zap.String("sql", details.SQL),
		zap.Int("rows", details.Rows),
		zap.String("severity", "info"),
	)
}
