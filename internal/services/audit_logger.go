package services

import (
	"context"
	"log/slog"
	"time"
)

type correlationIDKey struct{}

// WithCorrelationID returns a copy of ctx carrying the request trace id
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationID returns the trace id stored by WithCorrelationID, or ""
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if correlationID, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return correlationID
	}
	return ""
}

// AuditLogger writes the ledger's audit trail as structured log records
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger,
	}
}

func (al *AuditLogger) LogExpenseCreated(ctx context.Context, expenseID int64, category, amount string, idempotencyKey *string) {
	attrs := []slog.Attr{
		slog.String("event_type", "expense_created"),
		slog.Int64("expense_id", expenseID),
		slog.String("category", category),
		slog.String("amount", amount),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	}
	if idempotencyKey != nil {
		attrs = append(attrs, slog.String("idempotency_key", *idempotencyKey))
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "expense created", attrs...)
}

func (al *AuditLogger) LogIdempotentReplay(ctx context.Context, idempotencyKey string, existingExpenseID int64, concurrent bool) {
	al.logger.InfoContext(ctx, "idempotent create replayed",
		slog.String("event_type", "expense_idempotency_replay"),
		slog.String("idempotency_key", idempotencyKey),
		slog.Int64("existing_expense_id", existingExpenseID),
		slog.Bool("concurrent_insert", concurrent),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogExpenseDeleted(ctx context.Context, expenseID int64) {
	al.logger.WarnContext(ctx, "expense deleted",
		slog.String("event_type", "expense_deleted"),
		slog.Int64("expense_id", expenseID),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogLedgerReset(ctx context.Context, deleted int64) {
	al.logger.WarnContext(ctx, "ledger reset",
		slog.String("event_type", "ledger_reset"),
		slog.Int64("deleted", deleted),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogCircuitBreakerStateChange(ctx context.Context, service string, oldState, newState CircuitBreakerState) {
	al.logger.WarnContext(ctx, "circuit breaker state change",
		slog.String("event_type", "circuit_breaker_state_change"),
		slog.String("service", service),
		slog.String("old_state", oldState.String()),
		slog.String("new_state", newState.String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}
