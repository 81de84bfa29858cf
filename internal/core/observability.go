package core

import (
	"context"
	"time"
)

// ClockFunc adapts a function into a time source. A nil ClockFunc reads the
// wall clock.
type ClockFunc func() time.Time

// Now returns the current time in UTC.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// AuditStatus captures the outcome of an audited operation.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one service operation for the audit trail.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  string
	ActorID   string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries for mutating operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan ends a traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// NoopTracer discards spans.
type NoopTracer struct{}

// Start implements Tracer.
func (NoopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type operationMeta struct {
	entity EntityType
	action Action
}

// auditedOperations lists the mutating operations written to the audit
// trail. Reads are traced and measured but not audited.
var auditedOperations = map[string]operationMeta{
	"add_organization":         {EntityOrganization, ActionCreate},
	"update_organization":      {EntityOrganization, ActionUpdate},
	"delete_organization":      {EntityOrganization, ActionDelete},
	"add_user":                 {EntityUser, ActionCreate},
	"delete_user":              {EntityUser, ActionDelete},
	"add_event":                {EntityEvent, ActionCreate},
	"update_event":             {EntityEvent, ActionUpdate},
	"delete_event":             {EntityEvent, ActionDelete},
	"add_category":             {EntityEvent, ActionUpdate},
	"update_category":          {EntityEvent, ActionUpdate},
	"delete_category":          {EntityEvent, ActionUpdate},
	"add_table":                {EntityTable, ActionCreate},
	"add_bulk_tables":          {EntityTable, ActionCreate},
	"update_table":             {EntityTable, ActionUpdate},
	"delete_table":             {EntityTable, ActionDelete},
	"delete_all_tables":        {EntityTable, ActionDelete},
	"add_sale":                 {EntitySale, ActionCreate},
	"cancel_sale":              {EntitySale, ActionDelete},
	"update_sale_and_table":    {EntitySale, ActionUpdate},
	"approve_entry":            {EntitySale, ActionUpdate},
	"collect_debt_and_approve": {EntitySale, ActionUpdate},
	"add_saas_transaction":     {EntitySaaSTransaction, ActionCreate},
	"delete_saas_transaction":  {EntitySaaSTransaction, ActionDelete},
	"add_saas_expense":         {EntitySaaSExpense, ActionCreate},
	"delete_saas_expense":      {EntitySaaSExpense, ActionDelete},
	"add_announcement":         {EntityAnnouncement, ActionCreate},
	"delete_announcement":      {EntityAnnouncement, ActionDelete},
	"mark_notification_read":   {EntityNotification, ActionUpdate},
	"clear_all_notifications":  {EntityNotification, ActionUpdate},
}
