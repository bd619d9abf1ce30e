package logging

import (
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Record lifecycle
	AuditRecordLoaded   AuditEventType = "record_loaded"
	AuditRecordRejected AuditEventType = "record_rejected"
	AuditRecordReloaded AuditEventType = "record_reloaded"

	// Export lifecycle
	AuditExportStart    AuditEventType = "export_start"
	AuditExportComplete AuditEventType = "export_complete"
	AuditExportError    AuditEventType = "export_error"
	AuditExportBlocked  AuditEventType = "export_blocked"

	// File operations
	AuditFileRead  AuditEventType = "file_read"
	AuditFileWrite AuditEventType = "file_write"
)

// AuditEvent is one structured audit entry.
type AuditEvent struct {
	EventType  AuditEventType
	Category   Category
	JobID      string // export correlation id
	Target     string // file path or record title
	Success    bool
	DurationMs int64
	Error      string
	Message    string
	Fields     map[string]interface{}
}

// AuditLogger writes audit events under the "audit" logger name.
type AuditLogger struct {
	category Category
	jobID    string
}

// Audit returns an audit logger with no correlation context.
func Audit() *AuditLogger { return &AuditLogger{} }

// AuditWithJob returns an audit logger tagged with an export job id.
func AuditWithJob(jobID string) *AuditLogger {
	return &AuditLogger{category: CategoryExport, jobID: jobID}
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	if event.Category == "" {
		event.Category = a.category
	}
	if event.JobID == "" {
		event.JobID = a.jobID
	}

	mu.RLock()
	l := base.Named("audit")
	mu.RUnlock()

	fields := []zap.Field{
		zap.String("event", string(event.EventType)),
		zap.Bool("success", event.Success),
	}
	if event.Category != "" {
		fields = append(fields, zap.String("cat", string(event.Category)))
	}
	if event.JobID != "" {
		fields = append(fields, zap.String("job", event.JobID))
	}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.DurationMs > 0 {
		fields = append(fields, zap.Int64("dur_ms", event.DurationMs))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	msg := event.Message
	if msg == "" {
		msg = string(event.EventType)
	}
	if event.Success {
		l.Info(msg, fields...)
	} else {
		l.Warn(msg, fields...)
	}
}

// =============================================================================
// CONVENIENCE METHODS
// =============================================================================

// RecordLoaded logs a successful ingestion.
func (a *AuditLogger) RecordLoaded(path, jurisdiction, vertical string) {
	a.Log(AuditEvent{
		EventType: AuditRecordLoaded,
		Category:  CategoryIngest,
		Target:    path,
		Success:   true,
		Fields: map[string]interface{}{
			"jurisdiction": jurisdiction,
			"vertical":     vertical,
		},
	})
}

// RecordRejected logs a failed ingestion with its error kind.
func (a *AuditLogger) RecordRejected(path, kind string, err error) {
	a.Log(AuditEvent{
		EventType: AuditRecordRejected,
		Category:  CategoryIngest,
		Target:    path,
		Error:     errString(err),
		Fields:    map[string]interface{}{"kind": kind},
	})
}

// ExportStart logs the start of an export job.
func (a *AuditLogger) ExportStart(engine, target string) {
	a.Log(AuditEvent{
		EventType: AuditExportStart,
		Target:    target,
		Success:   true,
		Fields:    map[string]interface{}{"engine": engine},
	})
}

// ExportComplete logs the outcome of an export job.
func (a *AuditLogger) ExportComplete(target string, size int64, elapsed time.Duration, err error) {
	ev := AuditEvent{
		EventType:  AuditExportComplete,
		Target:     target,
		Success:    err == nil,
		DurationMs: elapsed.Milliseconds(),
		Fields:     map[string]interface{}{"bytes": size},
	}
	if err != nil {
		ev.EventType = AuditExportError
		ev.Error = err.Error()
	}
	a.Log(ev)
}

// ExportBlocked logs a trigger re-entry that was rejected.
func (a *AuditLogger) ExportBlocked(target string) {
	a.Log(AuditEvent{EventType: AuditExportBlocked, Target: target})
}

// FileOp logs a file read or write.
func (a *AuditLogger) FileOp(op AuditEventType, path string, size int64, err error) {
	a.Log(AuditEvent{
		EventType: op,
		Target:    path,
		Success:   err == nil,
		Error:     errString(err),
		Fields:    map[string]interface{}{"bytes": size},
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
