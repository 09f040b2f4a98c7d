package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore is a custom Zap Core that intercepts logs
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	// Pull out the sync-context fields we attach in the orchestrator
	var organizationID, connectionID, operation string

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
		switch f.Key {
		case "organizationId":
			organizationID = f.String
		case "connectionId":
			connectionID = f.String
		case "operation":
			operation = f.String
		}
	}

	c.writer.AddLog(LogEntry{
		Level:          entry.Level,
		Message:        entry.Message,
		OrganizationID: organizationID,
		ConnectionID:   connectionID,
		Operation:      operation,
		Caller:         entry.Caller.Function,
	})

	// Call the underlying core so the entry still reaches the console
	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
