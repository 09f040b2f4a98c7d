package logger

import (
	"context"
	"fmt"
	"time"

	"ticketflo-sync/internal/config"
	"ticketflo-sync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level          zapcore.Level
	Message        string
	OrganizationID string
	ConnectionID   string
	Operation      string
	Caller         string
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	db      *mongo.Database
	logChan chan LogEntry
	appId   string
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		db:      mongodb.DB,
		logChan: make(chan LogEntry, 1000),
		appId:   cfg.AppId,
	}

	// Start the background worker immediately
	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop the entry rather than block a sync run
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		doc := bson.M{
			"app_id":     w.appId,
			"level":      entry.Level.String(),
			"message":    entry.Message,
			"caller":     entry.Caller,
			"created_at": time.Now().UTC(),
		}
		if entry.OrganizationID != "" {
			doc["organization_id"] = entry.OrganizationID
		}
		if entry.ConnectionID != "" {
			doc["connection_id"] = entry.ConnectionID
		}
		if entry.Operation != "" {
			doc["operation"] = entry.Operation
		}

		// Insert into DB (safely ignore errors to keep the app running)
		w.db.Collection("app_logs").InsertOne(context.Background(), doc)
	}
}
