package sync

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OperationType string

const (
	OperationBulkPush    OperationType = "bulk_push"
	OperationBulkPull    OperationType = "bulk_pull"
	OperationContactPush OperationType = "contact_push"
)

type LogStatus string

const (
	LogStatusInProgress LogStatus = "in_progress"
	LogStatusSuccess    LogStatus = "success"
	LogStatusFailed     LogStatus = "failed"
)

// ItemError is one contact's failure inside a batch run
type ItemError struct {
	ContactID        string `json:"contactId,omitempty" bson:"contact_id,omitempty"`
	HubSpotContactID string `json:"hubspotContactId,omitempty" bson:"hubspot_contact_id,omitempty"`
	Email            string `json:"email,omitempty" bson:"email,omitempty"`
	Error            string `json:"error" bson:"error"`
}

// SyncLog is the audit record for one sync operation. Finalized exactly
// once; never reopened.
type SyncLog struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConnectionID       primitive.ObjectID `json:"connection_id" bson:"connection_id"`
	OperationType      OperationType      `json:"operation_type" bson:"operation_type"`
	Status             LogStatus          `json:"status" bson:"status"`
	RecordsProcessed   int                `json:"records_processed" bson:"records_processed"`
	RecordsCreated     int                `json:"records_created" bson:"records_created"`
	RecordsUpdated     int                `json:"records_updated" bson:"records_updated"`
	RecordsFailed      int                `json:"records_failed" bson:"records_failed"`
	ErrorDetails       []ItemError        `json:"error_details,omitempty" bson:"error_details,omitempty"`
	ErrorMessage       string             `json:"error_message,omitempty" bson:"error_message,omitempty"`
	TicketFloContactID string             `json:"ticketflo_contact_id,omitempty" bson:"ticketflo_contact_id,omitempty"`
	HubSpotContactID   string             `json:"hubspot_contact_id,omitempty" bson:"hubspot_contact_id,omitempty"`
	StartedAt          time.Time          `json:"started_at" bson:"started_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Options controls one sync run
type Options struct {
	ConflictResolution Policy
	CreateMissing      bool
	UpdateExisting     bool
}

// DefaultOptions matches the behavior of a run with no options supplied
func DefaultOptions() Options {
	return Options{
		CreateMissing:  true,
		UpdateExisting: true,
	}
}

// RunResult is the aggregate outcome of a bulk push or pull
type RunResult struct {
	Processed int         `json:"processed"`
	Created   int         `json:"created"`
	Updated   int         `json:"updated"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// SingleResult is the outcome of pushing one specific contact
type SingleResult struct {
	Created          bool   `json:"created"`
	Updated          bool   `json:"updated"`
	HubSpotContactID string `json:"hubspotContactId"`
}

// CountResult reports how many contacts each side holds
type CountResult struct {
	TicketFloCount int64 `json:"ticketfloCount"`
	HubSpotCount   int   `json:"hubspotCount"`
}

// StatusResult summarizes a connection for the status endpoint
type StatusResult struct {
	ConnectionStatus   string     `json:"connection_status"`
	ConflictResolution string     `json:"conflict_resolution"`
	AutoSync           bool       `json:"auto_sync"`
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"`
}

// itemOutcome is the per-contact result folded into RunResult counters
type itemOutcome struct {
	Created          bool
	Updated          bool
	HubSpotContactID string
}
