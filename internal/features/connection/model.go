package connection

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusConnected    Status = "connected"
	StatusTokenExpired Status = "token_expired"
	StatusError        Status = "error"
)

// SyncSettings is the per-connection sync configuration chosen in the app
type SyncSettings struct {
	ConflictResolution string `json:"conflict_resolution" bson:"conflict_resolution"` // "ticketflo_wins", "hubspot_wins", "most_recent_wins"
	AutoSync           bool   `json:"auto_sync" bson:"auto_sync"`
	Frequency          string `json:"frequency" bson:"frequency"` // "hourly", "daily"
}

// Connection is one organization's HubSpot OAuth connection
type Connection struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrganizationID   string             `json:"organization_id" bson:"organization_id"`
	AccessToken      string             `json:"-" bson:"access_token"`
	RefreshToken     string             `json:"-" bson:"refresh_token"`
	TokenExpiresAt   time.Time          `json:"token_expires_at" bson:"token_expires_at"`
	ConnectionStatus Status             `json:"connection_status" bson:"connection_status"`
	LastError        string             `json:"last_error,omitempty" bson:"last_error,omitempty"`
	SyncSettings     SyncSettings       `json:"sync_settings" bson:"sync_settings"`
	LastSyncAt       time.Time          `json:"last_sync_at" bson:"last_sync_at"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}
