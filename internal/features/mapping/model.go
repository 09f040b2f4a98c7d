package mapping

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Direction is the side of the sync a field mapping (or correlation
// timestamp) applies to.
type Direction string

const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
	DirectionBoth Direction = "both"
)

// TransformType is the closed set of value transforms a mapping may carry.
// Unknown kinds fail the run instead of passing values through untouched.
type TransformType string

const (
	TransformNone          TransformType = "none"
	TransformCurrency      TransformType = "currency"
	TransformDate          TransformType = "date"
	TransformArrayToString TransformType = "array_to_string"
	TransformStringToArray TransformType = "string_to_array"
)

// FieldMapping translates one TicketFlo field to/from one HubSpot property
type FieldMapping struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConnectionID    primitive.ObjectID `json:"connection_id" bson:"connection_id"`
	TicketFloField  string             `json:"ticketflo_field" bson:"ticketflo_field"`
	HubSpotProperty string             `json:"hubspot_property" bson:"hubspot_property"`
	SyncDirection   Direction          `json:"sync_direction" bson:"sync_direction"`
	TransformType   TransformType      `json:"transform_type" bson:"transform_type"`
	IsEnabled       bool               `json:"is_enabled" bson:"is_enabled"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// Validate rejects mappings with unknown directions or transform kinds
func (m *FieldMapping) Validate() error {
	switch m.SyncDirection {
	case DirectionPush, DirectionPull, DirectionBoth:
	default:
		return fmt.Errorf("field mapping %s: unknown sync direction %q", m.TicketFloField, m.SyncDirection)
	}

	switch m.TransformType {
	case TransformNone, TransformCurrency, TransformDate, TransformArrayToString, TransformStringToArray:
	case "":
		// Legacy rows without a transform behave as pass-through
	default:
		return fmt.Errorf("field mapping %s: unknown transform type %q", m.TicketFloField, m.TransformType)
	}

	return nil
}

// AppliesTo reports whether the mapping participates in the given direction
func (m *FieldMapping) AppliesTo(dir Direction) bool {
	return m.SyncDirection == dir || m.SyncDirection == DirectionBoth
}

// ContactMapping correlates a TicketFlo contact with a HubSpot contact for
// one connection. Unique on (connection_id, contact_id).
type ContactMapping struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConnectionID     primitive.ObjectID `json:"connection_id" bson:"connection_id"`
	ContactID        primitive.ObjectID `json:"contact_id" bson:"contact_id"`
	HubSpotContactID string             `json:"hubspot_contact_id" bson:"hubspot_contact_id"`
	LastPushedAt     *time.Time         `json:"last_pushed_at,omitempty" bson:"last_pushed_at,omitempty"`
	LastPulledAt     *time.Time         `json:"last_pulled_at,omitempty" bson:"last_pulled_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
}
