package contact

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is a TicketFlo contact. Email is stored lower-cased and is the
// natural key used to correlate with HubSpot records.
type Contact struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrganizationID  string             `json:"organization_id" bson:"organization_id"`
	Email           string             `json:"email" bson:"email"`
	FirstName       string             `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName        string             `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Phone           string             `json:"phone,omitempty" bson:"phone,omitempty"`
	City            string             `json:"city,omitempty" bson:"city,omitempty"`
	Country         string             `json:"country,omitempty" bson:"country,omitempty"`
	TotalSpent      float64            `json:"total_spent" bson:"total_spent"`
	TotalOrders     int                `json:"total_orders" bson:"total_orders"`
	LifetimeValue   float64            `json:"lifetime_value" bson:"lifetime_value"`
	Tags            []string           `json:"tags" bson:"tags"`
	HubSpotContactID string            `json:"hubspot_contact_id,omitempty" bson:"hubspot_contact_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// FieldValue resolves a contact field by its configured mapping name.
// The second return reports whether the field name is known.
func (c *Contact) FieldValue(field string) (interface{}, bool) {
	switch field {
	case "id":
		return c.ID.Hex(), true
	case "email":
		return c.Email, true
	case "first_name":
		return c.FirstName, true
	case "last_name":
		return c.LastName, true
	case "phone":
		return c.Phone, true
	case "city":
		return c.City, true
	case "country":
		return c.Country, true
	case "total_spent":
		return c.TotalSpent, true
	case "total_orders":
		return c.TotalOrders, true
	case "lifetime_value":
		return c.LifetimeValue, true
	case "tags":
		return c.Tags, true
	case "created_at":
		return c.CreatedAt, true
	case "updated_at":
		return c.UpdatedAt, true
	default:
		return nil, false
	}
}
