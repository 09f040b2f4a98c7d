package mapping

import (
	"testing"
	"time"

	"ticketflo-sync/internal/features/contact"
	"ticketflo-sync/internal/hubspot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushMapping(field, property string, transform TransformType) FieldMapping {
	return FieldMapping{
		TicketFloField:  field,
		HubSpotProperty: property,
		SyncDirection:   DirectionPush,
		TransformType:   transform,
		IsEnabled:       true,
	}
}

func TestToRemoteTransforms(t *testing.T) {
	fm := NewFieldMapper()

	c := &contact.Contact{
		Email:         "Jane.Doe@Example.com",
		FirstName:     "Jane",
		TotalSpent:    12.5,
		LifetimeValue: 1000,
		Tags:          []string{"a", "b"},
		CreatedAt:     time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC),
	}

	mappings := []FieldMapping{
		pushMapping("email", "email", TransformNone),
		pushMapping("first_name", "firstname", TransformNone),
		pushMapping("total_spent", "total_revenue", TransformCurrency),
		pushMapping("lifetime_value", "ltv", TransformCurrency),
		pushMapping("tags", "segments", TransformArrayToString),
		pushMapping("created_at", "customer_since", TransformDate),
	}

	properties, err := fm.ToRemote(c, mappings)
	require.NoError(t, err)

	assert.Equal(t, "Jane.Doe@Example.com", properties["email"])
	assert.Equal(t, "Jane", properties["firstname"])
	assert.Equal(t, "12.50", properties["total_revenue"])
	assert.Equal(t, "1000.00", properties["ltv"])
	assert.Equal(t, "a; b", properties["segments"])
	assert.Equal(t, "2024-03-09", properties["customer_since"])
}

func TestToRemoteOmitsEmptyValues(t *testing.T) {
	fm := NewFieldMapper()

	c := &contact.Contact{Email: "jane@example.com"}

	mappings := []FieldMapping{
		pushMapping("email", "email", TransformNone),
		pushMapping("first_name", "firstname", TransformNone),
		pushMapping("phone", "phone", TransformNone),
		pushMapping("tags", "segments", TransformArrayToString),
	}

	properties, err := fm.ToRemote(c, mappings)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"email": "jane@example.com"}, properties)
}

func TestToRemoteSkipsPullOnlyMappings(t *testing.T) {
	fm := NewFieldMapper()

	c := &contact.Contact{Email: "jane@example.com", FirstName: "Jane"}

	mappings := []FieldMapping{
		pushMapping("email", "email", TransformNone),
		{TicketFloField: "first_name", HubSpotProperty: "firstname", SyncDirection: DirectionPull, TransformType: TransformNone},
	}

	properties, err := fm.ToRemote(c, mappings)
	require.NoError(t, err)

	_, hasFirstName := properties["firstname"]
	assert.False(t, hasFirstName)
}

func TestToRemoteUnknownFieldFails(t *testing.T) {
	fm := NewFieldMapper()

	mappings := []FieldMapping{pushMapping("shoe_size", "shoe_size", TransformNone)}

	_, err := fm.ToRemote(&contact.Contact{Email: "x@y.com"}, mappings)
	assert.Error(t, err)
}

func TestToRemoteUnknownTransformFails(t *testing.T) {
	fm := NewFieldMapper()

	mappings := []FieldMapping{pushMapping("email", "email", TransformType("reverse"))}

	_, err := fm.ToRemote(&contact.Contact{Email: "x@y.com"}, mappings)
	assert.Error(t, err)
}

func TestFromRemoteTransforms(t *testing.T) {
	fm := NewFieldMapper()

	hs := &hubspot.Contact{
		ID: "101",
		Properties: map[string]string{
			"firstname":     "Jane",
			"total_revenue": "99.90",
			"segments":      "x, y ; z",
			"email":         "jane@example.com",
		},
	}

	mappings := []FieldMapping{
		{TicketFloField: "first_name", HubSpotProperty: "firstname", SyncDirection: DirectionBoth, TransformType: TransformNone},
		{TicketFloField: "total_spent", HubSpotProperty: "total_revenue", SyncDirection: DirectionPull, TransformType: TransformCurrency},
		{TicketFloField: "tags", HubSpotProperty: "segments", SyncDirection: DirectionPull, TransformType: TransformStringToArray},
	}

	fields, err := fm.FromRemote(hs, mappings)
	require.NoError(t, err)

	assert.Equal(t, "Jane", fields["first_name"])
	assert.Equal(t, 99.90, fields["total_spent"])
	assert.Equal(t, []string{"x", "y", "z"}, fields["tags"])
}

func TestFromRemoteSkipsEmptyProperties(t *testing.T) {
	fm := NewFieldMapper()

	hs := &hubspot.Contact{
		ID:         "101",
		Properties: map[string]string{"firstname": ""},
	}

	mappings := []FieldMapping{
		{TicketFloField: "first_name", HubSpotProperty: "firstname", SyncDirection: DirectionPull, TransformType: TransformNone},
	}

	fields, err := fm.FromRemote(hs, mappings)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestFromRemoteBadCurrencyDefaultsToZero(t *testing.T) {
	fm := NewFieldMapper()

	hs := &hubspot.Contact{
		ID:         "101",
		Properties: map[string]string{"total_revenue": "not-a-number"},
	}

	mappings := []FieldMapping{
		{TicketFloField: "total_spent", HubSpotProperty: "total_revenue", SyncDirection: DirectionPull, TransformType: TransformCurrency},
	}

	fields, err := fm.FromRemote(hs, mappings)
	require.NoError(t, err)
	assert.Equal(t, float64(0), fields["total_spent"])
}

func TestPullPropertiesUnionsDefaultsAndMappings(t *testing.T) {
	fm := NewFieldMapper()

	mappings := []FieldMapping{
		{TicketFloField: "total_spent", HubSpotProperty: "total_revenue", SyncDirection: DirectionPull, TransformType: TransformCurrency},
		{TicketFloField: "email", HubSpotProperty: "email", SyncDirection: DirectionBoth, TransformType: TransformNone},
		{TicketFloField: "first_name", HubSpotProperty: "firstname", SyncDirection: DirectionPush, TransformType: TransformNone},
	}

	properties := fm.PullProperties(mappings)

	assert.Contains(t, properties, "email")
	assert.Contains(t, properties, "lastmodifieddate")
	assert.Contains(t, properties, "total_revenue")

	// No duplicates even when a mapping names a default property
	seen := map[string]int{}
	for _, p := range properties {
		seen[p]++
	}
	assert.Equal(t, 1, seen["email"])
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"x", "y", "z"}, splitList("x, y ; z"))
	assert.Equal(t, []string{"a"}, splitList("a"))
	assert.Empty(t, splitList(" ; , "))
}
