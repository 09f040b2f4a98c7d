package mapping

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ticketflo-sync/internal/features/contact"
	"ticketflo-sync/internal/hubspot"
)

// defaultPullProperties is always requested from HubSpot so pulled contacts
// carry enough data for the default local fields even without custom mappings.
var defaultPullProperties = []string{
	"email", "firstname", "lastname", "phone", "city", "country", "createdate", "lastmodifieddate",
}

// FieldMapper applies the configured field mappings in either direction
type FieldMapper struct{}

func NewFieldMapper() *FieldMapper {
	return &FieldMapper{}
}

// ToRemote builds the HubSpot property bag for a push. Fields that resolve
// to an empty value are omitted so a push never blanks a remote property.
func (fm *FieldMapper) ToRemote(c *contact.Contact, mappings []FieldMapping) (map[string]string, error) {
	properties := map[string]string{}

	for i := range mappings {
		m := &mappings[i]
		if !m.AppliesTo(DirectionPush) {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}

		value, ok := c.FieldValue(m.TicketFloField)
		if !ok {
			return nil, fmt.Errorf("field mapping references unknown contact field %q", m.TicketFloField)
		}

		formatted := formatForRemote(value, m.TransformType)
		if formatted == "" {
			continue
		}
		properties[m.HubSpotProperty] = formatted
	}

	return properties, nil
}

// FromRemote builds the partial local update for a pull, keyed by local
// field name. Empty remote properties are skipped.
func (fm *FieldMapper) FromRemote(hs *hubspot.Contact, mappings []FieldMapping) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	for i := range mappings {
		m := &mappings[i]
		if !m.AppliesTo(DirectionPull) {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}

		value, ok := hs.Properties[m.HubSpotProperty]
		if !ok || value == "" {
			continue
		}
		fields[m.TicketFloField] = parseFromRemote(value, m.TransformType)
	}

	return fields, nil
}

// PullProperties returns the HubSpot property names to request when paging
// the remote collection: the default set unioned with every pull-mapped
// property.
func (fm *FieldMapper) PullProperties(mappings []FieldMapping) []string {
	properties := make([]string, 0, len(defaultPullProperties)+len(mappings))
	seen := map[string]bool{}

	for _, p := range defaultPullProperties {
		properties = append(properties, p)
		seen[p] = true
	}

	for i := range mappings {
		m := &mappings[i]
		if !m.AppliesTo(DirectionPull) || seen[m.HubSpotProperty] {
			continue
		}
		properties = append(properties, m.HubSpotProperty)
		seen[m.HubSpotProperty] = true
	}

	return properties
}

// formatForRemote renders a local value as a HubSpot property string
func formatForRemote(value interface{}, transform TransformType) string {
	if value == nil {
		return ""
	}

	switch transform {
	case TransformCurrency:
		switch v := value.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', 2, 64)
		case int:
			return strconv.FormatFloat(float64(v), 'f', 2, 64)
		}
		return stringify(value)
	case TransformDate:
		if v, ok := value.(time.Time); ok {
			if v.IsZero() {
				return ""
			}
			return v.UTC().Format("2006-01-02")
		}
		return stringify(value)
	case TransformArrayToString:
		if v, ok := value.([]string); ok {
			return strings.Join(v, "; ")
		}
		return stringify(value)
	case TransformStringToArray:
		// Only meaningful on pull; pushing passes the value through
		return stringify(value)
	default:
		return stringify(value)
	}
}

// parseFromRemote converts a HubSpot property string into the local
// field's value
func parseFromRemote(value string, transform TransformType) interface{} {
	switch transform {
	case TransformCurrency:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return float64(0)
		}
		return f
	case TransformStringToArray:
		return splitList(value)
	case TransformDate:
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t
		}
		return value
	default:
		return value
	}
}

// splitList splits on commas and semicolons, trims each item, and drops
// the empties
func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})

	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(v, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}
