package sync

import (
	"testing"
	"time"

	"ticketflo-sync/internal/features/mapping"

	"github.com/stretchr/testify/assert"
)

func TestShouldWrite(t *testing.T) {
	resolver := NewConflictResolver()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	tests := []struct {
		name      string
		policy    Policy
		direction mapping.Direction
		target    time.Time
		source    time.Time
		want      bool
	}{
		{"ticketflo_wins never overwrites remote on push", PolicyTicketFloWins, mapping.DirectionPush, older, newer, false},
		{"ticketflo_wins never overwrites local on pull", PolicyTicketFloWins, mapping.DirectionPull, older, newer, false},
		{"hubspot_wins suppresses push", PolicyHubSpotWins, mapping.DirectionPush, older, newer, false},
		{"hubspot_wins always lands pulls", PolicyHubSpotWins, mapping.DirectionPull, newer, older, true},
		{"most_recent_wins writes when source is newer", PolicyMostRecentWins, mapping.DirectionPush, older, newer, true},
		{"most_recent_wins skips when target is newer", PolicyMostRecentWins, mapping.DirectionPush, newer, older, false},
		{"most_recent_wins skips on equal timestamps", PolicyMostRecentWins, mapping.DirectionPush, older, older, false},
		{"most_recent_wins applies to pull too", PolicyMostRecentWins, mapping.DirectionPull, older, newer, true},
		{"unknown policy suppresses writes", Policy("coin_flip"), mapping.DirectionPush, older, newer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.ShouldWrite(tt.policy, tt.direction, tt.target, tt.source)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyValid(t *testing.T) {
	assert.True(t, PolicyTicketFloWins.Valid())
	assert.True(t, PolicyHubSpotWins.Valid())
	assert.True(t, PolicyMostRecentWins.Valid())
	assert.False(t, Policy("").Valid())
	assert.False(t, Policy("newest").Valid())
}
