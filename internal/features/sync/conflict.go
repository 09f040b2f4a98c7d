package sync

import (
	"time"

	"ticketflo-sync/internal/features/mapping"
)

// Policy decides whether a write proceeds when both systems already hold a
// record for the same logical contact.
type Policy string

const (
	PolicyTicketFloWins  Policy = "ticketflo_wins"
	PolicyHubSpotWins    Policy = "hubspot_wins"
	PolicyMostRecentWins Policy = "most_recent_wins"
)

// DefaultPolicy applies when neither the request nor the connection
// settings name one.
const DefaultPolicy = PolicyTicketFloWins

func (p Policy) Valid() bool {
	switch p {
	case PolicyTicketFloWins, PolicyHubSpotWins, PolicyMostRecentWins:
		return true
	}
	return false
}

// ConflictResolver gates writes on matched contacts. It never gates
// creation of missing records, and regardless of its decision the
// correlation upsert still happens.
type ConflictResolver struct{}

func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{}
}

// ShouldWrite reports whether a matched record on the target side may be
// overwritten. direction is the sync direction: push targets HubSpot,
// pull targets the local store.
//
// ticketflo_wins treats the local record as canonical on both sides of a
// match: a push leaves the remote copy alone and a pull leaves the local
// copy alone. hubspot_wins is the remote mirror: pushes are suppressed,
// pulls always land. most_recent_wins writes only when the source side is
// strictly newer; equal timestamps suppress the write.
func (r *ConflictResolver) ShouldWrite(policy Policy, direction mapping.Direction, targetUpdatedAt, sourceUpdatedAt time.Time) bool {
	switch policy {
	case PolicyTicketFloWins:
		return false
	case PolicyHubSpotWins:
		return direction == mapping.DirectionPull
	case PolicyMostRecentWins:
		return sourceUpdatedAt.After(targetUpdatedAt)
	default:
		return false
	}
}
