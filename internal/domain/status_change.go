package domain

import "time"

// StatusChange is an immutable audit entry in an issue's status timeline.
// Entries are ordered by append order as observed by the store; one entry is
// written per transition, seeded with the creation entry.
type StatusChange struct {
	ID        string
	IssueID   string
	Status    IssueStatus
	ChangedBy string
	ChangedAt time.Time
}
