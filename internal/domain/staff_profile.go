package domain

import "time"

// StaffProfile is the directory entry for a municipal operator. The linked
// User record (matched by email) carries the STAFF role used for authorization;
// the profile holds directory metadata only.
type StaffProfile struct {
	ID         string
	Name       string
	Email      string
	Department string
	Region     string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
