// Package domain holds the client registry types. Clients and people own
// recurring service subscriptions; marking an owner NLAC (no longer a
// client) takes it out of scheduling and benches its open projects.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a company the practice acts for.
type Client struct {
	ID           uuid.UUID
	Name         string
	NLACInactive bool
	CreatedAt    time.Time
}

// Person is an individual the practice acts for.
type Person struct {
	ID           uuid.UUID
	Name         string
	NLACInactive bool
	CreatedAt    time.Time
}

// NLACResult reports what an NLAC cascade touched.
type NLACResult struct {
	ServicesDeactivated int
	ProjectsBenched     int
}
