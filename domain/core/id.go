package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	PlanID  ID
	SweepID ID
)

func NewPlanID() PlanID   { return PlanID(NewID()) }
func NewSweepID() SweepID { return SweepID(NewID()) }

func (id PlanID) String() string  { return ID(id).String() }
func (id SweepID) String() string { return ID(id).String() }

// ParsePlanID parses a string into PlanID
func ParsePlanID(s string) (PlanID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("plan ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("plan ID %q is not a valid UUID: %w", s, err)
	}
	return PlanID(s), nil
}
