package domain

import "fmt"

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority accepts the canonical spelling. An empty string yields Medium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", fmt.Errorf("priority %q must be one of Low, Medium, High: %w", s, ErrValidation)
}

type Status string

const (
	StatusPlanned    Status = "Planned"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
	StatusBlocked    Status = "Blocked"
)

// ParseStatus accepts the canonical spelling. An empty string yields Planned.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusPlanned, nil
	case StatusPlanned, StatusInProgress, StatusDone, StatusBlocked:
		return Status(s), nil
	}
	return "", fmt.Errorf("status %q must be one of Planned, In Progress, Done, Blocked: %w", s, ErrValidation)
}

// Role is the relationship between a caller and a plan.
type Role string

const (
	RoleNone    Role = "none"
	RoleOwner   Role = "owner"
	RoleCurator Role = "curator"
)
