// internal/service/errors.go
package service

import (
	"fmt"

	"leadcollector_backend/internal/model"
)

// NotFoundError marks lookups of ids that don't resolve to a row.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// ValidationError covers rejected input: missing required fields, bad
// emails, unknown statuses. Never partially applied.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StateConflictError rejects operations against a campaign whose status
// forbids them (editing while sending, double-send), distinct from plain
// validation failures.
type StateConflictError struct {
	CampaignID uint
	Status     model.CampaignStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("campaign %d is %s and cannot be modified", e.CampaignID, e.Status)
}

// NoRecipientsError is the terminal failure of a campaign send that
// resolved to an empty audience.
type NoRecipientsError struct {
	CampaignID uint
}

func (e *NoRecipientsError) Error() string {
	return fmt.Sprintf("no recipients found for campaign %d", e.CampaignID)
}
