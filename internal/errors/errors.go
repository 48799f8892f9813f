// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is returned when no campaign has the requested ID.
type ErrCampaignNotFound struct {
	CampaignID int64
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// ErrCampaignNameTaken is returned when the name collides with an existing campaign.
type ErrCampaignNameTaken struct {
	Name string
}

func (e *ErrCampaignNameTaken) Error() string {
	return fmt.Sprintf("campaign with name %q already exists", e.Name)
}

// ErrInvalidCampaign reports a request field that failed validation.
type ErrInvalidCampaign struct {
	Field  string
	Reason string
}

func (e *ErrInvalidCampaign) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Helper constructors
func NewCampaignNotFound(id int64) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

func NewCampaignNameTaken(name string) error {
	return &ErrCampaignNameTaken{Name: name}
}

func NewInvalidCampaign(field, reason string) error {
	return &ErrInvalidCampaign{Field: field, Reason: reason}
}

func IsNotFound(err error) bool {
	var target *ErrCampaignNotFound
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ErrCampaignNameTaken
	return errors.As(err, &target)
}

func IsInvalid(err error) bool {
	var target *ErrInvalidCampaign
	return errors.As(err, &target)
}
