package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWorkRecord is wrapped by every work record validation failure.
var ErrInvalidWorkRecord = errors.New("invalid work record")

// WorkStatus is the outreach state a worker records against a company.
type WorkStatus string

const (
	WorkStatusDraft     WorkStatus = "draft"
	WorkStatusScheduled WorkStatus = "scheduled"
	WorkStatusSent      WorkStatus = "sent"
	WorkStatusReplied   WorkStatus = "replied"
	WorkStatusRejected  WorkStatus = "rejected"
)

// ParseWorkStatus converts a string into a WorkStatus (case-insensitive).
func ParseWorkStatus(s string) (WorkStatus, error) {
	switch st := WorkStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case WorkStatusDraft, WorkStatusScheduled, WorkStatusSent, WorkStatusReplied, WorkStatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unsupported status %q", ErrInvalidWorkRecord, s)
	}
}

// WorkRecord is a single outreach action taken by a worker for a list.
type WorkRecord struct {
	ID         uint64     `json:"id"`
	ListID     string     `json:"list_id"`
	WorkerID   string     `json:"worker_id"`
	CompanyURL string     `json:"company_url"`
	Status     WorkStatus `json:"status"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks the WorkRecord for required fields and supported values.
func (w WorkRecord) Validate() error {
	if strings.TrimSpace(w.ListID) == "" {
		return fmt.Errorf("%w: list id must not be empty", ErrInvalidWorkRecord)
	}
	if strings.TrimSpace(w.WorkerID) == "" {
		return fmt.Errorf("%w: worker id must not be empty", ErrInvalidWorkRecord)
	}
	if _, err := ParseWorkStatus(string(w.Status)); err != nil {
		return err
	}
	if w.CreatedAt.IsZero() {
		return fmt.Errorf("%w: createdAt must be set", ErrInvalidWorkRecord)
	}
	return nil
}
