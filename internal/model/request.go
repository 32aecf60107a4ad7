package model

import (
	"strings"
	"time"
)

// RequestStatus is the state of a pickup request.
type RequestStatus string

// Request statuses. Accepted and rejected are terminal.
const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// ParseRequestStatus resolves a status name case-insensitively.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	for _, st := range []RequestStatus{RequestPending, RequestAccepted, RequestRejected} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestRejected
}

// Request is a browser's ask to pick up a food item.
type Request struct {
	ID        string        `json:"id"`
	FoodID    string        `json:"food_id"`
	Requester Identity      `json:"requester"`
	Location  string        `json:"location"`
	Reason    string        `json:"reason"`
	Contact   string        `json:"contact"`
	Status    RequestStatus `json:"status"`

	// DonorEmail is copied from the food item when the request is created
	// and is never refreshed afterwards.
	DonorEmail string `json:"donor_email"`

	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}
