package domain

import "time"

// RequestStatus enumerates the lifecycle states of a request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
	RequestClaimed  RequestStatus = "CLAIMED"
)

// Request is a user's claim against a donation's available quantity.
type Request struct {
	ID                int64
	UserID            int64
	User              *User
	DonationID        int64
	Donation          *Donation
	Status            RequestStatus
	RequestedQuantity int
	Comments          string
	CreatedAt         time.Time
}

// DonationWithRequests groups a donor's listing with the requests it received.
type DonationWithRequests struct {
	Donation Donation
	Requests []Request
}

// Dashboard is the per-user overview of given and requested items.
type Dashboard struct {
	Donations []DonationWithRequests
	Requests  []Request
}

// Notifications counts the items that need the user's attention.
type Notifications struct {
	PendingRequests  int
	PendingDonations int
}

// Stats aggregates public impact counters.
type Stats struct {
	TotalUsers       int64
	TotalDonations   int64
	AvailableItems   int64
	ClaimedDonations int64
	ApprovedRequests int64
	ItemsShared      int64
}
