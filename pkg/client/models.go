package client

import "time"

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	ProfilePicture *string   `json:"profile_picture"`
	PhoneNumber    string    `json:"phone_number"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Country        string    `json:"country,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
}

type Donation struct {
	ID            int64     `json:"id"`
	Donor         *User     `json:"donor"`
	ItemName      string    `json:"item_name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	Quantity      int       `json:"quantity"`
	Image         *string   `json:"image"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type Request struct {
	ID                int64     `json:"id"`
	User              *User     `json:"user,omitempty"`
	Donation          *Donation `json:"donation,omitempty"`
	Status            string    `json:"status"`
	RequestedQuantity int       `json:"requested_quantity"`
	Comments          string    `json:"comments"`
	CreatedAt         time.Time `json:"created_at"`
}

// DashboardListing is one of the caller's listings with the requests it received.
type DashboardListing struct {
	Donation *Donation `json:"donation"`
	Requests []Request `json:"requests"`
}

type Dashboard struct {
	Donations []DashboardListing `json:"donations"`
	Requests  []Request          `json:"requests"`
}

type Notifications struct {
	PendingRequests  int `json:"pending_requests"`
	PendingDonations int `json:"pending_donations"`
}

type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalDonations   int64 `json:"total_donations"`
	AvailableItems   int64 `json:"available_items"`
	ClaimedDonations int64 `json:"claimed_donations"`
	ApprovedRequests int64 `json:"approved_requests"`
	ItemsShared      int64 `json:"items_shared"`
}

type RegisterInput struct {
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Roles          []string `json:"roles,omitempty"`
	PhoneNumber    string   `json:"phone_number,omitempty"`
	City           string   `json:"city,omitempty"`
	State          string   `json:"state,omitempty"`
	Country        string   `json:"country,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	ProfilePicture []byte   `json:"-"`
}

// DonationInput carries listing fields. Nil fields are omitted, which makes
// it usable for partial updates.
type DonationInput struct {
	ItemName    *string `json:"item_name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	Status      *string `json:"status,omitempty"`
	Image       []byte  `json:"-"`
}

type RequestInput struct {
	DonationID        int64  `json:"donation"`
	RequestedQuantity int    `json:"requested_quantity"`
	Comments          string `json:"comments,omitempty"`
	// Available is the listing's quantity when the caller knows it; zero
	// skips the upper bound check.
	Available int `json:"-"`
}

type ProfileInput struct {
	Username       *string  `json:"username,omitempty"`
	PhoneNumber    *string  `json:"phone_number,omitempty"`
	City           *string  `json:"city,omitempty"`
	State          *string  `json:"state,omitempty"`
	Bio            *string  `json:"bio,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	ProfilePicture []byte   `json:"-"`
}

// DonationFilter narrows ListDonations. Zero values are not sent.
type DonationFilter struct {
	Category string
	Status   string
	Search   string
	DonorID  int64
	Limit    int
	Offset   int
}
