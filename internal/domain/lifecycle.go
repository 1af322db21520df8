package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxQuantity is the largest quantity the integer columns hold.
const MaxQuantity = math.MaxInt32

const (
	// DefaultMaxRequestsPerDonation caps how many requests a listing collects
	// before it is closed.
	DefaultMaxRequestsPerDonation = 5

	maxItemNameLen  = 100
	maxCommentLen   = 255
	maxCommentWords = 50
)

// ValidateDonationInput checks a create payload and returns the normalized listing.
func ValidateDonationInput(donorID int64, in DonationInput) (Donation, error) {
	d := Donation{
		DonorID:  donorID,
		Category: CategoryOther,
		Quantity: 1,
		Status:   DonationAvailable,
	}
	verr := &ValidationError{}
	if in.ItemName == nil || strings.TrimSpace(*in.ItemName) == "" {
		verr.Add("item_name", "This field is required.")
	}
	if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		verr.Add("description", "This field is required.")
	}
	applyDonationInput(&d, in, verr)
	if err := verr.OrNil(); err != nil {
		return Donation{}, err
	}
	return d, nil
}

// ApplyDonationUpdate applies a partial update from the donor. The only
// status transition a donor may request is closing the listing.
func ApplyDonationUpdate(d *Donation, in DonationInput) error {
	verr := &ValidationError{}
	if in.ItemName != nil && strings.TrimSpace(*in.ItemName) == "" {
		verr.Add("item_name", "This field may not be blank.")
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		verr.Add("description", "This field may not be blank.")
	}
	next := *d
	applyDonationInput(&next, in, verr)
	if in.Status != nil {
		status, ok := ParseDonationStatus(*in.Status)
		switch {
		case !ok:
			verr.Add("status", fmt.Sprintf("%q is not a valid choice.", *in.Status))
		case status == d.Status:
		case status == DonationClosed:
			if err := Close(&next); err != nil {
				verr.Add("status", err.Error())
			}
		default:
			verr.Add("status", "Only closing a donation is allowed.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	*d = next
	return nil
}

func applyDonationInput(d *Donation, in DonationInput, verr *ValidationError) {
	if in.ItemName != nil {
		name := strings.TrimSpace(*in.ItemName)
		if utf8.RuneCountInString(name) > maxItemNameLen {
			verr.Add("item_name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxItemNameLen))
		}
		d.ItemName = name
	}
	if in.Description != nil {
		d.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		c, ok := ParseCategory(*in.Category)
		if !ok {
			verr.Add("category", fmt.Sprintf("'%s' is not a valid choice. Valid choices are: %v.", *in.Category, Categories))
		} else {
			d.Category = c
		}
	}
	if in.Quantity != nil {
		if *in.Quantity < 1 {
			verr.Add("quantity", "Ensure this value is greater than or equal to 1.")
		} else if *in.Quantity > MaxQuantity {
			verr.Add("quantity", fmt.Sprintf("Ensure this value is less than or equal to %d.", MaxQuantity))
		} else {
			d.Quantity = *in.Quantity
		}
	}
	if in.Image != nil {
		d.Image = *in.Image
	}
}

// ValidateComments enforces the request comment limits.
func ValidateComments(comments string) error {
	if utf8.RuneCountInString(comments) > maxCommentLen {
		return NewValidationError("comments", fmt.Sprintf("Ensure this field has no more than %d characters.", maxCommentLen))
	}
	if len(strings.Fields(comments)) > maxCommentWords {
		return NewValidationError("comments", fmt.Sprintf("Comments are limited to %d words.", maxCommentWords))
	}
	return nil
}

// CheckNewRequest decides whether requesterID may request qty items of d,
// given the number of requests d already has.
func CheckNewRequest(d Donation, requesterID int64, qty, existing, limit int) error {
	if d.Status != DonationAvailable {
		return ErrDonationUnavailable
	}
	if d.DonorID == requesterID {
		return fmt.Errorf("%w: you cannot request your own donation", ErrForbidden)
	}
	if limit > 0 && existing >= limit {
		return ErrRequestLimitReached
	}
	if qty <= 0 {
		return NewValidationError("requested_quantity", "Requested quantity must be greater than zero.")
	}
	if qty > d.Quantity {
		return ErrQuantityExceeded
	}
	return nil
}

// NewRequest builds the pending request that CheckNewRequest accepted.
func NewRequest(d Donation, requesterID int64, qty int, comments string) Request {
	return Request{
		UserID:            requesterID,
		DonationID:        d.ID,
		Status:            RequestPending,
		RequestedQuantity: qty,
		Comments:          strings.TrimSpace(comments),
	}
}

func checkDecidable(d Donation, r Request) error {
	if r.DonationID != d.ID {
		return fmt.Errorf("request %d does not belong to donation %d", r.ID, d.ID)
	}
	switch d.Status {
	case DonationClosed, DonationClaimed, DonationExpired:
		return fmt.Errorf("%w: this donation is no longer available for requests", ErrDonationUnavailable)
	}
	if r.Status != RequestPending {
		return ErrAlreadyProcessed
	}
	return nil
}

// Approve marks r approved and reserves its quantity on d. A donation whose
// quantity is exhausted becomes RESERVED until the recipient claims it.
func Approve(d *Donation, r *Request) error {
	if err := checkDecidable(*d, *r); err != nil {
		return err
	}
	if r.RequestedQuantity > d.Quantity {
		return ErrQuantityExceeded
	}
	r.Status = RequestApproved
	d.Quantity -= r.RequestedQuantity
	if d.Quantity <= 0 {
		d.Quantity = 0
		d.Status = DonationReserved
	}
	return nil
}

// Reject marks a pending request rejected.
func Reject(d *Donation, r *Request) error {
	if err := checkDecidable(*d, *r); err != nil {
		return err
	}
	r.Status = RequestRejected
	return nil
}

// Claim confirms pick-up by the requester. outstanding is the number of other
// approved but unclaimed requests on the donation.
func Claim(d *Donation, r *Request, userID int64, outstanding int) error {
	if r.UserID != userID {
		return ErrNotFound
	}
	switch r.Status {
	case RequestApproved:
	case RequestClaimed:
		return ErrAlreadyProcessed
	default:
		return ErrNotApproved
	}
	r.Status = RequestClaimed
	if d.Status == DonationReserved && outstanding == 0 {
		d.Status = DonationClaimed
	}
	return nil
}

// Close ends a listing at the donor's request.
func Close(d *Donation) error {
	switch d.Status {
	case DonationAvailable, DonationReserved:
		d.Status = DonationClosed
		return nil
	case DonationClosed:
		return nil
	}
	return fmt.Errorf("%w: cannot close a %s donation", ErrDonationUnavailable, strings.ToLower(string(d.Status)))
}

// Expired reports whether an available listing has outlived ttl.
func Expired(d Donation, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || d.Status != DonationAvailable {
		return false
	}
	return now.Sub(d.CreatedAt) > ttl
}

// Expire moves an outlived available listing to EXPIRED and reports whether
// it did.
func Expire(d *Donation, now time.Time, ttl time.Duration) bool {
	if !Expired(*d, now, ttl) {
		return false
	}
	d.Status = DonationExpired
	return true
}
