package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category enumerates the kinds of items that can be listed.
type Category string

const (
	CategoryFood        Category = "FOOD"
	CategoryClothes     Category = "CLOTHES"
	CategoryShoes       Category = "SHOES"
	CategoryBooks       Category = "BOOKS"
	CategoryElectronics Category = "ELECTRONICS"
	CategoryOther       Category = "OTHER"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryClothes,
	CategoryShoes,
	CategoryBooks,
	CategoryElectronics,
	CategoryOther,
}

// ParseCategory accepts any casing of a category name.
func ParseCategory(v string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(v)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

var categoryLabelsID = map[Category]string{
	CategoryFood:        "Makanan",
	CategoryClothes:     "Pakaian",
	CategoryShoes:       "Sepatu",
	CategoryBooks:       "Buku",
	CategoryElectronics: "Elektronik",
	CategoryOther:       "Lainnya",
}

// CategoryLabel renders a human label for the category in the given locale.
func CategoryLabel(c Category, locale string) string {
	if locale == "id" {
		if label, ok := categoryLabelsID[c]; ok {
			return label
		}
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return cases.Title(tag).String(strings.ToLower(string(c)))
}

// DonationStatus enumerates the lifecycle states of a listing.
type DonationStatus string

const (
	// DonationAvailable accepts new requests.
	DonationAvailable DonationStatus = "AVAILABLE"
	// DonationReserved has its whole quantity approved but not yet claimed.
	DonationReserved DonationStatus = "RESERVED"
	// DonationClaimed has been picked up or delivered.
	DonationClaimed DonationStatus = "CLAIMED"
	// DonationExpired aged out without being reserved.
	DonationExpired DonationStatus = "EXPIRED"
	// DonationClosed was closed by the donor or by the request cap.
	DonationClosed DonationStatus = "CLOSED"
)

// ParseDonationStatus accepts any casing of a status name.
func ParseDonationStatus(v string) (DonationStatus, bool) {
	s := DonationStatus(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case DonationAvailable, DonationReserved, DonationClaimed, DonationExpired, DonationClosed:
		return s, true
	}
	return "", false
}

// Donation is a listed item.
type Donation struct {
	ID          int64
	DonorID     int64
	Donor       *User
	ItemName    string
	Description string
	Category    Category
	Quantity    int
	Image       string
	Status      DonationStatus
	CreatedAt   time.Time
}

// DonationInput carries user supplied fields for creating or updating a listing.
// Nil fields are left untouched on update.
type DonationInput struct {
	ItemName    *string
	Description *string
	Category    *string
	Quantity    *int
	Status      *string
	Image       *string
}

// DonationFilter narrows listing queries.
type DonationFilter struct {
	Category Category
	Status   DonationStatus
	Search   string
	DonorID  int64
	Limit    int
	Offset   int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging values.
func (f DonationFilter) Normalize() DonationFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Matches reports whether d passes the filter. Paging is not considered.
func (f DonationFilter) Matches(d Donation) bool {
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.DonorID != 0 && d.DonorID != f.DonorID {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(d.ItemName), strings.ToLower(f.Search)) {
		return false
	}
	return true
}
