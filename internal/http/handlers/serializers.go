package handlers

import (
	"context"
	"time"

	"sharekindness/internal/domain"
	"sharekindness/internal/middleware"
)

type userJSON struct {
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
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

type donationJSON struct {
	ID            int64     `json:"id"`
	Donor         *userJSON `json:"donor"`
	ItemName      string    `json:"item_name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	Quantity      int       `json:"quantity"`
	Image         *string   `json:"image"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type requestJSON struct {
	ID                int64         `json:"id"`
	User              *userJSON     `json:"user,omitempty"`
	Donation          *donationJSON `json:"donation,omitempty"`
	Status            string        `json:"status"`
	RequestedQuantity int           `json:"requested_quantity"`
	Comments          string        `json:"comments"`
	CreatedAt         time.Time     `json:"created_at"`
}

func (a *App) mediaURL(key string) *string {
	if key == "" {
		return nil
	}
	u := key
	if a.Files != nil {
		u = a.Files.URL(key)
	}
	return &u
}

func (a *App) userOut(u *domain.User) *userJSON {
	if u == nil {
		return nil
	}
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return &userJSON{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Roles:          roles,
		ProfilePicture: a.mediaURL(u.ProfilePicture),
		PhoneNumber:    u.PhoneNumber,
		City:           u.City,
		State:          u.State,
		Country:        u.Country,
		Bio:            u.Bio,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
	}
}

func (a *App) donationOut(ctx context.Context, d *domain.Donation) *donationJSON {
	if d == nil {
		return nil
	}
	return &donationJSON{
		ID:            d.ID,
		Donor:         a.userOut(d.Donor),
		ItemName:      d.ItemName,
		Description:   d.Description,
		Category:      string(d.Category),
		CategoryLabel: domain.CategoryLabel(d.Category, middleware.LocaleFromContext(ctx)),
		Quantity:      d.Quantity,
		Image:         a.mediaURL(d.Image),
		Status:        string(d.Status),
		CreatedAt:     d.CreatedAt,
	}
}

func (a *App) donationsOut(ctx context.Context, items []domain.Donation) []*donationJSON {
	out := make([]*donationJSON, 0, len(items))
	for i := range items {
		out = append(out, a.donationOut(ctx, &items[i]))
	}
	return out
}

func (a *App) requestOut(ctx context.Context, r *domain.Request) *requestJSON {
	if r == nil {
		return nil
	}
	return &requestJSON{
		ID:                r.ID,
		User:              a.userOut(r.User),
		Donation:          a.donationOut(ctx, r.Donation),
		Status:            string(r.Status),
		RequestedQuantity: r.RequestedQuantity,
		Comments:          r.Comments,
		CreatedAt:         r.CreatedAt,
	}
}

func (a *App) requestsOut(ctx context.Context, items []domain.Request) []*requestJSON {
	out := make([]*requestJSON, 0, len(items))
	for i := range items {
		out = append(out, a.requestOut(ctx, &items[i]))
	}
	return out
}
