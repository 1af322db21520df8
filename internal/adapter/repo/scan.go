package repo

import "sharekindness/internal/domain"

func rolesFromStrings(in []string) []domain.Role {
	out := make([]domain.Role, 0, len(in))
	for _, r := range in {
		if role, ok := domain.ParseRole(r); ok {
			out = append(out, role)
		}
	}
	return out
}

func rolesToStrings(in []domain.Role) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		out = append(out, string(r))
	}
	return out
}

// userScan matches the full users projection.
type userScan struct {
	u     domain.User
	roles []string
}

func (s *userScan) dest() []any {
	return []any{
		&s.u.ID, &s.u.Username, &s.u.Email, &s.u.PasswordHash, &s.roles,
		&s.u.ProfilePicture, &s.u.PhoneNumber, &s.u.City, &s.u.State, &s.u.Country,
		&s.u.Bio, &s.u.IsVerified, &s.u.CreatedAt, &s.u.UpdatedAt,
	}
}

func (s *userScan) result() *domain.User {
	u := s.u
	u.Roles = rolesFromStrings(s.roles)
	return &u
}

// summaryScan matches the seven-column user summary joined onto listings and
// requests; the id comes from the owning row's foreign key.
type summaryScan struct {
	u     domain.User
	roles []string
}

func (s *summaryScan) dest() []any {
	return []any{&s.u.Username, &s.u.Email, &s.roles, &s.u.ProfilePicture, &s.u.PhoneNumber, &s.u.City, &s.u.State}
}

func (s *summaryScan) result(id int64) *domain.User {
	u := s.u
	u.ID = id
	u.Roles = rolesFromStrings(s.roles)
	return &u
}

// donationScan matches the listing projection followed by its donor summary.
type donationScan struct {
	d        domain.Donation
	category string
	status   string
	donor    summaryScan
}

func (s *donationScan) dest() []any {
	base := []any{
		&s.d.ID, &s.d.DonorID, &s.d.ItemName, &s.d.Description, &s.category,
		&s.d.Quantity, &s.d.Image, &s.status, &s.d.CreatedAt,
	}
	return append(base, s.donor.dest()...)
}

func (s *donationScan) result() domain.Donation {
	d := s.d
	d.Category = domain.Category(s.category)
	d.Status = domain.DonationStatus(s.status)
	d.Donor = s.donor.result(d.DonorID)
	return d
}

// requestScan matches the seven request columns.
type requestScan struct {
	r      domain.Request
	status string
}

func (s *requestScan) dest() []any {
	return []any{&s.r.ID, &s.r.UserID, &s.r.DonationID, &s.status, &s.r.RequestedQuantity, &s.r.Comments, &s.r.CreatedAt}
}

func (s *requestScan) result() domain.Request {
	r := s.r
	r.Status = domain.RequestStatus(s.status)
	return r
}
