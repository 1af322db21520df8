package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type messageResponse struct {
	Message string `json:"message"`
}

// Health pings the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, call{method: http.MethodGet, path: "/v1/healthz"}, nil)
}

// Register creates an account. A profile picture switches the body to multipart.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	cl := call{method: http.MethodPost, path: "/api/register/", body: in}
	if len(in.ProfilePicture) > 0 {
		fields := map[string]string{
			"username":     in.Username,
			"email":        in.Email,
			"password":     in.Password,
			"phone_number": in.PhoneNumber,
			"city":         in.City,
			"state":        in.State,
			"country":      in.Country,
			"bio":          in.Bio,
		}
		if len(in.Roles) > 0 {
			fields["roles"] = strings.Join(in.Roles, ",")
		}
		cl.body = nil
		cl.form = &form{fields: fields, fileField: "profile_picture", fileName: "profile", file: in.ProfilePicture}
	}
	var out struct {
		User *User `json:"user"`
	}
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login stores the returned token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	f := formCheck{}
	f.require("email", email)
	f.require("password", password)
	if err := f.err(); err != nil {
		return nil, err
	}
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
		User    *User  `json:"user"`
	}
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		path:   "/api/login/",
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.Save(Tokens{Access: out.Access, Refresh: out.Refresh}); err != nil {
		return nil, fmt.Errorf("client: save tokens: %w", err)
	}
	return out.User, nil
}

// Logout revokes the refresh token on the server and clears the local session
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	tok, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("client: load tokens: %w", err)
	}
	defer func() { _ = c.tokens.Clear() }()
	if tok.Refresh == "" {
		return nil
	}
	return c.doJSON(ctx, call{
		method: http.MethodPost,
		path:   "/api/logout/",
		body:   map[string]string{"refresh": tok.Refresh},
		auth:   true,
	}, nil)
}

func (f DonationFilter) values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("category", f.Category)
	set("status", f.Status)
	set("search", f.Search)
	if f.DonorID > 0 {
		q.Set("donor", strconv.FormatInt(f.DonorID, 10))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

func (c *Client) ListDonations(ctx context.Context, f DonationFilter) ([]Donation, error) {
	var out []Donation
	err := c.doJSON(ctx, call{method: http.MethodGet, path: "/api/donations/", query: f.values()}, &out)
	return out, err
}

func (c *Client) GetDonation(ctx context.Context, id int64) (*Donation, error) {
	var out Donation
	if err := c.doJSON(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/api/donations/%d/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (in DonationInput) call(method, path string) call {
	cl := call{method: method, path: path, body: in, auth: true}
	if len(in.Image) == 0 {
		return cl
	}
	fields := map[string]string{}
	for k, v := range map[string]*string{"item_name": in.ItemName, "description": in.Description, "category": in.Category, "status": in.Status} {
		if v != nil {
			fields[k] = *v
		}
	}
	if in.Quantity != nil {
		fields["quantity"] = strconv.Itoa(*in.Quantity)
	}
	cl.body = nil
	cl.form = &form{fields: fields, fileField: "image", fileName: "image", file: in.Image}
	return cl
}

func (c *Client) CreateDonation(ctx context.Context, in DonationInput) (*Donation, error) {
	if err := in.validateCreate(); err != nil {
		return nil, err
	}
	var out Donation
	if err := c.doJSON(ctx, in.call(http.MethodPost, "/api/donations/"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDonation sends a partial update of the listing.
func (c *Client) UpdateDonation(ctx context.Context, id int64, in DonationInput) (*Donation, error) {
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, &FormError{Fields: map[string]string{"quantity": "Quantity cannot be negative."}}
	}
	var out Donation
	if err := c.doJSON(ctx, in.call(http.MethodPatch, fmt.Sprintf("/api/donations/%d/", id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDonation(ctx context.Context, id int64) error {
	return c.doJSON(ctx, call{method: http.MethodDelete, path: fmt.Sprintf("/api/donations/%d/", id), auth: true}, nil)
}

func (c *Client) ListRequests(ctx context.Context) ([]Request, error) {
	var out []Request
	err := c.doJSON(ctx, call{method: http.MethodGet, path: "/api/requests/", auth: true}, &out)
	return out, err
}

func (c *Client) GetRequest(ctx context.Context, id int64) (*Request, error) {
	var out Request
	if err := c.doJSON(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/api/requests/%d/", id), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest asks for part of a listing.
func (c *Client) CreateRequest(ctx context.Context, in RequestInput) (*Request, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out Request
	if err := c.doJSON(ctx, call{method: http.MethodPost, path: "/api/requests/", body: in, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimRequest marks an approved request as picked up.
func (c *Client) ClaimRequest(ctx context.Context, id int64) (*Request, error) {
	var out struct {
		Request *Request `json:"request"`
	}
	if err := c.doJSON(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/api/requests/%d/claim/", id), auth: true}, &out); err != nil {
		return nil, err
	}
	return out.Request, nil
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.doJSON(ctx, call{method: http.MethodGet, path: "/api/user-dashboard/", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decide approves or rejects a request on one of the caller's listings.
func (c *Client) Decide(ctx context.Context, action string, requestID int64) (*Request, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != "approve" && action != "reject" {
		return nil, &FormError{Fields: map[string]string{"action": "Action must be approve or reject."}}
	}
	var out struct {
		Request *Request `json:"request"`
	}
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		path:   "/api/user-dashboard/",
		body:   map[string]any{"action": action, "request_id": requestID},
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

func (c *Client) Approve(ctx context.Context, requestID int64) (*Request, error) {
	return c.Decide(ctx, "approve", requestID)
}

func (c *Client) Reject(ctx context.Context, requestID int64) (*Request, error) {
	return c.Decide(ctx, "reject", requestID)
}

func (c *Client) Notifications(ctx context.Context) (*Notifications, error) {
	var out Notifications
	if err := c.doJSON(ctx, call{method: http.MethodGet, path: "/api/user-notifications/", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := c.doJSON(ctx, call{method: http.MethodGet, path: "/api/user/profile/", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (*User, error) {
	cl := call{method: http.MethodPut, path: "/api/user/profile/", body: in, auth: true}
	if len(in.ProfilePicture) > 0 {
		fields := map[string]string{}
		for k, v := range map[string]*string{"username": in.Username, "phone_number": in.PhoneNumber, "city": in.City, "state": in.State, "bio": in.Bio} {
			if v != nil {
				fields[k] = *v
			}
		}
		if len(in.Roles) > 0 {
			fields["roles"] = strings.Join(in.Roles, ",")
		}
		cl.body = nil
		cl.form = &form{fields: fields, fileField: "profile_picture", fileName: "profile", file: in.ProfilePicture}
	}
	var out User
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes the account and clears the local session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.doJSON(ctx, call{method: http.MethodDelete, path: "/api/user/profile/", auth: true}, nil); err != nil {
		return err
	}
	return c.tokens.Clear()
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	f := formCheck{}
	f.require("old_password", oldPassword)
	f.require("new_password", newPassword)
	f.require("confirm_password", confirm)
	if newPassword != "" && confirm != "" && newPassword != confirm {
		f["confirm_password"] = "New passwords do not match."
	}
	if err := f.err(); err != nil {
		return err
	}
	return c.doJSON(ctx, call{
		method: http.MethodPost,
		path:   "/api/user/change-password/",
		body:   map[string]string{"old_password": oldPassword, "new_password": newPassword, "confirm_password": confirm},
		auth:   true,
	}, nil)
}

// Export downloads the zip archive of the account's data.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	return c.do(ctx, call{method: http.MethodGet, path: "/api/user/export/", auth: true})
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.doJSON(ctx, call{method: http.MethodGet, path: "/api/stats/"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Log forwards a client-side log line to the server.
func (c *Client) Log(ctx context.Context, level, message string, fields map[string]any) error {
	return c.doJSON(ctx, call{
		method: http.MethodPost,
		path:   "/api/log/",
		body:   map[string]any{"level": level, "message": message, "context": fields},
	}, nil)
}
