package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"time"

	"sharekindness/internal/domain"
	"sharekindness/internal/storage"
	"sharekindness/pkg/zip"
)

type profileRequest struct {
	Username    *string  `json:"username"`
	PhoneNumber *string  `json:"phone_number"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	Bio         *string  `json:"bio"`
	Roles       []string `json:"roles"`
}

func (a *App) ProfileGet(w http.ResponseWriter, r *http.Request) {
	u, err := a.store().Users().GetByID(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.userOut(u))
}

func (a *App) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	picture, err := a.bind(w, r, &req, "profile_picture")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	upd := domain.ProfileUpdate{
		Username:    req.Username,
		PhoneNumber: req.PhoneNumber,
		City:        req.City,
		State:       req.State,
		Bio:         req.Bio,
	}
	verr := &domain.ValidationError{}
	for _, v := range req.Roles {
		role, ok := domain.ParseRole(v)
		if !ok {
			verr.Add("roles", fmt.Sprintf("%q is not a valid choice.", v))
			continue
		}
		upd.Roles = append(upd.Roles, role)
	}
	if err := upd.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := verr.OrNil(); err != nil {
		a.fail(w, r, err)
		return
	}

	u, err := a.store().Users().GetByID(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	previousPicture := u.ProfilePicture
	if len(picture) > 0 {
		key, err := a.Files.SaveImage(r.Context(), storage.FolderProfilePics, picture)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		upd.ProfilePicture = &key
	}
	upd.Apply(u)
	if err := a.store().Users().Update(r.Context(), u); err != nil {
		if upd.ProfilePicture != nil {
			_ = a.Files.Delete(r.Context(), *upd.ProfilePicture)
		}
		a.fail(w, r, err)
		return
	}
	if upd.ProfilePicture != nil && previousPicture != "" {
		if err := a.Files.Delete(r.Context(), previousPicture); err != nil {
			a.Logger.Warn().Err(err).Int64("user_id", u.ID).Msg("remove replaced profile picture")
		}
	}
	a.json(w, http.StatusOK, a.userOut(u))
}

func (a *App) ProfileDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	u, err := a.store().Users().GetByID(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	owned, err := a.ownedDonations(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store().Users().Delete(r.Context(), userID); err != nil {
		a.fail(w, r, err)
		return
	}
	media := []string{u.ProfilePicture}
	for _, d := range owned {
		media = append(media, d.Image)
	}
	for _, key := range media {
		if key == "" {
			continue
		}
		if err := a.Files.Delete(r.Context(), key); err != nil {
			a.Logger.Warn().Err(err).Int64("user_id", userID).Str("key", key).Msg("remove account media")
		}
	}
	a.Logger.Info().Int64("user_id", userID).Msg("account deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ownedDonations pages through every listing of the donor.
func (a *App) ownedDonations(ctx context.Context, donorID int64) ([]domain.Donation, error) {
	var out []domain.Donation
	f := domain.DonationFilter{DonorID: donorID, Limit: domain.MaxListLimit}
	for {
		page, err := a.Service.ListDonations(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < f.Limit {
			return out, nil
		}
		f.Offset += len(page)
	}
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (a *App) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if _, err := a.bind(w, r, &req, ""); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		a.error(w, http.StatusBadRequest, "validation_error", "All fields are required.")
		return
	}
	if err := a.Auth.ChangePassword(r.Context(), a.currentUserID(r), req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		a.fail(w, r, err)
		return
	}
	a.message(w, http.StatusOK, "Password changed successfully!")
}

// Export streams a zip with the account's profile, listings, requests and
// uploaded media.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	ctx := r.Context()
	u, err := a.store().Users().GetByID(ctx, userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	dash, err := a.Service.Dashboard(ctx, userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	now := a.Service.Now()
	entries := make([]zip.Entry, 0, 4)
	add := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		entries = append(entries, zip.Entry{Name: name, Modified: now, Data: data})
		return nil
	}
	out := a.dashboardOut(ctx, dash)
	for _, doc := range []struct {
		name string
		v    any
	}{
		{"profile.json", a.userOut(u)},
		{"donations.json", out["donations"]},
		{"requests.json", out["requests"]},
	} {
		if err := add(doc.name, doc.v); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	media := []string{u.ProfilePicture}
	for _, item := range dash.Donations {
		media = append(media, item.Donation.Image)
	}
	for _, key := range media {
		if key == "" {
			continue
		}
		data, err := a.Files.Read(key)
		if err != nil {
			a.Logger.Warn().Err(err).Str("key", key).Msg("export: skip missing media")
			continue
		}
		entries = append(entries, zip.Entry{Name: path.Join("media", key), Modified: now, Data: data})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sharekindness-%s-%s.zip", u.Username, now.Format(time.DateOnly)))
	w.WriteHeader(http.StatusOK)
	if err := zip.Write(w, entries); err != nil {
		a.Logger.Error().Err(err).Int64("user_id", userID).Msg("export: write archive")
	}
}
