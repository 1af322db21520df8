package handlers

import (
	"net/http"
	"strconv"

	"sharekindness/internal/domain"
	"sharekindness/internal/storage"
)

type donationRequest struct {
	ItemName    *string  `json:"item_name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Quantity    *flexInt `json:"quantity"`
	Status      *string  `json:"status"`
}

func (req donationRequest) input() domain.DonationInput {
	return domain.DonationInput{
		ItemName:    req.ItemName,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity.intPtr(),
		Status:      req.Status,
	}
}

func parseDonationFilter(r *http.Request) (domain.DonationFilter, error) {
	q := r.URL.Query()
	f := domain.DonationFilter{Search: q.Get("search")}
	verr := &domain.ValidationError{}
	if v := q.Get("category"); v != "" {
		c, ok := domain.ParseCategory(v)
		if !ok {
			verr.Add("category", "Select a valid choice.")
		}
		f.Category = c
	}
	if v := q.Get("status"); v != "" {
		s, ok := domain.ParseDonationStatus(v)
		if !ok {
			verr.Add("status", "Select a valid choice.")
		}
		f.Status = s
	}
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				verr.Add(key, "A valid integer is required.")
				continue
			}
			*dst = n
		}
	}
	if v := q.Get("donor"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			verr.Add("donor", "A valid integer is required.")
		}
		f.DonorID = id
	}
	return f.Normalize(), verr.OrNil()
}

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	f, err := parseDonationFilter(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.Service.ListDonations(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.donationsOut(r.Context(), items))
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	image, err := a.bind(w, r, &req, "image")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	in := req.input()
	if _, err := domain.ValidateDonationInput(a.currentUserID(r), in); err != nil {
		a.fail(w, r, err)
		return
	}
	if len(image) > 0 {
		key, err := a.Files.SaveImage(r.Context(), storage.FolderDonationImages, image)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		in.Image = &key
	}
	d, err := a.Service.CreateDonation(r.Context(), a.currentUserID(r), in)
	if err != nil {
		if in.Image != nil {
			_ = a.Files.Delete(r.Context(), *in.Image)
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, a.donationOut(r.Context(), d))
}

func (a *App) DonationGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "Not found.")
		return
	}
	d, err := a.Service.GetDonation(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.donationOut(r.Context(), d))
}

// DonationUpdate handles PUT and PATCH; both apply the supplied fields only.
func (a *App) DonationUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "Not found.")
		return
	}
	var req donationRequest
	image, err := a.bind(w, r, &req, "image")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	existing, err := a.Service.GetDonation(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if existing.DonorID != a.currentUserID(r) {
		a.fail(w, r, domain.ErrForbidden)
		return
	}
	in := req.input()
	if len(image) > 0 {
		key, err := a.Files.SaveImage(r.Context(), storage.FolderDonationImages, image)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		in.Image = &key
	}
	d, err := a.Service.UpdateDonation(r.Context(), a.currentUserID(r), id, in)
	if err != nil {
		if in.Image != nil {
			_ = a.Files.Delete(r.Context(), *in.Image)
		}
		a.fail(w, r, err)
		return
	}
	if in.Image != nil && existing.Image != "" {
		if err := a.Files.Delete(r.Context(), existing.Image); err != nil {
			a.Logger.Warn().Err(err).Int64("donation_id", id).Msg("remove replaced image")
		}
	}
	a.json(w, http.StatusOK, a.donationOut(r.Context(), d))
}

func (a *App) DonationDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "Not found.")
		return
	}
	d, err := a.Service.DeleteDonation(r.Context(), a.currentUserID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if d.Image != "" {
		if err := a.Files.Delete(r.Context(), d.Image); err != nil {
			a.Logger.Warn().Err(err).Int64("donation_id", id).Msg("remove donation image")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
