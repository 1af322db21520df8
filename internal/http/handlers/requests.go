package handlers

import (
	"net/http"

	"sharekindness/internal/domain"
)

type requestCreateRequest struct {
	Donation          *flexInt `json:"donation"`
	DonationID        *flexInt `json:"donation_id"`
	RequestedQuantity *flexInt `json:"requested_quantity"`
	Comments          string   `json:"comments"`
}

func (a *App) RequestsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Service.ListRequests(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.requestsOut(r.Context(), items))
}

func (a *App) RequestsCreate(w http.ResponseWriter, r *http.Request) {
	var req requestCreateRequest
	if _, err := a.bind(w, r, &req, ""); err != nil {
		a.fail(w, r, err)
		return
	}
	donation := req.Donation
	if donation == nil {
		donation = req.DonationID
	}
	if donation == nil || *donation <= 0 {
		a.error(w, http.StatusBadRequest, "validation_error", "Donation ID is required.")
		return
	}
	qty := 1
	if req.RequestedQuantity != nil {
		qty = int(*req.RequestedQuantity)
	}
	created, err := a.Service.SubmitRequest(r.Context(), a.currentUserID(r), int64(*donation), qty, req.Comments)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, a.requestOut(r.Context(), created))
}

func (a *App) RequestGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	req, err := a.Service.GetRequest(r.Context(), a.currentUserID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.requestOut(r.Context(), req))
}

func (a *App) RequestClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	req, err := a.Service.ClaimRequest(r.Context(), a.currentUserID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"message": "Donation claimed successfully.",
		"request": a.requestOut(r.Context(), req),
	})
}
