package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"sharekindness/internal/domain"
	"sharekindness/internal/workflow"
)

type receivedRequestJSON struct {
	ID                int64     `json:"id"`
	User              *userJSON `json:"user"`
	Status            string    `json:"status"`
	RequestedQuantity int       `json:"requested_quantity"`
	Comments          string    `json:"comments"`
}

type dashboardDonationJSON struct {
	Donation *donationJSON         `json:"donation"`
	Requests []receivedRequestJSON `json:"requests"`
}

type sentRequestJSON struct {
	ID                int64         `json:"id"`
	Donation          *donationJSON `json:"donation"`
	Status            string        `json:"status"`
	RequestedQuantity int           `json:"requested_quantity"`
	Comments          string        `json:"comments"`
}

func (a *App) dashboardOut(ctx context.Context, d *domain.Dashboard) map[string]any {
	donations := make([]dashboardDonationJSON, 0, len(d.Donations))
	for i := range d.Donations {
		item := d.Donations[i]
		reqs := make([]receivedRequestJSON, 0, len(item.Requests))
		for j := range item.Requests {
			req := item.Requests[j]
			reqs = append(reqs, receivedRequestJSON{
				ID:                req.ID,
				User:              a.userOut(req.User),
				Status:            string(req.Status),
				RequestedQuantity: req.RequestedQuantity,
				Comments:          req.Comments,
			})
		}
		donations = append(donations, dashboardDonationJSON{Donation: a.donationOut(ctx, &item.Donation), Requests: reqs})
	}
	sent := make([]sentRequestJSON, 0, len(d.Requests))
	for i := range d.Requests {
		req := d.Requests[i]
		sent = append(sent, sentRequestJSON{
			ID:                req.ID,
			Donation:          a.donationOut(ctx, req.Donation),
			Status:            string(req.Status),
			RequestedQuantity: req.RequestedQuantity,
			Comments:          req.Comments,
		})
	}
	return map[string]any{"donations": donations, "requests": sent}
}

func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.Service.Dashboard(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.dashboardOut(r.Context(), d))
}

type decideRequest struct {
	Action    string   `json:"action"`
	RequestID *flexInt `json:"request_id"`
}

func (a *App) DashboardDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if _, err := a.bind(w, r, &req, ""); err != nil {
		a.fail(w, r, err)
		return
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != workflow.ActionApprove && action != workflow.ActionReject {
		a.error(w, http.StatusBadRequest, "validation_error", "Invalid action specified.")
		return
	}
	if req.RequestID == nil || *req.RequestID <= 0 {
		a.error(w, http.StatusBadRequest, "validation_error", "Request ID is required.")
		return
	}
	decided, err := a.Service.Decide(r.Context(), a.currentUserID(r), action, int64(*req.RequestID))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	past := map[string]string{workflow.ActionApprove: "approved", workflow.ActionReject: "rejected"}[action]
	a.json(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Request %s successfully.", past),
		"request": a.requestOut(r.Context(), decided),
	})
}

func (a *App) Notifications(w http.ResponseWriter, r *http.Request) {
	n, err := a.Service.Notifications(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{
		"pending_requests":  n.PendingRequests,
		"pending_donations": n.PendingDonations,
	})
}
