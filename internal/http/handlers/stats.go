package handlers

import "net/http"

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	st, err := a.Service.Stats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"total_users":       st.TotalUsers,
		"total_donations":   st.TotalDonations,
		"available_items":   st.AvailableItems,
		"claimed_donations": st.ClaimedDonations,
		"approved_requests": st.ApprovedRequests,
		"items_shared":      st.ItemsShared,
	})
}
