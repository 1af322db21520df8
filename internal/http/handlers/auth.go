package handlers

import (
	"net/http"
	"strings"

	"sharekindness/internal/auth"
	"sharekindness/internal/middleware"
	"sharekindness/internal/storage"
)

type registerRequest struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Roles       []string `json:"roles"`
	PhoneNumber string   `json:"phone_number"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Country     string   `json:"country"`
	Bio         string   `json:"bio"`
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	picture, err := a.bind(w, r, &req, "profile_picture")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	roles := req.Roles
	if len(roles) == 0 && strings.TrimSpace(req.Role) != "" {
		roles = strings.Split(req.Role, ",")
	}
	country := req.Country
	if country == "" {
		country = middleware.CountryFromContext(r.Context())
	}
	in := auth.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Roles:       roles,
		PhoneNumber: req.PhoneNumber,
		City:        req.City,
		State:       req.State,
		Country:     country,
		Bio:         req.Bio,
	}
	if err := in.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	if len(picture) > 0 {
		key, err := a.Files.SaveImage(r.Context(), storage.FolderProfilePics, picture)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		in.ProfilePicture = key
	}
	u, err := a.Auth.Register(r.Context(), in)
	if err != nil {
		if in.ProfilePicture != "" {
			_ = a.Files.Delete(r.Context(), in.ProfilePicture)
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully!",
		"user":    a.userOut(u),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if _, err := a.bind(w, r, &req, ""); err != nil {
		a.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "validation_error", "Email and password are required.")
		return
	}
	u, pair, err := a.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"message": "Login successful!",
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    a.userOut(u),
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (a *App) TokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if _, err := a.bind(w, r, &req, ""); err != nil {
		a.fail(w, r, err)
		return
	}
	pair, err := a.Auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	body := map[string]string{"access": pair.Access}
	if pair.Refresh != "" {
		body["refresh"] = pair.Refresh
	}
	a.json(w, http.StatusOK, body)
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if _, err := a.bind(w, r, &req, ""); err != nil {
		a.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		a.error(w, http.StatusBadRequest, "validation_error", "Refresh token is required for logout.")
		return
	}
	if err := a.Auth.Logout(r.Context(), a.currentUserID(r), req.Refresh); err != nil {
		a.fail(w, r, err)
		return
	}
	a.message(w, http.StatusOK, "Logout successful.")
}
