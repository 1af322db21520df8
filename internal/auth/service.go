// Package auth issues and revokes JWT credentials and manages passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sharekindness/internal/domain"
	"sharekindness/internal/middleware"
)

type Config struct {
	Secret                 string
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	RotateRefreshTokens    bool
	BlacklistAfterRotation bool
	BcryptCost             int
}

// TokenPair holds an access token and, when issued, a refresh token.
type TokenPair struct {
	Access  string
	Refresh string
}

type Service struct {
	store  domain.Store
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(store domain.Store, cfg Config, logger zerolog.Logger) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 60 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// WithClock overrides the time source used for issuing and verifying tokens.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Secret is the HMAC key shared with the JWT middleware.
func (s *Service) Secret() string { return s.cfg.Secret }

func (s *Service) sign(userID int64, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	return middleware.SignJWT(s.cfg.Secret, middleware.TokenClaims{
		Sub:      strconv.FormatInt(userID, 10),
		Type:     typ,
		JTI:      uuid.NewString(),
		IssuedAt: now.Unix(),
		Exp:      now.Add(ttl).Unix(),
	})
}

// Issue creates a fresh access and refresh token for userID.
func (s *Service) Issue(userID int64) (TokenPair, error) {
	access, err := s.sign(userID, middleware.TokenAccess, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, middleware.TokenRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)

// Login checks email and password and returns the user with a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(email) == "" {
		verr.Add("email", "This field is required.")
	}
	if password == "" {
		verr.Add("password", "This field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, TokenPair{}, err
	}
	u, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, TokenPair{}, errInvalidCredentials
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		s.logger.Warn().Int64("user_id", u.ID).Msg("login rejected")
		return nil, TokenPair{}, errInvalidCredentials
	}
	pair, err := s.Issue(u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info().Int64("user_id", u.ID).Msg("login")
	return u, pair, nil
}

// verifyRefresh returns the claims of a usable refresh token.
func (s *Service) verifyRefresh(ctx context.Context, raw string) (*middleware.TokenClaims, int64, error) {
	claims, err := middleware.VerifyJWTAt(s.cfg.Secret, raw, s.now())
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Type != middleware.TokenRefresh {
		return nil, 0, fmt.Errorf("%w: token has wrong type", domain.ErrUnauthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.JTI != "" {
		revoked, err := s.store.Tokens().IsBlacklisted(ctx, claims.JTI)
		if err != nil {
			return nil, 0, err
		}
		if revoked {
			return nil, 0, fmt.Errorf("%w: token is blacklisted", domain.ErrUnauthorized)
		}
	}
	return claims, userID, nil
}

// Refresh exchanges a refresh token for a new access token. With rotation a
// new refresh token is returned too and, if configured, the old one revoked.
func (s *Service) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	if strings.TrimSpace(raw) == "" {
		return TokenPair{}, domain.NewValidationError("refresh", "This field is required.")
	}
	claims, userID, err := s.verifyRefresh(ctx, raw)
	if err != nil {
		return TokenPair{}, err
	}
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, fmt.Errorf("%w: user not found", domain.ErrUnauthorized)
		}
		return TokenPair{}, err
	}
	// The old token is revoked before anything is issued; of two concurrent
	// refreshes with the same token only the one that revokes it proceeds.
	if s.cfg.RotateRefreshTokens && s.cfg.BlacklistAfterRotation && claims.JTI != "" {
		revoked, err := s.store.Tokens().Blacklist(ctx, claims.JTI, userID, claims.ExpiresAt())
		if err != nil {
			return TokenPair{}, err
		}
		if !revoked {
			return TokenPair{}, fmt.Errorf("%w: token is blacklisted", domain.ErrUnauthorized)
		}
	}
	access, err := s.sign(userID, middleware.TokenAccess, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	pair := TokenPair{Access: access}
	if !s.cfg.RotateRefreshTokens {
		return pair, nil
	}
	if pair.Refresh, err = s.sign(userID, middleware.TokenRefresh, s.cfg.RefreshTTL); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Logout revokes the caller's refresh token.
func (s *Service) Logout(ctx context.Context, userID int64, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return domain.NewValidationError("refresh", "Refresh token is required.")
	}
	claims, owner, err := s.verifyRefresh(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.NewValidationError("refresh", "Token is invalid or expired")
		}
		return err
	}
	if owner != userID {
		return domain.NewValidationError("refresh", "Token is invalid or expired")
	}
	revoked, err := s.store.Tokens().Blacklist(ctx, claims.JTI, userID, claims.ExpiresAt())
	if err != nil {
		return err
	}
	if !revoked {
		return domain.NewValidationError("refresh", "Token is invalid or expired")
	}
	s.logger.Info().Int64("user_id", userID).Msg("logout")
	return nil
}

// RegisterInput carries a sign-up request.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	Roles          []string
	PhoneNumber    string
	City           string
	State          string
	Country        string
	Bio            string
	ProfilePicture string
}

// Validate checks required fields, formats and column limits.
func (in RegisterInput) Validate() error {
	verr := &domain.ValidationError{}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		verr.Add("username", "This field is required.")
	}
	verr.MaxLen("username", username, domain.MaxUsernameLen)
	email := strings.TrimSpace(in.Email)
	if email == "" {
		verr.Add("email", "This field is required.")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "Enter a valid email address.")
	}
	verr.MaxLen("email", email, domain.MaxEmailLen)
	if in.Password == "" {
		verr.Add("password", "This field is required.")
	} else if len(in.Password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLen))
	}
	for _, r := range in.Roles {
		if _, ok := domain.ParseRole(r); !ok {
			verr.Add("roles", fmt.Sprintf("%q is not a valid choice.", r))
		}
	}
	verr.MaxLen("phone_number", strings.TrimSpace(in.PhoneNumber), domain.MaxPhoneLen)
	verr.MaxLen("city", strings.TrimSpace(in.City), domain.MaxCityLen)
	verr.MaxLen("state", strings.TrimSpace(in.State), domain.MaxStateLen)
	if country := strings.TrimSpace(in.Country); country != "" && !domain.ValidCountry(country) {
		verr.Add("country", "Enter a two-letter country code.")
	}
	return verr.OrNil()
}

// Register creates an unverified account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	roles := make([]domain.Role, 0, len(in.Roles))
	for _, r := range in.Roles {
		role, _ := domain.ParseRole(r)
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		roles = append(roles, domain.DefaultRoles...)
	}
	u := &domain.User{
		Username:       strings.TrimSpace(in.Username),
		Email:          strings.TrimSpace(in.Email),
		PasswordHash:   hash,
		Roles:          roles,
		ProfilePicture: in.ProfilePicture,
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
		City:           strings.TrimSpace(in.City),
		State:          strings.TrimSpace(in.State),
		Country:        strings.ToUpper(strings.TrimSpace(in.Country)),
		Bio:            in.Bio,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", u.ID).Str("country", u.Country).Msg("user registered")
	return u, nil
}

// ChangePassword replaces the password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirm string) error {
	verr := &domain.ValidationError{}
	if oldPassword == "" {
		verr.Add("old_password", "This field is required.")
	}
	if newPassword == "" {
		verr.Add("new_password", "This field is required.")
	} else if len(newPassword) < minPasswordLen {
		verr.Add("new_password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLen))
	}
	if confirm == "" {
		verr.Add("confirm_password", "This field is required.")
	} else if newPassword != confirm {
		verr.Add("confirm_password", "New passwords do not match.")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(u.PasswordHash, oldPassword) {
		return domain.NewValidationError("old_password", "Old password is incorrect.")
	}
	hash, err := HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("password changed")
	return nil
}
