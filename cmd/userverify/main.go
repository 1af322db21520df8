package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sharekindness/internal/adapter/repo"
	"sharekindness/internal/domain"
	"sharekindness/internal/infra"
)

func main() {
	var (
		idFlag       string
		emailFlag    string
		verifiedFlag bool
		rolesFlag    string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.BoolVar(&verifiedFlag, "verified", true, "verification flag to set")
	flag.StringVar(&rolesFlag, "roles", "", "comma separated roles to assign (DONOR,RECIPIENT); empty keeps current roles")
	flag.Parse()

	idText := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	if idText == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	roles, err := parseRoles(rolesFlag)
	if err != nil {
		exitWithError(err)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userverify").Logger()
	store := repo.NewStore(infra.NewSQLRunner(pool, logger))

	var u *domain.User
	if idText != "" {
		id, err := strconv.ParseInt(idText, 10, 64)
		if err != nil {
			exitWithError(fmt.Errorf("invalid -id %q", idText))
		}
		u, err = store.Users().GetByID(ctx, id)
		if err != nil {
			exitWithError(fmt.Errorf("failed to load user: %w", err))
		}
	} else {
		u, err = store.Users().GetByEmail(ctx, email)
		if err != nil {
			exitWithError(fmt.Errorf("failed to load user: %w", err))
		}
	}

	err = store.InTx(ctx, func(tx domain.Store) error {
		if err := tx.Users().SetVerified(ctx, u.ID, verifiedFlag); err != nil {
			return err
		}
		if len(roles) == 0 {
			return nil
		}
		u.Roles = roles
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user: %w", err))
	}

	fmt.Printf("User %d (%s) verified=%t\n", u.ID, u.Email, verifiedFlag)
	if len(roles) > 0 {
		fmt.Printf("roles=%v\n", roles)
	}
}

func parseRoles(v string) ([]domain.Role, error) {
	var roles []domain.Role
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, ok := domain.ParseRole(part)
		if !ok {
			return nil, fmt.Errorf("unsupported role %q", part)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
