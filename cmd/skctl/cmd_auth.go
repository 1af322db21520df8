package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sharekindness/pkg/client"
)

var registerInput client.RegisterInput
var registerPicture string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := registerInput
		if registerPicture != "" {
			data, err := os.ReadFile(registerPicture)
			if err != nil {
				return err
			}
			in.ProfilePicture = data
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		u, err := api.Register(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(cmd, u)
	},
}

var loginEmail, loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("SHAREKINDNESS_PASSWORD")
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		u, err := api.Login(ctx, loginEmail, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", u.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the refresh token and forget the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := api.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func init() {
	f := registerCmd.Flags()
	f.StringVar(&registerInput.Username, "username", "", "username (required)")
	f.StringVar(&registerInput.Email, "email", "", "email (required)")
	f.StringVar(&registerInput.Password, "password", "", "password (required)")
	f.StringSliceVar(&registerInput.Roles, "role", nil, "DONOR and/or RECIPIENT (default both)")
	f.StringVar(&registerInput.PhoneNumber, "phone", "", "phone number")
	f.StringVar(&registerInput.City, "city", "", "city")
	f.StringVar(&registerInput.State, "state", "", "state")
	f.StringVar(&registerInput.Country, "country", "", "ISO country code")
	f.StringVar(&registerInput.Bio, "bio", "", "short bio")
	f.StringVar(&registerPicture, "picture", "", "path to a profile picture")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (or SHAREKINDNESS_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("email")
}
