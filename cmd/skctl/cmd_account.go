package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sharekindness/pkg/client"
)

func showCommand(use, short string, fetch func(cmd *cobra.Command) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := fetch(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}
}

var dashboardCmd = showCommand("dashboard", "Your listings with their requests, and your own requests", func(cmd *cobra.Command) (any, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	return api.Dashboard(ctx)
})

var notificationsCmd = showCommand("notifications", "Pending request counters", func(cmd *cobra.Command) (any, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	return api.Notifications(ctx)
})

var statsCmd = showCommand("stats", "Platform impact statistics", func(cmd *cobra.Command) (any, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	return api.Stats(ctx)
})

var profileCmd = showCommand("profile", "Show your profile", func(cmd *cobra.Command) (any, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	return api.Profile(ctx)
})

var profileValues struct {
	username, phone, city, state, bio, picture string
	roles                                      []string
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in client.ProfileInput
		changed := cmd.Flags().Changed
		for flag, dst := range map[string]**string{
			"username": &in.Username,
			"phone":    &in.PhoneNumber,
			"city":     &in.City,
			"state":    &in.State,
			"bio":      &in.Bio,
		} {
			if changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*dst = &v
			}
		}
		in.Roles = profileValues.roles
		if profileValues.picture != "" {
			data, err := os.ReadFile(profileValues.picture)
			if err != nil {
				return err
			}
			in.ProfilePicture = data
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		u, err := api.UpdateProfile(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(cmd, u)
	},
}

var confirmDelete bool

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account and everything you listed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmDelete {
			return fmt.Errorf("refusing to delete the account without --yes")
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := api.DeleteAccount(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Account deleted.")
		return nil
	},
}

var passwordValues struct{ old, new, confirm string }

var passwordCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := api.ChangePassword(ctx, passwordValues.old, passwordValues.new, passwordValues.confirm); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password changed successfully!")
		return nil
	},
}

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a zip of your account data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		data, err := api.Export(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportPath, data, 0o600); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", exportPath, len(data))
		return nil
	},
}

func init() {
	f := profileUpdateCmd.Flags()
	f.StringVar(&profileValues.username, "username", "", "username")
	f.StringVar(&profileValues.phone, "phone", "", "phone number")
	f.StringVar(&profileValues.city, "city", "", "city")
	f.StringVar(&profileValues.state, "state", "", "state")
	f.StringVar(&profileValues.bio, "bio", "", "bio")
	f.StringSliceVar(&profileValues.roles, "role", nil, "replace roles (DONOR, RECIPIENT)")
	f.StringVar(&profileValues.picture, "picture", "", "path to a new profile picture")

	profileDeleteCmd.Flags().BoolVar(&confirmDelete, "yes", false, "confirm account deletion")
	profileCmd.AddCommand(profileUpdateCmd, profileDeleteCmd)

	passwordCmd.Flags().StringVar(&passwordValues.old, "old", "", "current password")
	passwordCmd.Flags().StringVar(&passwordValues.new, "new", "", "new password")
	passwordCmd.Flags().StringVar(&passwordValues.confirm, "confirm", "", "repeat the new password")

	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "sharekindness-export.zip", "output file")
}
