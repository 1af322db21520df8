package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"sharekindness/pkg/client"
)

var donationsCmd = &cobra.Command{
	Use:     "donations",
	Aliases: []string{"donation", "d"},
	Short:   "Browse and manage donation listings",
}

var donationFilter client.DonationFilter

var donationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		items, err := api.ListDonations(ctx, donationFilter)
		if err != nil {
			return err
		}
		return printJSON(cmd, items)
	},
}

var donationsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		d, err := api.GetDonation(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(cmd, d)
	},
}

type donationFlags struct {
	itemName, description, category, status, image string
	quantity                                       int
}

var donationValues donationFlags

// input keeps only the flags the user actually set.
func (f donationFlags) input(cmd *cobra.Command) (client.DonationInput, error) {
	var in client.DonationInput
	changed := cmd.Flags().Changed
	if changed("name") {
		in.ItemName = &f.itemName
	}
	if changed("description") {
		in.Description = &f.description
	}
	if changed("category") {
		in.Category = &f.category
	}
	if changed("status") {
		in.Status = &f.status
	}
	if changed("quantity") {
		in.Quantity = &f.quantity
	}
	if f.image != "" {
		data, err := os.ReadFile(f.image)
		if err != nil {
			return in, err
		}
		in.Image = data
	}
	return in, nil
}

func bindDonationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&donationValues.itemName, "name", "", "item name")
	f.StringVar(&donationValues.description, "description", "", "description")
	f.StringVar(&donationValues.category, "category", "", "FOOD, CLOTHES, SHOES, BOOKS, ELECTRONICS or OTHER")
	f.IntVar(&donationValues.quantity, "quantity", 1, "quantity")
	f.StringVar(&donationValues.image, "image", "", "path to an image")
}

var donationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := donationValues.input(cmd)
		if err != nil {
			return err
		}
		if in.Quantity == nil {
			in.Quantity = &donationValues.quantity
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		d, err := api.CreateDonation(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(cmd, d)
	},
}

var donationsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit or close a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		in, err := donationValues.input(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		d, err := api.UpdateDonation(ctx, id, in)
		if err != nil {
			return err
		}
		return printJSON(cmd, d)
	},
}

var donationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := api.DeleteDonation(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Donation %d deleted.\n", id)
		return nil
	},
}

func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", v)
	}
	return id, nil
}

func init() {
	f := donationsListCmd.Flags()
	f.StringVar(&donationFilter.Category, "category", "", "filter by category")
	f.StringVar(&donationFilter.Status, "status", "", "filter by status")
	f.StringVar(&donationFilter.Search, "search", "", "search item names and descriptions")
	f.Int64Var(&donationFilter.DonorID, "donor", 0, "filter by donor id")
	f.IntVar(&donationFilter.Limit, "limit", 0, "page size")
	f.IntVar(&donationFilter.Offset, "offset", 0, "page offset")

	bindDonationFlags(donationsCreateCmd)
	bindDonationFlags(donationsUpdateCmd)
	donationsUpdateCmd.Flags().StringVar(&donationValues.status, "status", "", "set to CLOSED to stop accepting requests")

	donationsCmd.AddCommand(donationsListCmd, donationsGetCmd, donationsCreateCmd, donationsUpdateCmd, donationsDeleteCmd)
}
