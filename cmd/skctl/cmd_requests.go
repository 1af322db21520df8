package main

import (
	"github.com/spf13/cobra"

	"sharekindness/pkg/client"
)

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"request", "r"},
	Short:   "Request listings and track your requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		items, err := api.ListRequests(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, items)
	},
}

var requestsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		r, err := api.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(cmd, r)
	},
}

var (
	requestQuantity int
	requestComments string
)

var requestsCreateCmd = &cobra.Command{
	Use:   "create <donation-id>",
	Short: "Ask for part of a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		donationID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		d, err := api.GetDonation(ctx, donationID)
		if err != nil {
			return err
		}
		r, err := api.CreateRequest(ctx, client.RequestInput{
			DonationID:        donationID,
			RequestedQuantity: requestQuantity,
			Comments:          requestComments,
			Available:         d.Quantity,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, r)
	},
}

var requestsClaimCmd = &cobra.Command{
	Use:   "claim <id>",
	Short: "Confirm pickup of an approved request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		r, err := api.ClaimRequest(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(cmd, r)
	},
}

func decideCommand(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <request-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			r, err := api.Decide(ctx, action, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
}

var (
	approveCmd = decideCommand("approve", "Approve a request on one of your listings")
	rejectCmd  = decideCommand("reject", "Reject a request on one of your listings")
)

func init() {
	requestsCreateCmd.Flags().IntVarP(&requestQuantity, "quantity", "q", 1, "requested quantity")
	requestsCreateCmd.Flags().StringVarP(&requestComments, "comments", "m", "", "note to the donor (50 words max)")
	requestsCmd.AddCommand(requestsListCmd, requestsGetCmd, requestsCreateCmd, requestsClaimCmd)
}
