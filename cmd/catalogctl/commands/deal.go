package commands

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"catalog-engine-go/internal/deal"
)

type dealFlags struct {
	price    string
	discount string
	take     uint32
	payFor   uint32
	pay      string
}

func (f *dealFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.price, "price", "", "Base price per unit (required)")
	cmd.Flags().StringVar(&f.discount, "discount", "", "Discount deal: new price per unit")
	cmd.Flags().Uint32Var(&f.take, "take", 0, "Batch deals: units per batch")
	cmd.Flags().Uint32Var(&f.payFor, "pay-for", 0, "Batch deal: units paid for per batch")
	cmd.Flags().StringVar(&f.pay, "pay", "", "Batch price deal: price of a whole batch")
	_ = cmd.MarkFlagRequired("price")
	cmd.MarkFlagsMutuallyExclusive("discount", "take")
	cmd.MarkFlagsMutuallyExclusive("pay-for", "pay")
}

// parse returns the base price and the deal the flags describe.
func (f *dealFlags) parse() (decimal.Decimal, deal.Deal, error) {
	price, err := decimal.NewFromString(f.price)
	if err != nil {
		return decimal.Zero, deal.Deal{}, fmt.Errorf("invalid --price %q: %w", f.price, err)
	}

	switch {
	case f.discount != "":
		p, err := decimal.NewFromString(f.discount)
		if err != nil {
			return decimal.Zero, deal.Deal{}, fmt.Errorf("invalid --discount %q: %w", f.discount, err)
		}
		return price, deal.Discount(p), nil
	case f.take > 0 && f.payFor > 0:
		return price, deal.Batch(f.take, f.payFor), nil
	case f.take > 0 && f.pay != "":
		p, err := decimal.NewFromString(f.pay)
		if err != nil {
			return decimal.Zero, deal.Deal{}, fmt.Errorf("invalid --pay %q: %w", f.pay, err)
		}
		return price, deal.BatchPrice(f.take, p), nil
	}
	return decimal.Zero, deal.Deal{}, errors.New("describe a deal with --discount, --take and --pay-for, or --take and --pay")
}

type dealCheck struct {
	Deal            deal.Deal       `json:"deal"`
	AverageDiscount decimal.Decimal `json:"average_discount"`
	Stored          string          `json:"stored"`
}

type dealQuote struct {
	Deal         deal.Deal       `json:"deal"`
	Units        uint32          `json:"units"`
	Undiscounted decimal.Decimal `json:"undiscounted"`
	Total        decimal.Decimal `json:"total"`
	Uses         uint32          `json:"uses"`
}

func newDealCmd(jsonOutput *bool) *cobra.Command {
	dealCmd := &cobra.Command{
		Use:   "deal",
		Short: "Validate and price deals",
	}
	dealCmd.AddCommand(newDealCheckCmd(jsonOutput))
	dealCmd.AddCommand(newDealQuoteCmd(jsonOutput))
	return dealCmd
}

func newDealCheckCmd(jsonOutput *bool) *cobra.Command {
	var flags dealFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that a deal is valid at a base price",
		Long: `Validate a deal against a base price and print its canonical form,
the average discount per unit and the tuple it is stored as.

Examples:
  catalogctl deal check --price 10 --discount 7.50
  catalogctl deal check --price 10 --take 3 --pay-for 2
  catalogctl deal check --price 4 --take 1 --pay 3.00   # stored as a discount`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			price, d, err := flags.parse()
			if err != nil {
				return err
			}
			d, err = d.Validate(price)
			if err != nil {
				return err
			}
			avg, _ := d.AverageDiscount(price)
			repr, _ := d.Repr()

			out := dealCheck{Deal: d, AverageDiscount: avg, Stored: repr.String()}
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deal:     %s\n", out.Deal)
			fmt.Fprintf(cmd.OutOrStdout(), "discount: %s%%\n", avg.Mul(decimal.NewFromInt(100)).StringFixed(2))
			fmt.Fprintf(cmd.OutOrStdout(), "stored:   %s\n", out.Stored)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDealQuoteCmd(jsonOutput *bool) *cobra.Command {
	var (
		flags dealFlags
		units uint32
		limit int64
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a purchase under a deal",
		Long: `Price units items at the base price under a deal. --limit caps how
many times the deal may be applied; a negative limit means no cap.

Examples:
  catalogctl deal quote --price 10 --take 3 --pay-for 2 --units 7
  catalogctl deal quote --price 10 --discount 8 --units 5 --limit 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			price, d, err := flags.parse()
			if err != nil {
				return err
			}
			d, err = d.Validate(price)
			if err != nil {
				return err
			}

			var capUses *uint32
			if limit >= 0 {
				l := uint32(min(limit, int64(^uint32(0))))
				capUses = &l
			}
			total, uses := d.DiscountedPrice(units, price, capUses)

			out := dealQuote{
				Deal:         d,
				Units:        units,
				Undiscounted: price.Mul(decimal.NewFromInt(int64(units))),
				Total:        total,
				Uses:         uses,
			}
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deal:  %s (applied %d times)\n", out.Deal, out.Uses)
			fmt.Fprintf(cmd.OutOrStdout(), "total: %s (was %s)\n", out.Total.StringFixed(2), out.Undiscounted.StringFixed(2))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Uint32Var(&units, "units", 1, "Units bought")
	cmd.Flags().Int64Var(&limit, "limit", -1, "Maximum number of times the deal applies")
	return cmd
}
