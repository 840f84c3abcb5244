package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xraph/bistro/tax"
	"github.com/xraph/bistro/types"
)

func newTaxCmd(cfg config) *cobra.Command {
	var bps int64

	cmd := &cobra.Command{
		Use:   "tax net|gross <amount>",
		Short: "Convert an amount in minor units between net and gross",
		Example: `  # 1000 kurus net at 18% VAT
  bistro tax gross 1000

  # Strip 8% VAT from a gross price
  bistro tax net 1080 --vat-bps 800`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			rule := tax.Rule{BasisPoints: bps}
			if err := rule.Validate(); err != nil {
				return err
			}
			return convert(cmd.OutOrStdout(), rule, args[0], types.New(amount, cfg.Currency))
		},
	}

	cmd.Flags().Int64Var(&bps, "vat-bps", cfg.VATBasisPoints, "VAT rate in basis points")
	return cmd
}

// convert treats amount as the side named by direction and prints all
// three figures.
func convert(w io.Writer, rule tax.Rule, direction string, amount types.Money) error {
	var net, gross types.Money
	switch direction {
	case "gross":
		net, gross = amount, rule.GrossFromNet(amount)
	case "net":
		net, gross = rule.NetFromGross(amount), amount
	default:
		return fmt.Errorf("direction must be net or gross, got %q", direction)
	}

	_, err := fmt.Fprintf(w, "net   %s\nvat   %s (%s)\ngross %s\n",
		net, gross.Subtract(net), rule.Percent(), gross)
	return err
}
