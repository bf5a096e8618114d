package main

import (
	"errors"
	"fmt"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/utils"
	"github.com/spf13/cobra"
)

var errInconsistent = errors.New("balance does not match journal")

func verifyCommand(c *cli) *cobra.Command {
	var accountIDs []string
	var all bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute account balances from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && len(accountIDs) == 0 {
				return fmt.Errorf("pass --account or --all")
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}

			if all {
				accounts, err := a.Services.Account.ListAccounts(cmd.Context(), domain.AccountFilter{})
				if err != nil {
					return err
				}
				for _, acc := range accounts {
					accountIDs = append(accountIDs, acc.AccountID)
				}
			}

			var failed int
			for _, id := range accountIDs {
				acc, err := a.Services.Account.GetAccountByID(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("verify %s: %w", id, err)
				}
				res, err := a.Services.Journal.VerifyAccountBalance(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("verify %s: %w", id, err)
				}
				state := "ok"
				if !res.Consistent {
					state = "MISMATCH"
					failed++
				}
				cmd.Printf("%s\t%s\tstored=%s\tcomputed=%s\tentries=%d\n",
					state, id, utils.FormatWithCurrencyPrecision(res.CurrentBalance, acc.CurrencyCode),
					utils.FormatWithCurrencyPrecision(res.ComputedBalance, acc.CurrencyCode), res.EntryCount)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d account(s)", errInconsistent, failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&accountIDs, "account", nil, "account ID to verify (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "verify every account")
	return cmd
}
