package main

import (
	"fmt"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
	"github.com/spf13/cobra"
)

// tokenCommand mints an access token for integrations such as payroll and sales.
func tokenCommand(c *cli) *cobra.Command {
	var userID, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := domain.Role(role)
			switch r {
			case domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant, domain.RoleCashier, domain.RoleEmployee:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if ttl <= 0 {
				ttl = c.cfg.JWTExpiryDuration
			}
			tok, err := middleware.IssueToken(c.cfg.JWTSecret, c.cfg.JWTIssuer, userID, r, ttl)
			if err != nil {
				return err
			}
			cmd.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "subject user ID")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAccountant), "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to JWT_EXPIRY_DURATION")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
