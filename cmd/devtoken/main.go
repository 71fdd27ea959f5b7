// Command devtoken mints HS256 identity tokens accepted by the API when it
// runs with AUTH_JWT_SECRET, for local development and manual testing.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		email    string
		ttl      time.Duration
		asJSON   bool
		asHeader bool
	)

	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Mint a development identity token",
		Long: `Mint an HS256 identity token signed with AUTH_JWT_SECRET.

Examples:
  devtoken --email a@x.com
  devtoken --email a@x.com --ttl 15m --json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("--email is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.DevTokenTTLMinutes) * time.Minute
			}

			issuer, err := auth.NewTokenIssuer(cfg.Auth, ttl)
			if err != nil {
				return fmt.Errorf("token issuer: %w", err)
			}
			token, expiresAt, err := issuer.GenerateToken(email)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(dto.AuthResponse{Token: token, ExpiresAt: expiresAt.UTC()})
			case asHeader:
				_, err = fmt.Fprintf(out, "Authorization: Bearer %s\n", token)
			default:
				_, err = fmt.Fprintln(out, token)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email claim of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default AUTH_DEV_TOKEN_TTL_MINUTES)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output token and expiry as JSON")
	cmd.Flags().BoolVar(&asHeader, "header", false, "output a ready-to-use Authorization header")

	return cmd
}
