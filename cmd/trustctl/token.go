package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/invoicetrust/trustdemo/internal/access"
	"github.com/invoicetrust/trustdemo/internal/config"
	httpapi "github.com/invoicetrust/trustdemo/internal/interfaces/http"
	"github.com/invoicetrust/trustdemo/pkg/utils"
)

type tokenOptions struct {
	configPath  string
	role        string
	companyRole string
	userID      string
	email       string
}

func newTokenCmd() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development bearer token",
		Long: `Sign a bearer token with the configured auth.jwt_secret.
The token is printed to stdout so it can be captured by scripts.`,
		Example: `  trustctl token --role SUPER_ADMIN
  trustctl token --role USER --company-role VIEWER --user-id u-42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to the YAML config file")
	cmd.Flags().StringVar(&opts.role, "role", "", "raw user role, e.g. USER or SUPER_ADMIN")
	cmd.Flags().StringVar(&opts.companyRole, "company-role", "", "company role preference")
	cmd.Flags().StringVar(&opts.userID, "user-id", "dev-user", "user id (token subject)")
	cmd.Flags().StringVar(&opts.email, "email", "", "user email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func runToken(cmd *cobra.Command, opts *tokenOptions) error {
	user := access.User{
		ID:   utils.SanitizeString(opts.userID),
		Role: access.Role(opts.role),
	}
	if !user.Role.IsValid() {
		return fmt.Errorf("unknown role %q", opts.role)
	}
	if opts.email != "" {
		if err := utils.ValidateEmail(opts.email); err != nil {
			return err
		}
		user.Email = opts.email
	}
	if opts.companyRole != "" {
		role := access.Role(opts.companyRole)
		if !role.IsValid() {
			return fmt.Errorf("unknown company role %q", opts.companyRole)
		}
		user.Preferences = &access.Preferences{CompanyRole: role}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	issuer := httpapi.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	token, expiresAt, err := issuer.Issue(user)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "role=%s effective_company_role=%s expires=%s\n",
		user.Role, access.EffectiveCompanyRole(&user), expiresAt.Format(time.RFC3339))
	return nil
}
