package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"minbar/pkg/domain"
)

// NewIssueTokenCommand creates the issue-token command. Super admin and
// system tokens are only minted here; applicants get theirs when they apply.
func NewIssueTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		subject string
		role    string
		name    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Mint a bearer token for a super admin or a system job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := domain.Role(role)
			if r != domain.RoleSuperAdmin && r != domain.RoleSystem {
				return fmt.Errorf("--role must be %s or %s", domain.RoleSuperAdmin, domain.RoleSystem)
			}
			if ttl <= 0 {
				ttl = rootOpts.cfg.Auth.TokenTTL
			}
			token, err := newJWTService(rootOpts.cfg).GenerateAccessToken(domain.Actor{ID: subject, Role: r, Name: name}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "actor id (required)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleSuperAdmin), "super_admin or system")
	cmd.Flags().StringVar(&name, "name", "", "display name recorded in audit entries")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
