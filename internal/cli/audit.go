package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"minbar/pkg/domain"
	audit "minbar/pkg/platform/audit"
)

type exportOptions struct {
	out        string
	actionType string
	actorRole  string
	from       string
	to         string
	search     string
	ascending  bool
}

// NewExportAuditCommand creates the export-audit command.
func NewExportAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export-audit",
		Short: "Write the audit log as CSV",
		Long: `Write every audit entry matching the filters as CSV, newest first
unless --asc is given. Output goes to stdout unless --out names a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.actionType, "action-type", "", "only this action type")
	cmd.Flags().StringVar(&opts.actorRole, "actor-role", "", "only entries performed by this role")
	cmd.Flags().StringVar(&opts.from, "from", "", "earliest timestamp, RFC3339")
	cmd.Flags().StringVar(&opts.to, "to", "", "latest timestamp, RFC3339")
	cmd.Flags().StringVarP(&opts.search, "query", "q", "", "case-insensitive match on actor and target")
	cmd.Flags().BoolVar(&opts.ascending, "asc", false, "oldest first")
	return cmd
}

func (o *exportOptions) filter() (audit.Filter, error) {
	f := audit.Filter{
		ActionType:    audit.ActionType(o.actionType),
		ActorRole:     domain.Role(o.actorRole),
		Search:        o.search,
		SortAscending: o.ascending,
	}
	var err error
	if f.From, err = parseFlagTime("from", o.from); err != nil {
		return f, err
	}
	if f.To, err = parseFlagTime("to", o.to); err != nil {
		return f, err
	}
	return f, nil
}

func parseFlagTime(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func runExport(rootOpts *RootOptions, opts *exportOptions, cmd *cobra.Command) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}
	ctx, m, release, err := rootOpts.connect(cmd)
	if err != nil {
		return err
	}
	defer release()

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.out, err)
		}
		defer f.Close()
		w = f
	}
	if err := m.ExportAuditLog(ctx, filter, w); err != nil {
		return fmt.Errorf("export audit log: %w", err)
	}
	if opts.out != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", opts.out)
	}
	return nil
}

// NewPurgeAuditCommand creates the purge-audit command.
func NewPurgeAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		days   int
		reason string
	)
	cmd := &cobra.Command{
		Use:   "purge-audit",
		Short: "Delete audit entries older than a number of days",
		Long: `Delete audit entries older than --older-than-days. The purge itself is
recorded in the audit log under the --actor identity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, m, release, err := rootOpts.connect(cmd)
			if err != nil {
				return err
			}
			defer release()
			n, err := m.PurgeAuditLog(ctx, rootOpts.actor(), days, reason)
			if err != nil {
				return fmt.Errorf("purge audit log: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries older than %d days\n", n, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "older-than-days", 0, "age threshold in days (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "justification, at least 10 characters (required)")
	_ = cmd.MarkFlagRequired("older-than-days")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

// NewDeleteAuditCommand creates the delete-audit command.
func NewDeleteAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "delete-audit <id>...",
		Short: "Delete specific audit entries by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, m, release, err := rootOpts.connect(cmd)
			if err != nil {
				return err
			}
			defer release()
			n, err := m.BulkDeleteAuditLog(ctx, rootOpts.actor(), args, reason)
			if err != nil {
				return fmt.Errorf("delete audit entries: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d of %d entries\n", n, len(args))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "justification, at least 10 characters (required)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
