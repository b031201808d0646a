// Package cli implements adminctl, the operator tool for audit log
// maintenance and token issuing.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	jwttoken "minbar/internal/jwt_token"
	"minbar/internal/lifecycle/service"
	lifecyclepostgres "minbar/internal/lifecycle/store/postgres"
	"minbar/internal/platform/config"
	"minbar/internal/platform/logger"
	"minbar/internal/platform/postgres"
	"minbar/pkg/domain"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/audit/recorder"
	auditpostgres "minbar/pkg/platform/audit/store/postgres"
)

// Maintainer is the slice of the lifecycle engine adminctl drives.
type Maintainer interface {
	ExportAuditLog(ctx context.Context, filter audit.Filter, w io.Writer) error
	PurgeAuditLog(ctx context.Context, actor domain.Actor, olderThanDays int, reason string) (int, error)
	BulkDeleteAuditLog(ctx context.Context, actor domain.Actor, ids []string, reason string) (int, error)
}

// Opener connects a Maintainer for the loaded config. The returned func releases it.
type Opener func(ctx context.Context, cfg *config.Config) (Maintainer, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	ActorID    string
	Timeout    time.Duration

	open Opener
	cfg  *config.Config
}

func (o *RootOptions) actor() domain.Actor {
	return domain.Actor{ID: o.ActorID, Role: domain.RoleSystem, Name: "adminctl"}
}

// connect opens the maintainer with a deadline covering the whole command.
func (o *RootOptions) connect(cmd *cobra.Command) (context.Context, Maintainer, func(), error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	m, release, err := o.open(ctx, o.cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, m, func() { release(); cancel() }, nil
}

// NewRootCommand creates the root command backed by Postgres.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(OpenPostgres)
}

// NewRootCommandWith lets tests substitute the backing store.
func NewRootCommandWith(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "adminctl",
		Short:         "Operate the minbar admin lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.ActorID == "" {
				return fmt.Errorf("--actor must not be empty")
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "optional YAML config file")
	cmd.PersistentFlags().StringVar(&opts.ActorID, "actor", "adminctl", "actor id recorded in the audit log")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "deadline for the whole command")

	cmd.AddCommand(NewExportAuditCommand(opts))
	cmd.AddCommand(NewPurgeAuditCommand(opts))
	cmd.AddCommand(NewDeleteAuditCommand(opts))
	cmd.AddCommand(NewIssueTokenCommand(opts))

	return cmd
}

// OpenPostgres builds the engine against the configured database. The
// lifecycle operations adminctl runs only touch the audit side, so session
// revocation is not wired.
func OpenPostgres(ctx context.Context, cfg *config.Config) (Maintainer, func(), error) {
	if cfg.Postgres.DSN == "" {
		return nil, nil, fmt.Errorf("MINBAR_POSTGRES_DSN is required")
	}
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	audits := auditpostgres.NewPostgres(db)
	svc := service.New(lifecyclepostgres.NewPostgres(db), recorder.New(audits, recorder.WithLogger(log)), audits,
		service.WithLogger(log),
		service.WithTimeout(cfg.OperationTimeout),
	)
	return svc, func() { _ = db.Close() }, nil
}

func newJWTService(cfg *config.Config) *jwttoken.JWTService {
	return jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
}
