// Package cli реализует операторскую утилиту storyctl: миграции, загрузка
// историй из YAML, пополнение баланса и выпуск межсервисных токенов.
package cli

import (
	"context"
	"fmt"
	"os"

	sharedLogger "novel-reader/shared/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions - общие флаги всех команд.
type RootOptions struct {
	Verbose bool
	DSN     string
}

// NewRootCommand создает корневую команду storyctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "storyctl",
		Short:         "Operator tool for the story engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (default $DATABASE_URL)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCreditCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func (o *RootOptions) logger() *zap.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	logger, err := sharedLogger.New(sharedLogger.Config{Level: level, Encoding: "console", OutputPath: "stderr"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *RootOptions) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if o.DSN == "" {
		return nil, fmt.Errorf("database connection string is required: set --dsn or DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, o.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
