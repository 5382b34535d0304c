package cli

import (
	"fmt"

	sharedDatabase "novel-reader/shared/database"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewCreditCommand создает команду credit: ручное пополнение баланса.
func NewCreditCommand(rootOpts *RootOptions) *cobra.Command {
	var userID string
	var amount int64

	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Credit currency to a user's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if amount <= 0 {
				return models.ErrInvalidAmount
			}

			pool, err := rootOpts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			balance, err := sharedDatabase.NewPgBalanceRepository(pool, rootOpts.logger()).Credit(cmd.Context(), id, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user=%s balance=%d\n", id, balance)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount to credit (> 0)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
