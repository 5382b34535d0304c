package cli

import (
	"fmt"
	"time"

	"novel-reader/shared/authutils"
	"novel-reader/shared/utils"

	"github.com/spf13/cobra"
)

// NewTokenCommand создает команду token: выпуск межсервисного токена для
// вызова внутренних маршрутов (например, пополнения баланса).
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var service, secret string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an inter-service token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				var err error
				if secret, err = utils.ReadSecret("inter_service_secret"); err != nil {
					return err
				}
			}
			token, err := authutils.SignInterServiceToken(secret, service, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "storyctl", "calling service name (token subject)")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default: inter_service_secret file)")
	cmd.Flags().DurationVar(&ttl, "ttl", 5*time.Minute, "token lifetime")

	return cmd
}
