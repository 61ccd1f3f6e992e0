package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"arena-quiz-service/internal/identity"
)

// NewHashCmd prints a bcrypt hash for a password, for seeding the user
// directory in the config file.
func NewHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Generate a bcrypt password hash for the users section of the config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := identity.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
