package cli

import (
	"github.com/spf13/cobra"

	"github.com/lugayetu/collector/internal/core/service"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator account management",
}

var adminInput service.AdminInput

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := adminInput
		if in.Password == "" {
			in.Password = cfg.Bootstrap.AdminPassword
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		user, created, err := a.bootstrap.EnsureAdmin(ctx, in)
		if err != nil {
			return err
		}
		if !created {
			log.Warn().Str("email", user.Email).Msg("an account with this email already exists, nothing changed")
			return nil
		}
		log.Info().Int64("id", user.ID).Str("user_id", user.UserID).Str("email", user.Email).Msg("admin created")
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminInput.Email, "email", "", "admin email (required)")
	adminCreateCmd.Flags().StringVar(&adminInput.Password, "password", "", "admin password, defaults to ADMIN_PASSWORD")
	adminCreateCmd.Flags().StringVar(&adminInput.FirstName, "first-name", "", "first name")
	adminCreateCmd.Flags().StringVar(&adminInput.LastName, "last-name", "", "last name")
	_ = adminCreateCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(adminCmd)
}
