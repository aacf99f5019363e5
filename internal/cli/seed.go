package cli

import (
	"github.com/spf13/cobra"

	"github.com/lugayetu/collector/internal/core/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default admin and language, and backfill missing user identifiers",
	Long: `seed is safe to run repeatedly. It provisions the administrator from
ADMIN_EMAIL/ADMIN_PASSWORD, creates the default language and imports its
sentence files from LANGUAGES_DIR, and assigns user<N> identifiers to
accounts that have none.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		n, err := a.bootstrap.BackfillUserIDs(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("users", n).Msg("user identifiers backfilled")

		if cfg.Bootstrap.AdminPassword == "" {
			log.Warn().Msg("ADMIN_PASSWORD is empty, skipping admin account")
		} else {
			admin, created, err := a.bootstrap.EnsureAdmin(ctx, service.AdminInput{
				Email:    cfg.Bootstrap.AdminEmail,
				Password: cfg.Bootstrap.AdminPassword,
			})
			if err != nil {
				return err
			}
			log.Info().Str("email", admin.Email).Bool("created", created).Msg("admin account ready")
		}

		lang, res, err := a.bootstrap.EnsureLanguage(ctx, cfg.Bootstrap.DefaultLanguageName, cfg.Bootstrap.DefaultLanguageCode)
		if err != nil {
			return err
		}
		ev := log.Info().Str("language", lang.Code)
		if res != nil {
			ev = ev.Int("inserted", res.Inserted).Int("skipped", res.Skipped)
		}
		ev.Msg("default language ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
