package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/database"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an admin user or promote an existing one",
	Long: "Creates a user with the superuser flag. An existing user is promoted; its password is\n" +
		"replaced only when one is given. The password may come from HELPDESK_SUPERUSER_PASSWORD.",
	RunE: runCreateSuperuser,
}

func init() {
	createSuperuserCmd.Flags().String("username", "", "username (required)")
	createSuperuserCmd.Flags().String("email", "", "email")
	createSuperuserCmd.Flags().String("password", "", "password")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(createSuperuserCmd)
}

func runCreateSuperuser(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("HELPDESK_SUPERUSER_PASSWORD")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer database.Close(db)

	if password != "" {
		if err := auth.ValidatePassword(password, username, email); err != nil {
			return err
		}
	}
	users := service.NewUserService(db, auth.NewPasswordHasher(cfg.BcryptCost), nil)
	u, created, err := users.EnsureSuperuser(cmd.Context(), username, email, password)
	if err != nil {
		return err
	}
	if created {
		log.Info("superuser created", "id", u.ID, "username", u.Username)
	} else {
		log.Info("user promoted to superuser", "id", u.ID, "username", u.Username)
	}
	return nil
}
