package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage/postgres"
)

var adminOpts struct {
	username    string
	email       string
	password    string
	displayName string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an active administrator account",
	Long: `Create an active administrator account.

Administrators bypass the permission table, so no permission rows are created.

Example:
  servicedesk create-admin --username root --email root@example.com --password 's3cret-pass'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := newAdmin(adminOpts.username, adminOpts.email, adminOpts.displayName, adminOpts.password)
		if err != nil {
			return err
		}
		url, err := databaseURL()
		if err != nil {
			return err
		}
		store, err := postgres.Open(cmd.Context(), url)
		if err != nil {
			return err
		}
		defer store.Close()

		created, err := store.CreateUser(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		cmd.Printf("created admin %q with id %d\n", created.Username, created.ID)
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminOpts.username, "username", "", "login name (required)")
	f.StringVar(&adminOpts.email, "email", "", "email address (required)")
	f.StringVar(&adminOpts.password, "password", "", "initial password (required)")
	f.StringVar(&adminOpts.displayName, "display-name", "", "display name")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}

func newAdmin(username, email, displayName, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return models.User{}, fmt.Errorf("username and email are required")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = username
	}
	return models.User{
		Username:     username,
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         models.RoleAdmin,
		Active:       true,
		PasswordHash: hash,
	}, nil
}
