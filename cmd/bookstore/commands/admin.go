package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/safar/go-bookstore/cmd/bookstore/output"
	"github.com/safar/go-bookstore/internal/service"
	"github.com/spf13/cobra"
)

var adminInput service.RegisterInput

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	Long: `Create an account with the Admin role. Admin accounts cannot be created
through the HTTP API.

Examples:
  bookstore admin create --username root --password s3cret --name "Store Admin"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		repo, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		account, err := service.New(repo).Accounts.CreateAdmin(ctx, adminInput)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		output.Success(os.Stdout, "Created admin %q with id %d", account.Username, account.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	f := adminCreateCmd.Flags()
	f.StringVar(&adminInput.Username, "username", "", "Login name")
	f.StringVar(&adminInput.Password, "password", "", "Password")
	f.StringVar(&adminInput.Name, "name", "", "Display name")
	f.StringVar(&adminInput.Email, "email", "", "Email address")
	f.StringVar(&adminInput.Phone, "phone", "", "Phone number")
	f.StringVar(&adminInput.Address, "address", "", "Postal address")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("password")
}
