package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session(cmd.Context()).Logout(cmd.Context())
		pterm.Success.Println("Logged out")
		return nil
	},
}
