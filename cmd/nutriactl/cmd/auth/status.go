package auth

import (
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/config"
	"github.com/terraconstructs/nutria/pkg/sdk"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the signed-in identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := config.MustFromContext(cmd.Context()).ClientProvider
		s := provider.Session(cmd.Context())
		identity := s.CurrentIdentity()
		if identity == nil {
			pterm.Warning.Println("Not logged in; run `nutriactl auth login`")
			return nil
		}

		pterm.DefaultSection.Println("Authentication Status")
		pterm.Info.Printf("Signed in as %s (%s)\n", identity.DisplayName, identity.ID)
		pterm.Info.Printf("Server: %s\n", provider.ServerURL())

		creds := s.Credentials()
		switch {
		case creds == nil || creds.ExpiresAt.IsZero():
			pterm.Info.Println("Token expiry unknown")
		case creds.IsExpired():
			pterm.Warning.Printf("Token expired at %s; run `nutriactl auth login`\n", creds.ExpiresAt.Local().Format(time.RFC1123))
		default:
			pterm.Info.Printf("Token expires at %s\n", creds.ExpiresAt.Local().Format(time.RFC1123))
		}

		printIdentity(identity)
		return nil
	},
}

func printIdentity(identity *sdk.Identity) {
	pterm.DefaultSection.Println("Access")
	if identity.HasFullAccess() {
		pterm.Info.Println("Full access (superuser or admin role)")
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"ROLES", "PERMISSIONS"},
		{joinOrDash(identity.Roles), joinOrDash(identity.Permissions)},
	}).Render()
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
