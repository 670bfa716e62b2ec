package auth

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/config"
	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/telemetry"
	"github.com/terraconstructs/nutria/pkg/sdk"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the stored session against the backend",
	Long: `Fetches the signed-in user's record with the stored token. If the backend
rejects the token the local session is cleared.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		provider := config.MustFromContext(ctx).ClientProvider
		s := provider.Session(ctx)

		identity := s.CurrentIdentity()
		if identity == nil {
			return fmt.Errorf("not logged in; run `nutriactl auth login`")
		}

		ctx, span := telemetry.StartSpan(ctx, "nutriactl/auth", "auth.Verify",
			attribute.String(telemetry.AttrPrincipalID, identity.ID),
		)
		defer span.End()

		client, err := provider.SDKClient(ctx)
		if err != nil {
			telemetry.RecordError(span, err)
			return err
		}

		user, err := client.GetUser(ctx, identity.ID)
		if errors.Is(err, sdk.ErrUnauthorized) {
			telemetry.RecordError(span, err)
			s.Logout(ctx)
			return fmt.Errorf("the backend rejected the stored session; you have been logged out")
		}
		if err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("failed to verify session: %w", err)
		}

		pterm.Success.Printf("Session valid for %s <%s> at %s\n", user.Names, user.Email, client.BaseURL())
		if !user.IsActive {
			pterm.Warning.Println("The account is marked inactive")
		}
		return nil
	},
}
