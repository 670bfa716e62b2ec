package auth

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/config"
	"github.com/terraconstructs/nutria/pkg/sdk"
)

// ErrDenied is returned by `auth can` when at least one capability is denied.
// The command has already reported the outcome, so callers exit 1 without printing it.
var ErrDenied = errors.New("one or more capabilities denied")

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the signed-in session",
	Long:  `Commands for signing in and out and inspecting the signed-in identity's access.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(verifyCmd)
	AuthCmd.AddCommand(canCmd)
	AuthCmd.AddCommand(exportCmd)
}

// session returns the restored process session.
func session(ctx context.Context) *sdk.Session {
	return config.MustFromContext(ctx).ClientProvider.Session(ctx)
}
