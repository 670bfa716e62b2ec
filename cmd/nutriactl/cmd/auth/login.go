package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

var (
	loginEmail         string
	loginPassword      string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the nutrition backend",
	Long: `Signs in with email and password. On success the identity, its roles and
permissions are stored locally and reused by later commands until logout.

The password is read from --password, from stdin with --password-stdin,
or prompted for interactively.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := resolvePassword(cmd.InOrStdin())
		if err != nil {
			return err
		}

		identity, err := session(cmd.Context()).Login(cmd.Context(), sdk.LoginRequest{
			Email:    loginEmail,
			Password: password,
		})
		if err != nil {
			return describeLoginError(err)
		}

		pterm.Success.Printf("Signed in as %s (%s)\n", identity.DisplayName, identity.ID)
		printIdentity(identity)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	_ = loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

func resolvePassword(stdin io.Reader) (string, error) {
	switch {
	case loginPassword != "":
		return loginPassword, nil
	case loginPasswordStdin:
		return readPassword(stdin)
	default:
		return pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
	}
}

// readPassword reads the first line of r without its line terminator.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("no password on stdin")
	}
	return password, nil
}

// describeLoginError turns a login failure into a message for the terminal.
func describeLoginError(err error) error {
	var le *sdk.LoginError
	reason := ""
	if errors.As(err, &le) {
		reason = le.Reason
	}

	switch {
	case errors.Is(err, sdk.ErrInvalidLoginRequest):
		return fmt.Errorf("login failed: a valid --email and a password are required")
	case errors.Is(err, sdk.ErrCredentialsRejected):
		if reason != "" {
			return fmt.Errorf("login failed: %s", reason)
		}
		return fmt.Errorf("login failed: credentials rejected")
	case errors.Is(err, sdk.ErrTransport):
		return fmt.Errorf("login failed: authentication service unavailable: %w", err)
	default:
		return fmt.Errorf("login failed: %w", err)
	}
}
