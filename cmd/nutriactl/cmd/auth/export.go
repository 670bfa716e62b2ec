package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const tokenVariable = "NUTRIA_ACCESS_TOKEN"

var shellFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the session token as a shell variable",
	Long: `Prints a shell statement setting NUTRIA_ACCESS_TOKEN to the stored access token,
for scripts that call the nutrition API directly.

  eval $(nutriactl auth export)
  curl -H "Authorization: Bearer $NUTRIA_ACCESS_TOKEN" http://localhost:8000/api/ninos/`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := session(cmd.Context()).Credentials()
		if creds == nil {
			return fmt.Errorf("not logged in; run `nutriactl auth login`")
		}
		if creds.IsExpired() {
			return fmt.Errorf("access token has expired; run `nutriactl auth login`")
		}

		format := shellFormat
		if format == "" {
			format = detectShell(os.Getenv("SHELL"))
		}
		line, err := exportStatement(strings.ToLower(format), creds.AccessToken)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (detected from $SHELL if not set)")
}

func detectShell(shell string) string {
	switch filepath.Base(shell) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		return "posix"
	}
}

func exportStatement(format, token string) (string, error) {
	switch format {
	case "posix", "bash", "zsh", "sh":
		return fmt.Sprintf("export %s=%s", tokenVariable, posixQuote(token)), nil
	case "fish":
		return fmt.Sprintf("set -x %s %s", tokenVariable, fishQuote(token)), nil
	case "powershell", "pwsh":
		return fmt.Sprintf("$env:%s=%s", tokenVariable, powershellQuote(token)), nil
	default:
		return "", fmt.Errorf("unsupported shell format %q (expected posix, fish or powershell)", format)
	}
}

// posixQuote single-quotes v so the shell expands nothing inside it.
func posixQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

var fishEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func fishQuote(v string) string {
	return "'" + fishEscaper.Replace(v) + "'"
}

func powershellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
