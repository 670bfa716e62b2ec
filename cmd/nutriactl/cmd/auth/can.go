package auth

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

var (
	canMethod   string
	canResource string
)

var canCmd = &cobra.Command{
	Use:   "can [capability]...",
	Short: "Check capabilities for the signed-in identity",
	Long: `Evaluates each capability code (e.g. ver_nino, crear_historialclinico)
against the signed-in identity. Exits 1 if any capability is denied.

With --resource, the capability an API request needs is derived from the HTTP method:

  nutriactl auth can --resource nino --method DELETE   # checks eliminar_nino`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if canResource != "" {
			capability, err := requestCapability(canMethod, canResource)
			if err != nil {
				return err
			}
			args = append(args, capability)
		}
		if len(args) == 0 {
			return errors.New("requires at least one capability or --resource")
		}

		identity := session(cmd.Context()).CurrentIdentity()
		if identity == nil {
			pterm.Warning.Println("Not logged in; every capability is denied")
		}

		results, allowed := evaluateCapabilities(identity, args)
		for _, r := range results {
			switch {
			case r.Allowed:
				pterm.Success.Println(r.Capability)
			case !r.Known:
				pterm.Error.Printf("%s (unknown capability)\n", r.Capability)
			default:
				pterm.Error.Println(r.Capability)
			}
		}

		if !allowed {
			return ErrDenied
		}
		return nil
	},
}

type capabilityResult struct {
	Capability string
	Allowed    bool
	Known      bool
}

func evaluateCapabilities(identity *sdk.Identity, capabilities []string) ([]capabilityResult, bool) {
	results := make([]capabilityResult, 0, len(capabilities))
	for _, c := range capabilities {
		results = append(results, capabilityResult{
			Capability: c,
			Allowed:    sdk.Evaluate(identity, c),
			Known:      sdk.ValidateCapability(c),
		})
	}
	return results, sdk.EvaluateAll(identity, capabilities...)
}

// requestCapability derives the capability an API request with method on resource needs.
// Methods that map to no action are refused rather than evaluated.
func requestCapability(method, resource string) (string, error) {
	capability := sdk.CapabilityForRequest(method, resource)
	if capability == "" {
		return "", fmt.Errorf("method %q maps to no action (expected GET, POST, PUT, PATCH or DELETE)", method)
	}
	return capability, nil
}

func init() {
	canCmd.Flags().StringVar(&canResource, "resource", "", "Resource to check an API request against (e.g. nino)")
	canCmd.Flags().StringVar(&canMethod, "method", "GET", "HTTP method of the API request, used with --resource")
}
