package nav

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/config"
	"github.com/terraconstructs/nutria/pkg/sdk"
)

var showAll bool

// NavCmd lists the admin sections the signed-in identity may open
var NavCmd = &cobra.Command{
	Use:   "nav",
	Short: "List the sections available to the signed-in identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		identity := config.MustFromContext(ctx).ClientProvider.Session(ctx).CurrentIdentity()
		if identity == nil && !showAll {
			pterm.Warning.Println("Not logged in; run `nutriactl auth login`")
			return nil
		}

		_ = pterm.DefaultTable.WithHasHeader().WithData(sectionTable(identity, showAll)).Render()
		return nil
	},
}

func init() {
	NavCmd.Flags().BoolVar(&showAll, "all", false, "Include sections the identity cannot open")
}

func sectionTable(identity *sdk.Identity, all bool) pterm.TableData {
	data := pterm.TableData{{"GROUP", "SECTION", "PATH", "CAPABILITY", "ACCESS"}}
	for _, s := range sdk.Sections {
		allowed := sdk.Guard(staticReader{identity}, s.Capability).Allowed
		if !allowed && !all {
			continue
		}

		capability := s.Capability
		if capability == "" {
			capability = "-"
		}
		access := "yes"
		if !allowed {
			access = "no"
		}
		data = append(data, []string{s.Group, s.Label, s.Path, capability, access})
	}
	return data
}

type staticReader struct{ identity *sdk.Identity }

func (r staticReader) CurrentIdentity() *sdk.Identity { return r.identity }
