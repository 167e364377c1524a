package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fondsync/internal/flags"
	"fondsync/internal/gitrepo"
	"fondsync/internal/pipeline"
	"fondsync/internal/vendorapi"
)

var entitySelector string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Fetch FONDSNET data and write snapshot files",
	Long: `Fetch the current record set for the selected entity type(s) from the
FONDSNET API and write it as a normalized YAML snapshot into the working
tree.

Records are sorted before serialization, so vendor-side reordering never
registers as a change. A missing snapshot (first-ever run) counts as changed
with the full set as the diff. This command only writes files; use "fondsync
push" (or "fondsync run") to commit and open a pull request.

Endpoint selection:
	--vendor-env test   (default) uses the FONDSNET test system
	--vendor-env live   uses the production system
	FONDSNET_TOKEN supplies the API credential.`,
	Run: func(cmd *cobra.Command, args []string) {
		validateConfig()
		entities, err := selectedEntities(entitySelector)
		if err != nil {
			usageErr(err)
		}

		ctx, cancel := runContext()
		defer cancel()

		source := vendorapi.NewClient(cfg.VendorBaseURL(), cfg.Vendor.Token)
		p := pipeline.New(cfg, nil, gitrepo.Open(cfg.Import.RepoDir), source, console)
		if _, err := p.Import(ctx, entities); err != nil {
			fatal(err)
		}
	},
}

// selectedEntities expands the --entity selector ("all", one type, or a
// comma-separated list) into concrete entity types.
func selectedEntities(selector string) ([]vendorapi.EntityType, error) {
	selector = strings.ToLower(strings.TrimSpace(selector))
	if selector == "" || selector == "all" {
		return vendorapi.AllEntityTypes(), nil
	}

	var entities []vendorapi.EntityType
	for _, part := range strings.Split(selector, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		entity, err := vendorapi.ParseEntityType(part)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("no entity types selected")
	}
	return entities, nil
}

func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&entitySelector, flags.FlagEntity, "all", "Entity type(s) to import: companies|contacts|dealers|all (comma-separated accepted)")
	cmd.Flags().StringVar(&cfg.Import.DataDir, flags.FlagDataDir, cfg.Import.DataDir, "Snapshot directory relative to the repository checkout")
	cmd.Flags().StringVar(&cfg.Vendor.Environment, flags.FlagVendorEnv, cfg.Vendor.Environment, "Vendor environment: live|test")
	cmd.Flags().StringVar(&cfg.Vendor.BaseURL, flags.FlagVendorURL, "", "Override the vendor API base URL (mostly for testing)")
	cmd.Flags().StringVar(&cfg.Vendor.Token, flags.FlagVendorToken, cfg.Vendor.Token, "Vendor API token (default: $FONDSNET_TOKEN)")
}

func init() {
	addImportFlags(importCmd)
	rootCmd.AddCommand(importCmd)
}
