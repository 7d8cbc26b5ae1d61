package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/app"
	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/store/memstore"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type resolveOptions struct {
	file          string
	records       string
	strategy      string
	ignoreSize    bool
	permit        string
	project       string
	masterProject string
	area          string
	propertyType  string
	size          float64
}

var resolveFlags resolveOptions

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve listings from flags or a JSON file",
	Long: `Resolve one listing built from flags, or every listing in a JSON file.
The file holds a single listing object or an array of them; "-" reads stdin.

Records come from the configured database, or from a JSON fixture with
--records holding permit_records, canonical_records and legacy_records.`,
	Example: `  fern resolve --permit 7123456 --size 1199.96
  fern resolve --project "Marina Gate" --records testdata/records.json
  fern resolve --file listings.json --strategy fuzzy --ignore-size`,
	RunE: runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.StringVarP(&resolveFlags.file, "file", "f", "", "JSON listing or array of listings")
	f.StringVar(&resolveFlags.records, "records", "", "JSON record fixture to resolve against instead of the database")
	f.StringVar(&resolveFlags.strategy, "strategy", "", "run a single strategy (permit, mapper or fuzzy) outside the cascade")
	f.BoolVar(&resolveFlags.ignoreSize, "ignore-size", false, "drop the listing size before a single strategy run")
	f.StringVar(&resolveFlags.permit, "permit", "", "permit number fragment")
	f.StringVar(&resolveFlags.project, "project", "", "project name")
	f.StringVar(&resolveFlags.masterProject, "master-project", "", "master project name")
	f.StringVar(&resolveFlags.area, "area", "", "alias area hint")
	f.StringVar(&resolveFlags.propertyType, "property-type", "", "property type")
	f.Float64Var(&resolveFlags.size, "size", 0, "size in square feet")
}

func runResolve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	listings, err := readListings(cmd)
	if err != nil {
		return err
	}

	strategy := models.Strategy(resolveFlags.strategy)
	switch strategy {
	case "", models.StrategyPermit, models.StrategyMapper, models.StrategyFuzzy:
	default:
		return fmt.Errorf("unknown strategy: %s", strategy)
	}

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	resolvers, err := app.BuildResolvers(cfg, logger, st)
	if err != nil {
		return err
	}

	responses := make([]models.ResolveResponse, 0, len(listings))
	for _, listing := range listings {
		if strategy == "" {
			responses = append(responses, resolvers.Service.Resolve(ctx, listing))
			continue
		}
		resp, err := resolvers.Service.RunStrategy(ctx, strategy, listing, resolveFlags.ignoreSize)
		if err != nil {
			return err
		}
		responses = append(responses, resp)
	}

	if len(responses) == 1 {
		return writeJSON(cmd.OutOrStdout(), responses[0])
	}
	return writeJSON(cmd.OutOrStdout(), responses)
}

// readListings reads --file, or builds a single listing from the flags
func readListings(cmd *cobra.Command) ([]models.ScrapedListing, error) {
	if resolveFlags.file == "" {
		listing := models.ScrapedListing{
			LocationDetails: models.LocationDetails{
				Project:       resolveFlags.project,
				MasterProject: resolveFlags.masterProject,
			},
			Area:         resolveFlags.area,
			PropertyType: resolveFlags.propertyType,
			PermitNumber: resolveFlags.permit,
		}
		if cmd.Flags().Changed("size") {
			size := resolveFlags.size
			listing.SizeNumeric = &size
		}
		if _, err := utils.Validate(listing); err != nil {
			return nil, err
		}
		return []models.ScrapedListing{listing}, nil
	}

	var (
		data []byte
		err  error
	)
	if resolveFlags.file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(resolveFlags.file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return parseListings(data)
}

func parseListings(data []byte) ([]models.ScrapedListing, error) {
	data = bytes.TrimSpace(data)
	var listings []models.ScrapedListing
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &listings); err != nil {
			return nil, fmt.Errorf("failed to parse listings: %w", err)
		}
	} else {
		var listing models.ScrapedListing
		if err := json.Unmarshal(data, &listing); err != nil {
			return nil, fmt.Errorf("failed to parse listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("no listings to resolve")
	}
	for i, listing := range listings {
		if _, err := utils.Validate(listing); err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
	}
	return listings, nil
}

// openStore returns the --records fixture when set, otherwise the database repositories
func openStore(cmd *cobra.Command) (store.Store, func(), error) {
	if resolveFlags.records != "" {
		fixture, err := memstore.Load(resolveFlags.records)
		if err != nil {
			return store.Store{}, nil, err
		}
		return fixture.Collections(), func() {}, nil
	}

	db, err := database.Connect(cmd.Context(), app.DatabaseConfig(cfg), logger)
	if err != nil {
		return store.Store{}, nil, err
	}
	return repositories.New(db, logger).Store(), func() { _ = db.Close() }, nil
}
