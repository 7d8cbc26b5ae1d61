package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/app"
	"github.com/Ramsey-B/fern/pkg/alias"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type aliasOptions struct {
	scope         string
	area          string
	masterProject string
	limit         int
}

var aliasFlags aliasOptions

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Query the alias index",
}

var aliasResolveCmd = &cobra.Command{
	Use:   "resolve NAME",
	Short: "Resolve a raw project or master project name to its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, scope, err := aliasIndex()
		if err != nil {
			return err
		}
		res := idx.Resolve(args[0], scope, alias.Hint{Area: aliasFlags.area, MasterProject: aliasFlags.masterProject})
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"resolution": res,
			"variants":   idx.Variants(res, scope),
		})
	},
}

var aliasExpandCmd = &cobra.Command{
	Use:   "expand CANONICAL",
	Short: "List every known spelling of a canonical name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, scope, err := aliasIndex()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), idx.Expand(args[0], scope))
	},
}

var aliasSuggestCmd = &cobra.Command{
	Use:   "suggest NAME",
	Short: "List the registered variants closest to NAME",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.ValidateValue(aliasFlags.limit, "min=1,max=50"); err != nil {
			return fmt.Errorf("invalid limit: %w", err)
		}
		idx, scope, err := aliasIndex()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), idx.Suggest(args[0], scope, aliasFlags.limit))
	},
}

var aliasStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the loaded alias dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		idx, err := app.LoadIndex(cfg)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), idx.Stats())
	},
}

func init() {
	pf := aliasesCmd.PersistentFlags()
	pf.StringVar(&aliasFlags.scope, "scope", string(alias.ScopeProject), "project or masterProject")

	aliasResolveCmd.Flags().StringVar(&aliasFlags.area, "area", "", "area hint for contextual aliases")
	aliasResolveCmd.Flags().StringVar(&aliasFlags.masterProject, "master-project", "", "master project hint for contextual aliases")
	aliasSuggestCmd.Flags().IntVar(&aliasFlags.limit, "limit", 5, "number of suggestions")

	aliasesCmd.AddCommand(aliasResolveCmd, aliasExpandCmd, aliasSuggestCmd, aliasStatsCmd)
}

func aliasIndex() (*alias.Index, alias.Scope, error) {
	scope, ok := alias.ParseScope(strings.TrimSpace(aliasFlags.scope))
	if !ok {
		return nil, "", fmt.Errorf("scope must be project or masterProject")
	}
	idx, err := app.LoadIndex(cfg)
	if err != nil {
		return nil, "", err
	}
	return idx, scope, nil
}
