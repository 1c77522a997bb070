package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories",
		Long: "Rank memories against a query. Mode defaults to vector when an embedding " +
			"provider is configured, keyword otherwise.",
		Args: cobra.MinimumNArgs(1),
		Run:  runSearch,
	}

	cmd.Flags().IntP("limit", "n", 0, "Max results (default: max_results from config)")
	cmd.Flags().StringP("tag", "t", "", "Only rank memories with this tag")
	cmd.Flags().StringP("mode", "m", "", "keyword, vector or hybrid")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	tag, _ := cmd.Flags().GetString("tag")
	mode, _ := cmd.Flags().GetString("mode")
	query := strings.Join(args, " ")

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	res, err := e.Search(cmd.Context(), engine.SearchParams{
		Query: query,
		Limit: limit,
		Tag:   tag,
		Mode:  mode,
	})
	if err != nil {
		exitErr("search", err)
	}

	printJSON(cmd.OutOrStdout(), res)
}
