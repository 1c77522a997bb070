package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [description]",
		Short: "Assemble relevant memories for a task",
		Long:  "Search memories, then greedily pack the best ones into a token budget.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().StringP("tag", "t", "", "Only consider memories with this tag")
	cmd.Flags().StringP("mode", "m", "", "keyword, vector or hybrid")
	cmd.Flags().IntP("budget", "b", engine.DefaultContextBudget, "Max tokens in output")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	tag, _ := cmd.Flags().GetString("tag")
	mode, _ := cmd.Flags().GetString("mode")
	budget, _ := cmd.Flags().GetInt("budget")
	query := strings.Join(args, " ")

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	result, err := e.Context(cmd.Context(), engine.ContextParams{
		Query:  query,
		Tag:    tag,
		Mode:   mode,
		Budget: budget,
	})
	if err != nil {
		exitErr("context", err)
	}

	printJSON(cmd.OutOrStdout(), result)
}
