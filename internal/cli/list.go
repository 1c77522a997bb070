package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent memories",
		Args:  cobra.NoArgs,
		Run:   runList,
	}

	cmd.Flags().IntP("limit", "n", engine.DefaultListLimit, "Number of entries")
	cmd.Flags().Bool("ids-only", false, "Only output record ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	records, err := e.List(cmd.Context(), limit)
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, r := range records {
			fmt.Fprintln(cmd.OutOrStdout(), r.ID)
		}
		return
	}

	printJSON(cmd.OutOrStdout(), records)
}
