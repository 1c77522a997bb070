package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of memories",
		Args:  cobra.NoArgs,
		Run:   runCount,
	}

	RootCmd.AddCommand(cmd)
}

func runCount(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	n, err := e.Count(cmd.Context())
	if err != nil {
		exitErr("count", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), n)
}
