package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Retrieve a memory by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	rec, err := e.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	if rec == nil {
		exitErr("get", fmt.Errorf("no memory with id %q", args[0]))
	}

	printJSON(cmd.OutOrStdout(), rec)
}
