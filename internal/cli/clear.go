package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all memories",
		Long:  "Delete every memory and its vector. Requires --yes.",
		Args:  cobra.NoArgs,
		Run:   runClear,
	}

	cmd.Flags().Bool("yes", false, "Confirm deleting everything")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		exitErr("clear", errors.New("refusing to delete all memories without --yes"))
	}

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	n, err := e.Clear(cmd.Context())
	if err != nil {
		exitErr("clear", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"deleted":%d}`+"\n", n)
}
