package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tag [id]",
		Short: "Add or remove tags on a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runTag,
	}

	cmd.Flags().StringP("add", "a", "", "Comma-separated tags to add")
	cmd.Flags().StringP("remove", "r", "", "Comma-separated tags to remove")

	RootCmd.AddCommand(cmd)
}

func runTag(cmd *cobra.Command, args []string) {
	add, _ := cmd.Flags().GetString("add")
	remove, _ := cmd.Flags().GetString("remove")

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	rec, err := e.Tag(cmd.Context(), args[0], splitList(add), splitList(remove))
	if err != nil {
		exitErr("tag", err)
	}
	if rec == nil {
		exitErr("tag", fmt.Errorf("no memory with id %q", args[0]))
	}

	printJSON(cmd.OutOrStdout(), rec)
}
