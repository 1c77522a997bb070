package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the store directory",
		Long:  "Create the store directory with an empty log and a default config.json. Existing data is kept.",
		Args:  cobra.NoArgs,
		Run:   runInit,
	}

	RootCmd.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	dir, err := e.Init(cmd.Context())
	if err != nil {
		exitErr("init", err)
	}

	printJSON(cmd.OutOrStdout(), map[string]any{
		"ok":              true,
		"dir":             dir,
		"vectors_enabled": e.VectorsEnabled(),
	})
}
