package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all memories",
		Long:  "Export every memory in log order as Markdown, JSON or YAML.",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}

	cmd.Flags().StringP("format", "f", "", "md, json or yaml (default: default_export_format from config)")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	format, _ := cmd.Flags().GetString("format")

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	out, err := e.Export(cmd.Context(), format)
	if err != nil {
		exitErr("export", err)
	}

	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
}
