package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/engine"
	"github.com/rcliao/memstore/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a memory",
		Long:  "Add a memory. Text can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().String("meta", "", "Comma-separated key=value metadata")
	cmd.Flags().IntP("importance", "i", model.DefaultImportance, "Importance 1-5, out of range is clamped")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	tagsStr, _ := cmd.Flags().GetString("tags")
	meta, _ := cmd.Flags().GetString("meta")
	var importance *int
	if cmd.Flags().Changed("importance") {
		v, _ := cmd.Flags().GetInt("importance")
		importance = &v
	}

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("add", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	rec, err := e.Add(cmd.Context(), engine.AddParams{
		Text:       strings.TrimSpace(text),
		Tags:       splitList(tagsStr),
		Metadata:   parseMeta(meta),
		Importance: importance,
	})
	if err != nil {
		exitErr("add", err)
	}

	printJSON(cmd.OutOrStdout(), rec)
}
