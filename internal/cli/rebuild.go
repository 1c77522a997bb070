package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/embedding"
	"github.com/rcliao/memstore/internal/vector"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Re-embed every memory",
		Long:  "Clear the vector index and embed all memories again in batches.",
		Args:  cobra.NoArgs,
		Run:   runRebuild,
	}

	cmd.Flags().IntP("batch-size", "b", vector.DefaultBatchSize, "Texts per provider request")

	RootCmd.AddCommand(cmd)
}

func runRebuild(cmd *cobra.Command, args []string) {
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	e, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer e.Close()

	if !e.VectorsEnabled() {
		exitErr("rebuild", errors.Join(embedding.ErrDisabled,
			errors.New("set AGENT_MEMORY_EMBEDDING_API_BASE and AGENT_MEMORY_EMBEDDING_API_KEY")))
	}

	n, err := e.RebuildVectors(cmd.Context(), batchSize)
	if err != nil {
		exitErr("rebuild", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"embedded":%d}`+"\n", n)
}
