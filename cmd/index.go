package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"amalgam/internal/amalg"
	"amalgam/internal/scanner"
	"amalgam/internal/store"
)

var indexFlagDB string

func newIndexCommand() *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Scan sources and persist the declaration graph to a sqlite index",
		RunE:  runIndex,
	}
	indexCmd.Flags().StringVar(&indexFlagDB, "db", "", "index database path (default from config)")
	return indexCmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	paths, cfg, err := resolvePathsAndConfig(args)
	if err != nil {
		return err
	}
	dbPath := cfg.DBPath
	if indexFlagDB != "" {
		dbPath = indexFlagDB
	}

	sc, err := scanner.New(cfg.Languages)
	if err != nil {
		return err
	}
	defer sc.Close()

	a := amalg.New()
	if err := a.Parse(cmd.Context(), sc, paths); err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	nodes, edges := a.Export()
	if err := st.BulkUpsertNodes(ctx, nodes); err != nil {
		return err
	}
	if err := st.BulkUpsertEdges(ctx, edges); err != nil {
		return err
	}

	seen := make(map[string]bool)
	var files []string
	for _, n := range nodes {
		if n.FilePath != "" && !seen[n.FilePath] {
			seen[n.FilePath] = true
			files = append(files, n.FilePath)
		}
	}
	if err := st.PruneStaleFiles(ctx, files); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to prune stale files: %v\n", err)
	}

	fmt.Printf("Indexed %d nodes and %d edges into %s\n", len(nodes), len(edges), dbPath)
	return nil
}
