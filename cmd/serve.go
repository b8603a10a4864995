package cmd

import (
	"github.com/spf13/cobra"

	"amalgam/internal/server"
	"amalgam/internal/store"
)

var serveFlagDB string

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve amalgamation tools over MCP (stdio)",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveFlagDB, "db", "", "index database path (default from config)")
	return serveCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	paths, cfg, err := resolvePathsAndConfig(nil)
	if err != nil {
		return err
	}
	root := paths[0]

	dbPath := cfg.DBPath
	if serveFlagDB != "" {
		dbPath = serveFlagDB
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	return server.New(root, st, cfg).Run(cmd.Context())
}
