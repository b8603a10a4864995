package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "amalgam",
	Short: "Dependency-ordered forward-declaration headers for C/C++ codebases",
}

func Exec() {
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newIndexCommand())
	rootCmd.AddCommand(newServeCommand())

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
