package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"amalgam/internal/amalg"
	"amalgam/internal/config"
	"amalgam/internal/graph"
	"amalgam/internal/scanner"
	"amalgam/util"
)

var (
	generateFlagOutput string
	generateFlagLangs  []string
	generateFlagStrict bool
)

func newGenerateCommand() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate [paths...]",
		Short: "Scan sources and emit the dependency-ordered declaration header",
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringVarP(&generateFlagOutput, "output", "o", "", "write the header to a file instead of stdout")
	generateCmd.Flags().StringSliceVar(&generateFlagLangs, "lang", nil, "languages to scan (c, cpp)")
	generateCmd.Flags().BoolVar(&generateFlagStrict, "strict", false, "fail on conflicting duplicate declarations")
	return generateCmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	paths, cfg, err := resolvePathsAndConfig(args)
	if err != nil {
		return err
	}
	if len(generateFlagLangs) > 0 {
		cfg.Languages = generateFlagLangs
	}
	if generateFlagStrict {
		cfg.StrictDuplicates = true
	}
	if generateFlagOutput != "" {
		cfg.Output = generateFlagOutput
	}

	var scanOpts []scanner.ScanOption
	if cfg.Workers > 0 {
		scanOpts = append(scanOpts, scanner.WithWorkers(cfg.Workers))
	}
	sc, err := scanner.New(cfg.Languages, scanOpts...)
	if err != nil {
		return err
	}
	defer sc.Close()

	var opts []amalg.Option
	if cfg.StrictDuplicates {
		opts = append(opts, amalg.WithStrictDuplicates())
	}
	a := amalg.New(opts...)

	if err := a.Parse(cmd.Context(), sc, paths); err != nil {
		return err
	}

	if cfg.Output != "" {
		if err := a.Dump(cfg.Output); err != nil {
			return describeOrderError(err)
		}
		return nil
	}
	return describeOrderError(a.Print(os.Stdout))
}

// describeOrderError rewords a cycle so the user sees the symbols involved
// rather than a bare error chain.
func describeOrderError(err error) error {
	var cycle *graph.CycleError
	if errors.As(err, &cycle) {
		return fmt.Errorf("declarations cannot be ordered: %w", cycle)
	}
	return err
}

// resolvePathsAndConfig defaults the scan roots to the workspace root and
// loads its configuration.
func resolvePathsAndConfig(args []string) ([]string, *config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	root, err := util.FindWorkspaceRoot(cwd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	if len(args) > 0 {
		return args, cfg, nil
	}
	return []string{root}, cfg, nil
}
