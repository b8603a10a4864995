package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"amalgam/internal/amalg"
	"amalgam/internal/graph"
	"amalgam/internal/scanner"
	"amalgam/util"
)

// Arguments structs

type AmalgamateArgs struct {
	Paths  []string `json:"paths" jsonschema:"description:Files or directories to scan; defaults to the workspace root"`
	Strict bool     `json:"strict" jsonschema:"description:Fail on conflicting duplicate declarations instead of dropping them"`
}

type GetSymbolsInFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"required,description:Path (or file URI) of the file to list declarations for"`
}

type FindDependentsArgs struct {
	SymbolName string `json:"symbol_name" jsonschema:"required,description:Display name of the symbol whose dependents to list"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "amalgamate",
		Description: "Scans the given paths and returns the dependency-ordered declaration header",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AmalgamateArgs) (*mcp.CallToolResult, any, error) {
		paths := args.Paths
		if len(paths) == 0 {
			paths = []string{s.workspace}
		}

		sc, err := scanner.New(s.cfg.Languages)
		if err != nil {
			return errorResult(fmt.Sprintf("Scanner setup failed: %v", err)), nil, nil
		}
		defer sc.Close()

		var opts []amalg.Option
		if args.Strict || s.cfg.StrictDuplicates {
			opts = append(opts, amalg.WithStrictDuplicates())
		}
		a := amalg.New(opts...)

		if err := a.Parse(ctx, sc, paths); err != nil {
			return errorResult(fmt.Sprintf("Scan failed: %v", err)), nil, nil
		}

		content, err := a.Content()
		if err != nil {
			var cycle *graph.CycleError
			if errors.As(err, &cycle) {
				return errorResult(fmt.Sprintf("Cannot order declarations: %v", cycle)), nil, nil
			}
			return errorResult(fmt.Sprintf("Ordering failed: %v", err)), nil, nil
		}

		if s.store != nil {
			if err := s.updateIndex(ctx, a); err != nil {
				// The header is still valid; report the index failure only.
				return textResult(fmt.Sprintf("%s\n(warning: index update failed: %v)", content, err)), nil, nil
			}
		}
		return textResult(content), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_symbols_in_file",
		Description: "Returns the indexed declarations of a file",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetSymbolsInFileArgs) (*mcp.CallToolResult, any, error) {
		if s.store == nil {
			return errorResult("No index is configured; run with --db or amalgamate first"), nil, nil
		}

		nodes, err := s.store.GetSymbolsInFile(ctx, util.URIToPath(args.FilePath))
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}

		type SimpleNode struct {
			Name      string `json:"name"`
			Kind      string `json:"kind"`
			Signature string `json:"signature"`
			Line      uint   `json:"line"`
		}
		var simple []SimpleNode
		for _, n := range nodes {
			simple = append(simple, SimpleNode{
				Name:      n.Name,
				Kind:      n.Kind,
				Signature: n.Signature,
				Line:      n.Line,
			})
		}

		jsonBytes, _ := json.MarshalIndent(simple, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_dependents",
		Description: "Finds declarations that depend on a symbol",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindDependentsArgs) (*mcp.CallToolResult, any, error) {
		if s.store == nil {
			return errorResult("No index is configured; run with --db or amalgamate first"), nil, nil
		}

		nodes, err := s.store.FindDependents(ctx, args.SymbolName)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(nodes) == 0 {
			return textResult("No dependent symbols found."), nil, nil
		}

		type DependentNode struct {
			Name     string `json:"name"`
			Kind     string `json:"kind"`
			FilePath string `json:"file_path"`
			Line     uint   `json:"line"`
		}
		var dependents []DependentNode
		for _, n := range nodes {
			dependents = append(dependents, DependentNode{
				Name:     n.Name,
				Kind:     n.Kind,
				FilePath: n.FilePath,
				Line:     n.Line,
			})
		}

		jsonBytes, _ := json.MarshalIndent(dependents, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})
}

// updateIndex persists the run's nodes and edges, pruning entries from
// files that no longer exist in the scan.
func (s *Server) updateIndex(ctx context.Context, a *amalg.Amalgamation) error {
	nodes, edges := a.Export()

	if err := s.store.BulkUpsertNodes(ctx, nodes); err != nil {
		return fmt.Errorf("storing nodes: %w", err)
	}
	if err := s.store.BulkUpsertEdges(ctx, edges); err != nil {
		return fmt.Errorf("storing edges: %w", err)
	}

	validFiles := make(map[string]bool)
	var validFileList []string
	for _, n := range nodes {
		if n.FilePath != "" && !validFiles[n.FilePath] {
			validFiles[n.FilePath] = true
			validFileList = append(validFileList, n.FilePath)
		}
	}
	return s.store.PruneStaleFiles(ctx, validFileList)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
