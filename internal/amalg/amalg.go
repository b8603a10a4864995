// Package amalg assembles dependency-ordered declaration listings. One
// Amalgamation owns one registry and one graph; construct a fresh value
// per run.
package amalg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"amalgam/internal/decl"
	"amalgam/internal/graph"
)

// Source yields declaration records for a set of files or directories.
// The scanner implements it; tests substitute fixed record sets.
type Source interface {
	Scan(ctx context.Context, roots []string) ([]*decl.Record, error)
}

// Amalgamation accumulates declarations and renders them in an order where
// every declaration follows the named types it depends on.
type Amalgamation struct {
	g      *graph.Graph
	reg    *decl.Registry
	logger *slog.Logger
}

// Option configures an Amalgamation.
type Option func(*config)

type config struct {
	strict bool
	logger *slog.Logger
}

// WithStrictDuplicates escalates conflicting duplicate declarations to
// errors instead of dropping them.
func WithStrictDuplicates() Option {
	return func(c *config) { c.strict = true }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// New creates an empty amalgamation.
func New(opts ...Option) *Amalgamation {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := graph.New()
	regOpts := []decl.Option{decl.WithLogger(cfg.logger)}
	if cfg.strict {
		regOpts = append(regOpts, decl.WithStrictDuplicates())
	}
	return &Amalgamation{
		g:      g,
		reg:    decl.NewRegistry(g, regOpts...),
		logger: cfg.logger,
	}
}

// Parse scans the given roots and admits every record found.
func (a *Amalgamation) Parse(ctx context.Context, src Source, roots []string) error {
	recs, err := src.Scan(ctx, roots)
	if err != nil {
		return err
	}
	return a.AdmitAll(recs)
}

// Admit registers one record.
func (a *Amalgamation) Admit(rec *decl.Record) error {
	return a.reg.Admit(rec)
}

// AdmitAll registers records in order. Admission is sequential by design:
// concurrent producers must funnel through one caller.
func (a *Amalgamation) AdmitAll(recs []*decl.Record) error {
	for _, rec := range recs {
		if err := a.reg.Admit(rec); err != nil {
			return err
		}
	}
	return nil
}

// Declarations returns the admitted variable and function records in
// dependency order. Pure type nodes participate in ordering but are not
// returned. A *graph.CycleError is returned when no valid order exists.
func (a *Amalgamation) Declarations() ([]*decl.Record, error) {
	order, err := a.g.TopoSort()
	if err != nil {
		return nil, err
	}

	out := make([]*decl.Record, 0, len(order))
	for _, id := range order {
		rec, ok := a.reg.Get(id)
		if !ok || rec.Kind == decl.KindType {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Content renders the full amalgamation: one line per declaration followed
// by its source-location comment.
func (a *Amalgamation) Content() (string, error) {
	decls, err := a.Declarations()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, d := range decls {
		b.WriteString(renderDeclaration(d))
		b.WriteString("  // ")
		b.WriteString(d.Location.String())
		b.WriteByte('\n')
	}

	if b.Len() == 0 {
		a.logger.Warn("amalgamation is empty; no top-level declarations were admitted")
	}
	return b.String(), nil
}

// Dump writes the amalgamation to a file.
func (a *Amalgamation) Dump(path string) error {
	content, err := a.Content()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// Print writes the amalgamation to w.
func (a *Amalgamation) Print(w io.Writer) error {
	content, err := a.Content()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, content)
	return err
}

// Graph exposes the underlying dependency graph.
func (a *Amalgamation) Graph() *graph.Graph {
	return a.g
}

// Registry exposes the underlying identity registry.
func (a *Amalgamation) Registry() *decl.Registry {
	return a.reg
}

// Export flattens the run into storable nodes and edges. Named types that
// were referenced but never defined still appear as bare type nodes.
func (a *Amalgamation) Export() ([]graph.Node, []graph.Edge) {
	ids := a.g.Nodes()
	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		rec, ok := a.reg.Get(id)
		if !ok {
			nodes = append(nodes, graph.Node{ID: id, Kind: decl.KindType.String()})
			continue
		}
		nodes = append(nodes, graph.Node{
			ID:        rec.Identity,
			Name:      rec.Name,
			Kind:      rec.Kind.String(),
			FilePath:  rec.Location.File,
			Line:      rec.Location.Line,
			Col:       rec.Location.Column,
			Signature: rec.Signature(),
		})
	}
	return nodes, a.g.Edges()
}
