package decl

import (
	"errors"
	"fmt"
	"log/slog"

	"amalgam/internal/graph"
)

// ErrConflictingDecl is reported in strict mode when a duplicate identity
// arrives with a different signature than the record already admitted.
var ErrConflictingDecl = errors.New("conflicting declaration")

// Registry keeps exactly one record per identity and feeds the dependency
// graph as records are admitted. It is not safe for concurrent use: all
// admissions must go through a single writer.
type Registry struct {
	strict bool
	logger *slog.Logger
	g      *graph.Graph
	order  []string
	byID   map[string]*Record
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrictDuplicates makes conflicting re-sightings of an identity an
// error instead of a silent drop. Identical re-sightings stay silent.
func WithStrictDuplicates() Option {
	return func(r *Registry) { r.strict = true }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a registry feeding g. State is per amalgamation run;
// construct a fresh registry and graph for each run.
func NewRegistry(g *graph.Graph, opts ...Option) *Registry {
	r := &Registry{
		g:      g,
		logger: slog.Default(),
		byID:   make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Admit registers a declaration record. A record whose identity is already
// known is dropped (debug log, idempotent no-op), unless strict mode is on
// and its signature differs from the stored one, in which case
// ErrConflictingDecl is returned. Admission inserts the record's dependency
// edges into the graph.
func (r *Registry) Admit(rec *Record) error {
	if rec.Identity == "" {
		return fmt.Errorf("record %q has no identity", rec.Name)
	}

	if prev, ok := r.byID[rec.Identity]; ok {
		if r.strict && prev.Signature() != rec.Signature() {
			return fmt.Errorf("%w: %s seen as %q at %s, already registered as %q at %s",
				ErrConflictingDecl, rec.Identity,
				rec.Signature(), rec.Location, prev.Signature(), prev.Location)
		}
		r.logger.Debug("duplicate symbol dropped",
			"identity", rec.Identity, "name", rec.Name, "location", rec.Location.String())
		return nil
	}

	r.byID[rec.Identity] = rec
	r.order = append(r.order, rec.Identity)

	// The record is a node even when nothing depends on it and it depends
	// on nothing: primitive-typed declarations must still appear in output.
	r.g.AddNode(rec.Identity)

	switch rec.Kind {
	case KindVariable:
		r.typeEdge(rec.Type, rec.Identity)
	case KindFunction:
		r.typeEdge(rec.Type, rec.Identity)
		for _, p := range rec.Params {
			r.typeEdge(p.Type, rec.Identity)
		}
	case KindType:
		for _, dep := range rec.Deps {
			r.typeEdge(dep, rec.Identity)
		}
	}
	return nil
}

// typeEdge adds type-node → dependent edges. Primitive references contribute
// nothing; a named type becomes a node shared by identity across all users.
func (r *Registry) typeEdge(t TypeRef, dependent string) {
	if !t.IsNamed() {
		return
	}
	r.g.AddEdge(t.Identity, dependent)
}

// Get returns the record admitted under id.
func (r *Registry) Get(id string) (*Record, bool) {
	rec, ok := r.byID[id]
	return rec, ok
}

// All returns the admitted records in admission order. Final output order
// comes from the linearizer, not from this sequence.
func (r *Registry) All() []*Record {
	out := make([]*Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of distinct admitted identities.
func (r *Registry) Len() int {
	return len(r.byID)
}
