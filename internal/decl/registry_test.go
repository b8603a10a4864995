package decl

import (
	"errors"
	"testing"

	"amalgam/internal/graph"
)

func variable(id, name string, t TypeRef) *Record {
	return &Record{Identity: id, Name: name, Kind: KindVariable, Type: t}
}

func primitive(spelling string) TypeRef {
	return TypeRef{Class: Primitive, Spelling: spelling}
}

func named(id, spelling string) TypeRef {
	return TypeRef{Class: Named, Identity: id, Spelling: spelling}
}

func TestAdmitPrimitiveVariableIsIsolatedNode(t *testing.T) {
	g := graph.New()
	r := NewRegistry(g)

	if err := r.Admit(variable("c:@V@g", "g", primitive("int"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := g.NodeCount(); got != 1 {
		t.Errorf("expected 1 node, got %d", got)
	}
	if got := g.EdgeCount(); got != 0 {
		t.Errorf("expected no edges for primitive type, got %d", got)
	}
}

func TestAdmitNamedVariableAddsTypeEdge(t *testing.T) {
	g := graph.New()
	r := NewRegistry(g)

	if err := r.Admit(variable("c:@V@s", "s", named("c:@S@S", "struct S"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !g.HasEdge("c:@S@S", "c:@V@s") {
		t.Error("expected edge from type to variable")
	}
	if got := g.NodeCount(); got != 2 {
		t.Errorf("expected 2 nodes, got %d", got)
	}
}

func TestAdmitFunctionEdges(t *testing.T) {
	g := graph.New()
	r := NewRegistry(g)

	fn := &Record{
		Identity: "c:@F@make",
		Name:     "make",
		Kind:     KindFunction,
		Type:     named("c:@S@S", "struct S *"),
		Params: []Param{
			{Name: "n", Type: primitive("int")},
			{Name: "opts", Type: named("c:@S@Opts", "struct Opts *")},
		},
	}
	if err := r.Admit(fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !g.HasEdge("c:@S@S", "c:@F@make") {
		t.Error("expected return-type edge")
	}
	if !g.HasEdge("c:@S@Opts", "c:@F@make") {
		t.Error("expected parameter-type edge")
	}
	if got := g.EdgeCount(); got != 2 {
		t.Errorf("expected 2 edges (primitive param contributes none), got %d", got)
	}
}

func TestAdmitTypeRecordDependencies(t *testing.T) {
	g := graph.New()
	r := NewRegistry(g)

	rec := &Record{
		Identity: "c:@T@handle_t",
		Name:     "handle_t",
		Kind:     KindType,
		Type:     named("c:@S@handle", "struct handle"),
		Deps:     []TypeRef{named("c:@S@handle", "struct handle")},
	}
	if err := r.Admit(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !g.HasEdge("c:@S@handle", "c:@T@handle_t") {
		t.Error("expected type -> typedef edge")
	}
}

func TestDuplicateAdmissionIsIdempotent(t *testing.T) {
	g := graph.New()
	r := NewRegistry(g)

	first := variable("c:@V@errno_like", "errno_like", primitive("int"))
	second := variable("c:@V@errno_like", "errno_like", primitive("int"))

	if err := r.Admit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nodesBefore, edgesBefore := g.NodeCount(), g.EdgeCount()

	if err := r.Admit(second); err != nil {
		t.Fatalf("duplicate admission should not error: %v", err)
	}

	if got := r.Len(); got != 1 {
		t.Errorf("expected 1 registry entry, got %d", got)
	}
	if g.NodeCount() != nodesBefore || g.EdgeCount() != edgesBefore {
		t.Error("duplicate admission must not alter the graph")
	}
	if rec, _ := r.Get("c:@V@errno_like"); rec != first {
		t.Error("first sighting must win")
	}
}

func TestStrictModeRejectsConflictingDuplicate(t *testing.T) {
	g := graph.New()
	r := NewRegistry(g, WithStrictDuplicates())

	if err := r.Admit(variable("c:@V@x", "x", primitive("int"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Admit(variable("c:@V@x", "x", primitive("long")))
	if !errors.Is(err, ErrConflictingDecl) {
		t.Errorf("expected ErrConflictingDecl, got %v", err)
	}

	// An identical re-sighting stays silent even in strict mode.
	if err := r.Admit(variable("c:@V@x", "x", primitive("int"))); err != nil {
		t.Errorf("identical duplicate should not error: %v", err)
	}
}

func TestAdmitRejectsEmptyIdentity(t *testing.T) {
	r := NewRegistry(graph.New())
	if err := r.Admit(variable("", "x", primitive("int"))); err == nil {
		t.Error("expected error for empty identity")
	}
}

func TestAllReturnsAdmissionOrder(t *testing.T) {
	r := NewRegistry(graph.New())
	ids := []string{"c:@V@a", "c:@V@b", "c:@V@c"}
	for _, id := range ids {
		if err := r.Admit(variable(id, id, primitive("int"))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all := r.All()
	if len(all) != len(ids) {
		t.Fatalf("expected %d records, got %d", len(ids), len(all))
	}
	for i, rec := range all {
		if rec.Identity != ids[i] {
			t.Errorf("record %d: expected %q, got %q", i, ids[i], rec.Identity)
		}
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name string
		rec  *Record
		want string
	}{
		{
			name: "variable",
			rec:  variable("c:@V@g", "g", primitive("int")),
			want: "variable int g",
		},
		{
			name: "function",
			rec: &Record{
				Identity: "c:@F@make",
				Name:     "make",
				Kind:     KindFunction,
				Type:     named("c:@S@S", "struct S *"),
				Params:   []Param{{Name: "n", Type: primitive("int")}},
			},
			want: "function struct S * make(int)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Signature(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
