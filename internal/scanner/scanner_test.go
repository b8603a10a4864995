package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"amalgam/internal/decl"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := New(nil)
	if err != nil {
		t.Fatalf("creating scanner: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func byIdentity(recs []*decl.Record) map[string]*decl.Record {
	m := make(map[string]*decl.Record, len(recs))
	for _, r := range recs {
		m[r.Identity] = r
	}
	return m
}

func TestScanBasicDeclarations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.c", `
int g;
struct S;
struct S *make();
`)

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := byIdentity(recs)

	v, ok := m["c:@V@g"]
	if !ok {
		t.Fatal("missing record for g")
	}
	if v.Kind != decl.KindVariable {
		t.Errorf("expected variable, got %v", v.Kind)
	}
	if v.Type.Class != decl.Primitive || v.Type.Spelling != "int" {
		t.Errorf("unexpected type for g: %+v", v.Type)
	}
	if v.Location.Line != 2 {
		t.Errorf("expected g at line 2, got %d", v.Location.Line)
	}

	f, ok := m["c:@F@make"]
	if !ok {
		t.Fatal("missing record for make")
	}
	if f.Kind != decl.KindFunction {
		t.Errorf("expected function, got %v", f.Kind)
	}
	if !f.Type.IsNamed() || f.Type.Identity != "c:@S@S" {
		t.Errorf("expected named return type c:@S@S, got %+v", f.Type)
	}
	if f.Type.Spelling != "struct S *" {
		t.Errorf("unexpected return spelling %q", f.Type.Spelling)
	}
	if len(f.Params) != 0 {
		t.Errorf("expected no params, got %d", len(f.Params))
	}

	// The bare forward declaration `struct S;` contributes no record.
	if _, ok := m["c:@S@S"]; ok {
		t.Error("forward declaration should not produce a type record")
	}
}

func TestScanFunctionParameters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fns.c", `
int add(int a, int b);
void log_msg(const char *fmt, ...);
int rand_like(void);
double mul(double x, double y) { return x * y; }
`)

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := byIdentity(recs)

	tests := []struct {
		identity string
		params   int
	}{
		{"c:@F@add", 2},
		{"c:@F@log_msg", 2},
		{"c:@F@rand_like", 0},
		{"c:@F@mul", 2},
	}
	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			rec, ok := m[tt.identity]
			if !ok {
				t.Fatalf("missing record %s", tt.identity)
			}
			if rec.Kind != decl.KindFunction {
				t.Fatalf("expected function, got %v", rec.Kind)
			}
			if len(rec.Params) != tt.params {
				t.Errorf("expected %d params, got %d: %+v", tt.params, len(rec.Params), rec.Params)
			}
		})
	}

	add := m["c:@F@add"]
	if add.Params[0].Name != "a" || add.Params[0].Type.Spelling != "int" {
		t.Errorf("unexpected first param of add: %+v", add.Params[0])
	}
	variadic := m["c:@F@log_msg"].Params[1]
	if variadic.Type.Spelling != "..." {
		t.Errorf("expected variadic param, got %+v", variadic)
	}
}

func TestScanTypedefChain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "point.c", `
struct point { int x; int y; };
typedef struct point point_t;
point_t origin;
`)

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := byIdentity(recs)

	st, ok := m["c:@S@point"]
	if !ok {
		t.Fatal("missing struct point record")
	}
	if st.Kind != decl.KindType {
		t.Errorf("expected type record, got %v", st.Kind)
	}
	if len(st.Deps) != 0 {
		t.Errorf("primitive fields must not produce deps, got %+v", st.Deps)
	}

	td, ok := m["c:@T@point_t"]
	if !ok {
		t.Fatal("missing typedef record")
	}
	if len(td.Deps) != 1 || td.Deps[0].Identity != "c:@S@point" {
		t.Errorf("expected typedef to depend on struct point, got %+v", td.Deps)
	}

	v, ok := m["c:@V@origin"]
	if !ok {
		t.Fatal("missing origin record")
	}
	if !v.Type.IsNamed() || v.Type.Identity != "c:@T@point_t" {
		t.Errorf("expected origin to reference the typedef, got %+v", v.Type)
	}
}

func TestScanSelfReferentialStruct(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "list.c", `
struct node { int value; struct node *next; };
struct node *head;
`)

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := byIdentity(recs)

	st, ok := m["c:@S@node"]
	if !ok {
		t.Fatal("missing struct node record")
	}
	for _, dep := range st.Deps {
		if dep.Identity == st.Identity {
			t.Error("self-referential field must not become a dependency")
		}
	}
}

func TestScanMutuallyReferentialStructs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cycle.c", `
struct a { struct b *other; };
struct b { struct a *other; };
`)

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := byIdentity(recs)

	a, b := m["c:@S@a"], m["c:@S@b"]
	if a == nil || b == nil {
		t.Fatal("missing struct records")
	}
	if len(a.Deps) != 1 || a.Deps[0].Identity != "c:@S@b" {
		t.Errorf("expected a -> b dep, got %+v", a.Deps)
	}
	if len(b.Deps) != 1 || b.Deps[0].Identity != "c:@S@a" {
		t.Errorf("expected b -> a dep, got %+v", b.Deps)
	}
}

func TestScanDuplicateSightingsAcrossUnits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.c", "extern int errno_like;\n")
	writeFile(t, dir, "b.c", "extern int errno_like;\n")

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := 0
	for _, r := range recs {
		if r.Identity == "c:@V@errno_like" {
			count++
		}
	}
	// Both sightings surface; collapsing to one entry is the registry's job.
	if count != 2 {
		t.Errorf("expected 2 sightings, got %d", count)
	}
}

func TestScanMultiDeclarator(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "multi.c", "int a, b;\n")

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := byIdentity(recs)
	if _, ok := m["c:@V@a"]; !ok {
		t.Error("missing record for a")
	}
	if _, ok := m["c:@V@b"]; !ok {
		t.Error("missing record for b")
	}
}

func TestScanHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "vendor/\n")
	writeFile(t, dir, "keep.c", "int kept;\n")
	if err := os.MkdirAll(filepath.Join(dir, "vendor"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "vendor"), "skip.c", "int skipped;\n")

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := byIdentity(recs)
	if _, ok := m["c:@V@kept"]; !ok {
		t.Error("expected kept to be scanned")
	}
	if _, ok := m["c:@V@skipped"]; ok {
		t.Error("vendored file should have been ignored")
	}
}

func TestScanSkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "int not_code;\n")
	writeFile(t, dir, "ok.c", "int ok;\n")

	s := newScanner(t)
	recs, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Identity != "c:@V@ok" {
		t.Errorf("expected only ok.c to be scanned, got %+v", recs)
	}
}

func TestScanDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.c", "int a;\nstruct S { int v; };\nstruct S s;\n")
	writeFile(t, dir, "b.c", "int b;\n")

	s := newScanner(t)
	first, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second scan hits the content cache; order must be identical.
	second, err := s.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("scan lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Identity != second[i].Identity {
			t.Errorf("record %d differs: %s vs %s", i, first[i].Identity, second[i].Identity)
		}
	}
}

func TestScanFileDirectly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.c", "unsigned long counter;\n")

	s := newScanner(t)
	recs, err := s.ScanFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Type.Spelling != "unsigned long" {
		t.Errorf("unexpected spelling %q", recs[0].Type.Spelling)
	}
	if recs[0].Location.File != path {
		t.Errorf("expected location file %q, got %q", path, recs[0].Location.File)
	}
}
