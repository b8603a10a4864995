package scanner

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"amalgam/internal/decl"
	"amalgam/util"
)

// extractor pulls declaration records out of one parsed file.
type extractor struct {
	path  string
	src   []byte
	query *tree_sitter.Query
}

func (e *extractor) records(root *tree_sitter.Node) []*decl.Record {
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	names := e.query.CaptureNames()

	var out []*decl.Record
	matches := qc.Matches(e.query, root, e.src)
	for m := matches.Next(); m != nil; m = matches.Next() {
		for _, c := range m.Captures {
			node := c.Node
			switch names[c.Index] {
			case "decl":
				out = append(out, e.declaration(&node)...)
			case "func":
				out = append(out, e.functionDefinition(&node)...)
			case "typedef":
				out = append(out, e.typeDefinition(&node)...)
			case "type":
				out = append(out, e.typeSpecifier(&node)...)
			}
		}
	}
	return out
}

// declaration handles `int g;`, `extern struct S s;`, prototypes like
// `struct S *make(void);`, and multi-declarator forms (`int a, b;`).
func (e *extractor) declaration(node *tree_sitter.Node) []*decl.Record {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}

	var out []*decl.Record
	// A definition used inline (`struct S { ... } s;`) also admits the type.
	out = append(out, e.inlineTypeRecords(typeNode)...)

	for _, d := range declarators(node) {
		name, ptr, fn := e.unwrapDeclarator(d)
		if name == "" {
			continue
		}
		base := e.typeRef(typeNode, ptr)
		if fn != nil {
			out = append(out, &decl.Record{
				Identity: "c:@F@" + name,
				Name:     name,
				Kind:     decl.KindFunction,
				Type:     base,
				Params:   e.parameters(fn),
				Location: e.location(d),
			})
			continue
		}
		out = append(out, &decl.Record{
			Identity: "c:@V@" + name,
			Name:     name,
			Kind:     decl.KindVariable,
			Type:     base,
			Location: e.location(d),
		})
	}
	return out
}

// functionDefinition handles a definition body; the emitted record is the
// same shape as a prototype's.
func (e *extractor) functionDefinition(node *tree_sitter.Node) []*decl.Record {
	typeNode := node.ChildByFieldName("type")
	d := node.ChildByFieldName("declarator")
	if typeNode == nil || d == nil {
		return nil
	}

	out := e.inlineTypeRecords(typeNode)

	name, ptr, fn := e.unwrapDeclarator(d)
	if name == "" || fn == nil {
		return out
	}
	out = append(out, &decl.Record{
		Identity: "c:@F@" + name,
		Name:     name,
		Kind:     decl.KindFunction,
		Type:     e.typeRef(typeNode, ptr),
		Params:   e.parameters(fn),
		Location: e.location(node),
	})
	return out
}

// typeDefinition admits a typedef as a named-type node depending on its
// underlying type, so alias chains order correctly.
func (e *extractor) typeDefinition(node *tree_sitter.Node) []*decl.Record {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}

	out := e.inlineTypeRecords(typeNode)
	underlying := e.typeRef(typeNode, 0)

	for _, d := range declarators(node) {
		name, _, _ := e.unwrapDeclarator(d)
		if name == "" {
			continue
		}
		rec := &decl.Record{
			Identity: "c:@T@" + name,
			Name:     name,
			Kind:     decl.KindType,
			Type:     underlying,
			Location: e.location(node),
		}
		if underlying.IsNamed() && underlying.Identity != rec.Identity {
			rec.Deps = append(rec.Deps, underlying)
		}
		out = append(out, rec)
	}
	return out
}

// typeSpecifier admits a bare top-level definition (`struct S { ... };`)
// as a named-type node whose field types become type → type edges.
func (e *extractor) typeSpecifier(node *tree_sitter.Node) []*decl.Record {
	if node.ChildByFieldName("body") == nil {
		// A lone forward declaration carries no dependencies of its own.
		return nil
	}
	return e.typeRecords(node)
}

// typeRecords builds the record for one definition plus records for any
// nested inline definitions in its fields.
func (e *extractor) typeRecords(node *tree_sitter.Node) []*decl.Record {
	self := e.typeRef(node, 0)
	rec := &decl.Record{
		Identity: self.Identity,
		Name:     self.Spelling,
		Kind:     decl.KindType,
		Type:     self,
		Location: e.location(node),
	}

	var nested []*decl.Record
	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			field := body.NamedChild(i)
			if field.Kind() != "field_declaration" {
				continue
			}
			ftype := field.ChildByFieldName("type")
			if ftype == nil {
				continue
			}
			nested = append(nested, e.inlineTypeRecords(ftype)...)

			ptr := 0
			for _, d := range declarators(field) {
				_, p, _ := e.unwrapDeclarator(d)
				if p > ptr {
					ptr = p
				}
			}
			dep := e.typeRef(ftype, ptr)
			// A type referring to itself (`struct S { struct S *next; }`)
			// is not a dependency; a self-edge would trip the graph's
			// invariant check.
			if dep.IsNamed() && dep.Identity != rec.Identity {
				rec.Deps = append(rec.Deps, dep)
			}
		}
	}
	return append(nested, rec)
}

// inlineTypeRecords admits definitions that appear in type position, e.g.
// `struct S { ... }` inside a declaration or typedef.
func (e *extractor) inlineTypeRecords(typeNode *tree_sitter.Node) []*decl.Record {
	switch typeNode.Kind() {
	case "struct_specifier", "union_specifier", "class_specifier", "enum_specifier":
		if typeNode.ChildByFieldName("body") != nil {
			return e.typeRecords(typeNode)
		}
	}
	return nil
}

// typeRef classifies a type node. The built-in scalar/void categories need
// no forward reference; a pointer inherits its pointee's classification,
// except that a pointer to a named type still depends on the tag.
func (e *extractor) typeRef(typeNode *tree_sitter.Node, ptrDepth int) decl.TypeRef {
	stars := ""
	for i := 0; i < ptrDepth; i++ {
		stars += " *"
	}

	switch typeNode.Kind() {
	case "primitive_type", "sized_type_specifier":
		return decl.TypeRef{
			Class:    decl.Primitive,
			Spelling: typeNode.Utf8Text(e.src) + stars,
		}
	case "struct_specifier":
		return e.taggedRef(typeNode, "struct", "c:@S@", stars)
	case "class_specifier":
		return e.taggedRef(typeNode, "class", "c:@S@", stars)
	case "union_specifier":
		return e.taggedRef(typeNode, "union", "c:@U@", stars)
	case "enum_specifier":
		return e.taggedRef(typeNode, "enum", "c:@E@", stars)
	case "type_identifier":
		name := typeNode.Utf8Text(e.src)
		return decl.TypeRef{
			Class:    decl.Named,
			Identity: "c:@T@" + name,
			Spelling: name + stars,
		}
	default:
		// Not a category we classify; treat as primitive so no bogus
		// graph node appears.
		return decl.TypeRef{
			Class:    decl.Primitive,
			Spelling: typeNode.Utf8Text(e.src) + stars,
		}
	}
}

func (e *extractor) taggedRef(node *tree_sitter.Node, kw, prefix, stars string) decl.TypeRef {
	if name := node.ChildByFieldName("name"); name != nil {
		tag := name.Utf8Text(e.src)
		return decl.TypeRef{
			Class:    decl.Named,
			Identity: prefix + tag,
			Spelling: kw + " " + tag + stars,
		}
	}
	pos := node.StartPosition()
	return decl.TypeRef{
		Class:    decl.Named,
		Identity: util.AnonTypeID(e.path, pos.Row+1, pos.Column+1),
		Spelling: kw + " <anonymous>" + stars,
	}
}

// parameters reads a function declarator's parameter list. A lone `void`
// means "no parameters"; `...` is kept for rendering.
func (e *extractor) parameters(fn *tree_sitter.Node) []decl.Param {
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}

	var out []decl.Param
	for i := uint(0); i < list.NamedChildCount(); i++ {
		p := list.NamedChild(i)
		switch p.Kind() {
		case "parameter_declaration":
			ptype := p.ChildByFieldName("type")
			if ptype == nil {
				continue
			}
			name, ptr := "", 0
			if d := p.ChildByFieldName("declarator"); d != nil {
				name, ptr, _ = e.unwrapDeclarator(d)
			}
			ref := e.typeRef(ptype, ptr)
			if name == "" && ptr == 0 && ref.Spelling == "void" {
				continue
			}
			out = append(out, decl.Param{Name: name, Type: ref})
		case "variadic_parameter":
			out = append(out, decl.Param{Type: decl.TypeRef{Class: decl.Primitive, Spelling: "..."}})
		}
	}
	return out
}

func (e *extractor) location(node *tree_sitter.Node) decl.Location {
	pos := node.StartPosition()
	return decl.Location{
		File:   e.path,
		Line:   pos.Row + 1,
		Column: pos.Column + 1,
	}
}

// declarators collects the declarator children of a declaration-like node.
// tree-sitter assigns them all the same field, so `int a, b;` yields two.
func declarators(node *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "identifier", "field_identifier", "type_identifier",
			"init_declarator", "pointer_declarator",
			"function_declarator", "array_declarator",
			"parenthesized_declarator":
			out = append(out, child)
		}
	}
	return out
}

// unwrapDeclarator digs through declarator wrappers to the declared name,
// counting pointer depth and noting whether a function declarator was
// crossed (making the declaration a function, not a variable).
func (e *extractor) unwrapDeclarator(node *tree_sitter.Node) (name string, ptr int, fn *tree_sitter.Node) {
	src := node
	for src != nil {
		switch src.Kind() {
		case "identifier", "field_identifier", "type_identifier":
			return src.Utf8Text(e.src), ptr, fn
		case "init_declarator", "array_declarator":
			src = src.ChildByFieldName("declarator")
		case "pointer_declarator":
			ptr++
			src = src.ChildByFieldName("declarator")
		case "function_declarator":
			fn = src
			src = src.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			if src.NamedChildCount() == 0 {
				return "", ptr, fn
			}
			src = src.NamedChild(0)
		default:
			return "", ptr, fn
		}
	}
	return "", ptr, fn
}
