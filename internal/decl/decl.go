package decl

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of record variants.
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindType
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindType:
		return "type"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Class separates types that need a forward reference from those that don't.
type Class int

const (
	// Primitive is a built-in scalar/void type, or a pointer to one.
	Primitive Class = iota
	// Named is a type defined by some entity (struct/union/enum tag or
	// typedef) which must appear earlier in the output.
	Named
)

// Location is a source position. File may be empty for synthetic entities.
type Location struct {
	File   string
	Line   uint
	Column uint
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// TypeRef classifies one use of a type. A Named reference carries the
// identity of the defining entity: every use of the same type resolves to
// the same graph node, never a fresh copy per use.
type TypeRef struct {
	Class    Class
	Identity string // defining entity, Named only
	Spelling string // display form, e.g. "struct S *" or "unsigned int"
}

// IsNamed reports whether the reference requires a forward declaration.
func (t TypeRef) IsNamed() bool {
	return t.Class == Named && t.Identity != ""
}

// Param is one function parameter. Name may be empty for unnamed parameters.
type Param struct {
	Name string
	Type TypeRef
}

// Record is one top-level declaration sighted by the parser: a global
// variable, a function, or a named-type definition. Type definitions are
// admitted so their own prerequisites order before them; they are graph
// nodes only and never rendered.
type Record struct {
	Identity string
	Name     string
	Kind     Kind
	Type     TypeRef   // value type (variable) or return type (function)
	Params   []Param   // KindFunction only
	Deps     []TypeRef // KindType only: named types this type requires
	Location Location
}

// Signature returns a canonical one-line shape of the record, used to tell
// whether two sightings under the same identity actually conflict.
func (r *Record) Signature() string {
	var b strings.Builder
	b.WriteString(r.Kind.String())
	b.WriteByte(' ')
	b.WriteString(r.Type.Spelling)
	b.WriteByte(' ')
	b.WriteString(r.Name)
	if r.Kind == KindFunction {
		b.WriteByte('(')
		for i, p := range r.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Type.Spelling)
		}
		b.WriteByte(')')
	}
	return b.String()
}
