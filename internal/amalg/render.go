package amalg

import (
	"strings"

	"amalgam/internal/decl"
)

// renderDeclaration produces the one-line forward-declaration form of a
// variable or function record.
func renderDeclaration(r *decl.Record) string {
	switch r.Kind {
	case decl.KindVariable:
		return "extern " + r.Type.Spelling + " " + r.Name + ";"
	case decl.KindFunction:
		params := make([]string, 0, len(r.Params))
		for _, p := range r.Params {
			if p.Name == "" {
				params = append(params, p.Type.Spelling)
				continue
			}
			params = append(params, p.Type.Spelling+" "+p.Name)
		}
		return r.Type.Spelling + " " + r.Name + "(" + strings.Join(params, ", ") + ");"
	default:
		return ""
	}
}
