package libdck

import (
	"sort"

	"github.com/pytrnsys/godck/dck"
)

// Extract evaluates the CONSTANTS and EQUATIONS declarations of a TRNSYS deck.
//
// Extract never fails as a whole: lines that cannot be parsed, call unsupported functions, fail to
// evaluate or never resolve are left out of the returned Constants and reported as diagnostics, ordered
// by line.  Extract keeps no state between calls and is safe to call from concurrent goroutines.
func Extract(deckText string) (dck.Constants, []dck.Diagnostic) {
	decls, diags := Transform(deckText)

	constants, resolveDiags := NewResolver().Resolve(decls)
	diags = append(diags, resolveDiags...)

	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Line < diags[j].Line
	})
	return constants, diags
}

// Equations returns the canonical "name=expression" text of every declaration in a deck, in source order.
func Equations(deckText string) []string {
	decls, _ := Transform(deckText)
	out := make([]string, len(decls))
	for i, decl := range decls {
		out[i] = decl.String()
	}
	return out
}
