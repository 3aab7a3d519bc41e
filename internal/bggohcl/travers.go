package bggohcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// TraversalKey generates a stable, canonical string representation for an hcl.Traversal,
// suitable for use as a map key or in a diagnostic.
func TraversalKey(t hcl.Traversal) string {
	// e.g., unit.weth.address
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// ReferencesRoot reports whether any variable in expr starts at root.
func ReferencesRoot(expr hcl.Expression, root string) bool {
	for _, v := range expr.Variables() {
		if v.RootName() == root {
			return true
		}
	}
	return false
}
