package bggohcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ParseReference decodes expr as a bare `<root>.<name>` or
// `<root>.<name>.<attr>` traversal and returns name. When attrs is non-empty
// the trailing attribute, if present, must be one of them.
func ParseReference(expr hcl.Expression, root string, attrs ...string) (string, hcl.Diagnostics) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return "", diags
	}

	invalid := func(detail string) (string, hcl.Diagnostics) {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   detail,
			Subject:  expr.Range().Ptr(),
		}}
	}

	if traversal.RootName() != root {
		return invalid(fmt.Sprintf("Expected a reference of the form %s.<name>, got %s.", root, TraversalKey(traversal)))
	}
	if len(traversal) < 2 || len(traversal) > 3 {
		return invalid(fmt.Sprintf("Expected %s.<name> or %s.<name>.<attribute>, got %s.", root, root, TraversalKey(traversal)))
	}

	name, ok := traversal[1].(hcl.TraverseAttr)
	if !ok {
		return invalid(fmt.Sprintf("The name in %s must be an identifier.", TraversalKey(traversal)))
	}

	if len(traversal) == 3 {
		attr, ok := traversal[2].(hcl.TraverseAttr)
		if !ok {
			return invalid(fmt.Sprintf("The attribute in %s must be an identifier.", TraversalKey(traversal)))
		}
		if len(attrs) > 0 && !contains(attrs, attr.Name) {
			return invalid(fmt.Sprintf("Unsupported attribute %q in %s; supported: %v.", attr.Name, TraversalKey(traversal), attrs))
		}
	}

	return name.Name, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
