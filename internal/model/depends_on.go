// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file contains the parsing and validation logic for the depends_on
// attribute, which adds ordering edges between units that do not pass an
// address to each other.
package model

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/deploygrid/internal/bggohcl"
)

// parseDependsOn finds the "depends_on" attribute and returns the referenced
// unit names. The expression must be a list of unit references.
func parseDependsOn(attrs hcl.Attributes) ([]string, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	dependsOnAttr, exists := attrs["depends_on"]
	if !exists {
		// The attribute is optional, so it's not an error if it's missing.
		return nil, diags
	}
	expr := dependsOnAttr.Expr

	tuple, isTuple := expr.(*hclsyntax.TupleConsExpr)
	if !isTuple {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid depends_on value",
			Detail:   "The 'depends_on' attribute must be a list of unit references.",
			Subject:  expr.Range().Ptr(),
		})
		return nil, diags
	}

	names := make([]string, 0, len(tuple.Exprs))
	for _, elem := range tuple.Exprs {
		name, refDiags := bggohcl.ParseReference(elem, referenceRoot, referenceAttrs...)
		diags = append(diags, refDiags...)
		if !refDiags.HasErrors() {
			names = append(names, name)
		}
	}
	return names, diags
}
