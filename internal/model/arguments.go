// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file turns the arguments list of a unit block into ordered argument
// specs. An element that is a bare unit reference becomes a reference; every
// other element is evaluated immediately into a literal.
package model

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/deploygrid/internal/bggohcl"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// referenceRoot is the variable root that names other units.
const referenceRoot = "unit"

// referenceAttrs are the result attributes a reference may select.
var referenceAttrs = []string{"address"}

func parseArguments(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]unit.Arg, hcl.Diagnostics) {
	tuple, ok := expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid arguments value",
			Detail:   "The 'arguments' attribute must be a list of constructor arguments.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	var diags hcl.Diagnostics
	args := make([]unit.Arg, 0, len(tuple.Exprs))
	for _, elem := range tuple.Exprs {
		arg, argDiags := parseArgument(elem, evalCtx)
		diags = append(diags, argDiags...)
		args = append(args, arg)
	}
	return args, diags
}

func parseArgument(expr hcl.Expression, evalCtx *hcl.EvalContext) (unit.Arg, hcl.Diagnostics) {
	if !bggohcl.ReferencesRoot(expr, referenceRoot) {
		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return unit.Arg{}, diags
		}
		native, err := ctyToNative(val)
		if err != nil {
			return unit.Arg{}, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unsupported argument value",
				Detail:   err.Error(),
				Subject:  expr.Range().Ptr(),
			}}
		}
		return unit.Literal(native), nil
	}

	if _, isTraversal := expr.(*hclsyntax.ScopeTraversalExpr); !isTraversal {
		return unit.Arg{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported unit reference",
			Detail:   "A unit reference must be a whole argument, such as unit.weth.address; it cannot be part of a larger expression.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	name, diags := bggohcl.ParseReference(expr, referenceRoot, referenceAttrs...)
	if diags.HasErrors() {
		return unit.Arg{}, diags
	}
	return unit.Ref(name), nil
}
