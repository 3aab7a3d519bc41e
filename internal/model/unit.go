// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the unit block: one contract to deploy, the artifact it
// is built from and its constructor arguments.
package model

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// Unit is a parsed unit block.
type Unit struct {
	*unit.Unit
	FSInformation *FSInfo
}

// hclUnit represents a single 'unit' block for initial decoding from HCL.
type hclUnit struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

var unitBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "contract"},
		{Name: "arguments"},
		{Name: "depends_on"},
		{Name: "timeout"},
	},
}

// newUnitFromHCL creates a Unit from a parsed unit block. index is the
// unit's position in declaration order.
func newUnitFromHCL(parsed *hclUnit, filePath string, index int, evalCtx *hcl.EvalContext) (*Unit, hcl.Diagnostics) {
	u := &unit.Unit{Name: parsed.Name, Index: index}

	content, diags := parsed.Body.Content(unitBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	if attr, ok := content.Attributes["contract"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, evalCtx, &u.Contract)...)
	}

	if attr, ok := content.Attributes["timeout"]; ok {
		timeout, timeoutDiags := parseTimeout(attr.Expr, evalCtx)
		diags = append(diags, timeoutDiags...)
		u.Timeout = timeout
	}

	if attr, ok := content.Attributes["arguments"]; ok {
		args, argDiags := parseArguments(attr.Expr, evalCtx)
		diags = append(diags, argDiags...)
		u.Args = args
	}

	deps, depDiags := parseDependsOn(content.Attributes)
	diags = append(diags, depDiags...)
	u.DependsOn = deps

	if diags.HasErrors() {
		return nil, diags
	}
	return &Unit{Unit: u, FSInformation: NewFSInfo(filePath)}, diags
}

func parseTimeout(expr hcl.Expression, evalCtx *hcl.EvalContext) (time.Duration, hcl.Diagnostics) {
	var raw string
	if diags := gohcl.DecodeExpression(expr, evalCtx, &raw); diags.HasErrors() {
		return 0, diags
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid timeout",
			Detail:   fmt.Sprintf("The timeout must be a positive duration such as \"90s\" or \"5m\", got %q.", raw),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return d, nil
}
