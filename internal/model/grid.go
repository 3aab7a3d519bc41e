// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Grid structure, the root container for everything
// loaded from a user's .hcl files.
package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/fsutil"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// Grid represents the user's deployment definition.
type Grid struct {
	Networks []*Network
	Units    []*Unit

	// env is what network blocks are evaluated against once selected.
	env map[string]string
}

// NewGrid creates and returns an initialized Grid.
func NewGrid() *Grid {
	return &Grid{
		Networks: []*Network{},
		Units:    []*Unit{},
	}
}

// hclGridFile represents the top-level structure of a grid file for decoding.
type hclGridFile struct {
	Networks []*hclNetwork `hcl:"network,block"`
	Units    []*hclUnit    `hcl:"unit,block"`
}

// Declarations returns the unit declarations in declaration order.
func (g *Grid) Declarations() []*unit.Unit {
	out := make([]*unit.Unit, len(g.Units))
	for i, u := range g.Units {
		out[i] = u.Unit
	}
	return out
}

// loadFile parses a single HCL file and appends its blocks to the grid.
func (g *Grid) loadFile(filePath string, parser *hclparse.Parser, evalCtx *hcl.EvalContext) error {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsedFile hclGridFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsedFile)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	for _, parsed := range parsedFile.Networks {
		network, diags := newNetworkFromHCL(parsed, filePath)
		if diags.HasErrors() {
			return fmt.Errorf("error parsing network %q in file %s: %w", parsed.Name, filePath, diags)
		}
		g.Networks = append(g.Networks, network)
	}

	for _, parsed := range parsedFile.Units {
		u, diags := newUnitFromHCL(parsed, filePath, len(g.Units), evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("error parsing unit %q in file %s: %w", parsed.Name, filePath, diags)
		}
		g.Units = append(g.Units, u)
	}
	return nil
}

// LoadGrid finds and parses all HCL files under gridPath, which may be a
// single file or a directory. Unit expressions are evaluated against env;
// network blocks are evaluated by Grid.Network once one is selected.
func LoadGrid(ctx context.Context, gridPath string, env map[string]string) (*Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading grid from path", "path", gridPath)

	files, err := fsutil.FindFilesByExtension(gridPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find grid files in %s: %w", gridPath, err)
	}

	grid := NewGrid()
	grid.env = env
	if len(files) == 0 {
		logger.Warn("No .hcl grid files found in path, returning empty grid", "path", gridPath)
		return grid, nil
	}

	parser := hclparse.NewParser()
	evalCtx := NewEvalContext(env)
	for _, file := range files {
		if err := grid.loadFile(file, parser, evalCtx); err != nil {
			return nil, err
		}
	}

	logger.Debug("Grid loaded.", "files", len(files), "networks", len(grid.Networks), "units", len(grid.Units))
	return grid, nil
}
