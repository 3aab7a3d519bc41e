// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the network block: the RPC endpoint and signing key a
// deployment run targets. Network blocks are only evaluated once selected,
// so a grid can declare networks whose credentials are not set.
package model

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
)

// Network is a network block. Its settings are filled in by Grid.Network.
type Network struct {
	Name       string
	URL        string
	PrivateKey string
	// ChainID is verified against the node when non-zero.
	ChainID uint64
	// GasLimit replaces gas estimation when non-zero.
	GasLimit      uint64
	FSInformation *FSInfo

	body hcl.Body
}

// hclNetwork represents a single 'network' block for decoding from HCL.
type hclNetwork struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// url and private_key are optional here; their presence is checked when
// the network is dialed.
type hclNetworkBody struct {
	URL        string  `hcl:"url,optional"`
	PrivateKey string  `hcl:"private_key,optional"`
	ChainID    *uint64 `hcl:"chain_id,optional"`
	GasLimit   *uint64 `hcl:"gas_limit,optional"`
}

var networkBodySchema, _ = gohcl.ImpliedBodySchema(hclNetworkBody{})

// newNetworkFromHCL checks the block's structure without evaluating it.
func newNetworkFromHCL(parsed *hclNetwork, filePath string) (*Network, hcl.Diagnostics) {
	if _, diags := parsed.Body.Content(networkBodySchema); diags.HasErrors() {
		return nil, diags
	}
	return &Network{
		Name:          parsed.Name,
		FSInformation: NewFSInfo(filePath),
		body:          parsed.Body,
	}, nil
}

// decode evaluates the block against env. Variables of env the block
// references but env lacks evaluate to "".
func (n *Network) decode(env map[string]string) hcl.Diagnostics {
	if n.body == nil {
		return nil
	}

	attrs, diags := n.body.JustAttributes()
	if diags.HasErrors() {
		return diags
	}
	scoped := make(map[string]string, len(env))
	for k, v := range env {
		scoped[k] = v
	}
	for _, attr := range attrs {
		for _, name := range envReferences(attr.Expr) {
			if _, ok := scoped[name]; !ok {
				scoped[name] = ""
			}
		}
	}

	var body hclNetworkBody
	if diags := gohcl.DecodeBody(n.body, NewEvalContext(scoped), &body); diags.HasErrors() {
		return diags
	}
	n.URL = strings.TrimSpace(body.URL)
	n.PrivateKey = strings.TrimSpace(body.PrivateKey)
	n.ChainID, n.GasLimit = 0, 0
	if body.ChainID != nil {
		n.ChainID = *body.ChainID
	}
	if body.GasLimit != nil {
		n.GasLimit = *body.GasLimit
	}
	return nil
}

// envReferences returns the names read as env.<name> in expr.
func envReferences(expr hcl.Expression) []string {
	var names []string
	for _, traversal := range expr.Variables() {
		if traversal.RootName() != envVariable || len(traversal) < 2 {
			continue
		}
		if attr, ok := traversal[1].(hcl.TraverseAttr); ok {
			names = append(names, attr.Name)
		}
	}
	return names
}

// Network evaluates and returns the named network. With an empty name, the
// grid's only network is returned; declaring several then requires a name.
func (g *Grid) Network(name string) (*Network, error) {
	n, err := g.findNetwork(name)
	if err != nil {
		return nil, err
	}
	if diags := n.decode(g.env); diags.HasErrors() {
		return nil, fmt.Errorf("error parsing network %q in file %s: %w", n.Name, n.FSInformation.FilePath, diags)
	}
	return n, nil
}

func (g *Grid) findNetwork(name string) (*Network, error) {
	if name == "" {
		switch len(g.Networks) {
		case 0:
			return nil, fmt.Errorf("grid declares no network block")
		case 1:
			return g.Networks[0], nil
		default:
			names := make([]string, len(g.Networks))
			for i, n := range g.Networks {
				names[i] = n.Name
			}
			return nil, fmt.Errorf("grid declares %d networks (%s); select one", len(names), strings.Join(names, ", "))
		}
	}

	for _, n := range g.Networks {
		if n.Name == name {
			return n, nil
		}
	}
	return nil, fmt.Errorf("network %q is not declared in the grid", name)
}
