package model

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/deploygrid/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const dexGrid = `
network "apothem" {
  url         = env.RPC_URL_APOTHEM
  private_key = env.PRIVATE_KEY
  chain_id    = 51
}

unit "usdc" {
  contract = "USDC"
}

unit "weth" {
  contract = "WETH"
}

unit "dexbook" {
  contract   = "DexBook"
  arguments  = [unit.weth.address, unit.usdc]
  timeout    = "2m"
  depends_on = [unit.usdc]
}
`

func TestLoadGrid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.hcl", dexGrid)
	env := map[string]string{"RPC_URL_APOTHEM": "https://rpc.apothem.network", "PRIVATE_KEY": "0xabc"}

	grid, err := LoadGrid(context.Background(), path, env)
	require.NoError(t, err)

	require.Len(t, grid.Networks, 1)
	n, err := grid.Network("")
	require.NoError(t, err)
	assert.Equal(t, "apothem", n.Name)
	assert.Equal(t, "https://rpc.apothem.network", n.URL)
	assert.Equal(t, "0xabc", n.PrivateKey)
	assert.Equal(t, uint64(51), n.ChainID)
	assert.Zero(t, n.GasLimit)
	assert.Equal(t, path, n.FSInformation.FilePath)

	decls := grid.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, "usdc", decls[0].Name)
	assert.Equal(t, "USDC", decls[0].Contract)
	assert.Equal(t, 0, decls[0].Index)

	dex := decls[2]
	assert.Equal(t, "dexbook", dex.Name)
	assert.Equal(t, 2, dex.Index)
	assert.Equal(t, []unit.Arg{unit.Ref("weth"), unit.Ref("usdc")}, dex.Args)
	assert.Equal(t, []string{"usdc"}, dex.DependsOn)
	assert.Equal(t, 2*time.Minute, dex.Timeout)
}

func TestLoadGrid_Literals(t *testing.T) {
	path := writeFile(t, t.TempDir(), "grid.hcl", `
unit "token" {
  arguments = [
    "Wrapped Ether",
    upper("weth"),
    18,
    1000000000000000000000000,
    true,
    ["0x01", "0x02"],
    env.OWNER,
    format("%s-%d", "v", 2),
  ]
}
`)
	grid, err := LoadGrid(context.Background(), path, map[string]string{"OWNER": "0xowner"})
	require.NoError(t, err)

	args := grid.Units[0].Args
	require.Len(t, args, 8)
	assert.Equal(t, "Wrapped Ether", args[0].Value())
	assert.Equal(t, "WETH", args[1].Value())
	assert.Equal(t, 0, big.NewInt(18).Cmp(args[2].Value().(*big.Int)))
	supply, ok := new(big.Int).SetString("1000000000000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, 0, supply.Cmp(args[3].Value().(*big.Int)))
	assert.Equal(t, true, args[4].Value())
	assert.Equal(t, []any{"0x01", "0x02"}, args[5].Value())
	assert.Equal(t, "0xowner", args[6].Value())
	assert.Equal(t, "v-2", args[7].Value())
	for _, a := range args {
		assert.False(t, a.IsRef())
	}
}

func TestLoadGrid_DeclarationOrderAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.hcl", `unit "second" {}`)
	writeFile(t, dir, "a.hcl", `
unit "first" {}
unit "also_first" {}
`)
	writeFile(t, dir, "nested/c.hcl", `unit "third" {}`)
	writeFile(t, dir, "README.md", `not a grid`)

	grid, err := LoadGrid(context.Background(), dir, nil)
	require.NoError(t, err)

	var names []string
	for _, u := range grid.Declarations() {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"first", "also_first", "second", "third"}, names)
	for i, u := range grid.Declarations() {
		assert.Equal(t, i, u.Index)
	}
}

func TestLoadGrid_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown network attribute",
			src:     `network "x" { rpc = "http://rpc" }`,
			wantErr: "rpc",
		},
		{
			name:    "arguments not a list",
			src:     `unit "a" { arguments = "x" }`,
			wantErr: "must be a list",
		},
		{
			name:    "reference inside template",
			src:     `unit "a" { arguments = ["${unit.b.address}"] }`,
			wantErr: "cannot be part of a larger expression",
		},
		{
			name:    "unsupported reference attribute",
			src:     `unit "a" { arguments = [unit.b.tx_hash] }`,
			wantErr: "Unsupported attribute",
		},
		{
			name:    "depends_on not a list",
			src:     `unit "a" { depends_on = unit.b }`,
			wantErr: "must be a list of unit references",
		},
		{
			name:    "depends_on wrong root",
			src:     `unit "a" { depends_on = [env.b] }`,
			wantErr: "Expected a reference",
		},
		{
			name:    "bad timeout",
			src:     `unit "a" { timeout = "soon" }`,
			wantErr: "Invalid timeout",
		},
		{
			name:    "fractional number",
			src:     `unit "a" { arguments = [1.5] }`,
			wantErr: "not an integer",
		},
		{
			name:    "object argument",
			src:     `unit "a" { arguments = [{ a = 1 }] }`,
			wantErr: "not supported",
		},
		{
			name:    "unknown attribute",
			src:     `unit "a" { colour = "red" }`,
			wantErr: "colour",
		},
		{
			name:    "syntax error",
			src:     `unit "a" {`,
			wantErr: "failed to parse",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "grid.hcl", tt.src)
			_, err := LoadGrid(context.Background(), path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadGrid_EmptyDirectory(t *testing.T) {
	grid, err := LoadGrid(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, grid.Units)
	assert.Empty(t, grid.Networks)
}

func TestLoadGrid_MissingPath(t *testing.T) {
	_, err := LoadGrid(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.ErrorContains(t, err, "failed to find grid files")
}

func TestGridNetwork(t *testing.T) {
	g := NewGrid()
	_, err := g.Network("")
	assert.ErrorContains(t, err, "no network block")

	g.Networks = append(g.Networks, &Network{Name: "apothem"})
	n, err := g.Network("")
	require.NoError(t, err)
	assert.Equal(t, "apothem", n.Name)

	g.Networks = append(g.Networks, &Network{Name: "mainnet"})
	_, err = g.Network("")
	assert.ErrorContains(t, err, "apothem, mainnet")

	n, err = g.Network("mainnet")
	require.NoError(t, err)
	assert.Equal(t, "mainnet", n.Name)

	_, err = g.Network("sepolia")
	assert.ErrorContains(t, err, `"sepolia" is not declared`)
}

const twoNetworks = `
network "apothem" {
  url         = env.RPC_URL_APOTHEM
  private_key = env.PRIVATE_KEY
  chain_id    = 51
}

network "mainnet" {
  url         = env.RPC_URL_MAINNET
  private_key = upper(env.MAINNET_KEY)
}

unit "usdc" {
  contract = "USDC"
}
`

func TestGridNetwork_EvaluatedOnSelection(t *testing.T) {
	path := writeFile(t, t.TempDir(), "grid.hcl", twoNetworks)
	env := map[string]string{"RPC_URL_APOTHEM": "https://rpc.apothem.network", "PRIVATE_KEY": "0xabc"}

	grid, err := LoadGrid(context.Background(), path, env)
	require.NoError(t, err, "unset variables of other networks must not fail loading")
	require.Len(t, grid.Networks, 2)
	require.Len(t, grid.Units, 1)

	n, err := grid.Network("apothem")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.apothem.network", n.URL)
	assert.Equal(t, "0xabc", n.PrivateKey)
	assert.Equal(t, uint64(51), n.ChainID)

	t.Run("unset variables evaluate to empty", func(t *testing.T) {
		n, err := grid.Network("mainnet")
		require.NoError(t, err)
		assert.Empty(t, n.URL)
		assert.Empty(t, n.PrivateKey)
	})

	t.Run("missing attributes are empty", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "grid.hcl", `network "x" { chain_id = 5 }`)
		grid, err := LoadGrid(context.Background(), path, nil)
		require.NoError(t, err)
		n, err := grid.Network("x")
		require.NoError(t, err)
		assert.Empty(t, n.URL)
		assert.Equal(t, uint64(5), n.ChainID)
	})

	t.Run("type errors surface on selection", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "grid.hcl", "network \"x\" {\n  url = \"u\"\n  chain_id = \"fifty\"\n}\n")
		grid, err := LoadGrid(context.Background(), path, nil)
		require.NoError(t, err)
		_, err = grid.Network("x")
		assert.ErrorContains(t, err, `error parsing network "x"`)
	})
}
