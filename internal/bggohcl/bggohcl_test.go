package bggohcl

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		src     string
		want    string
		wantErr string
	}{
		{src: "unit.weth", want: "weth"},
		{src: "unit.weth.address", want: "weth"},
		{src: "unit.weth.tx_hash", wantErr: "Unsupported attribute"},
		{src: "env.weth", wantErr: "Expected a reference"},
		{src: "unit", wantErr: "Expected unit.<name>"},
		{src: "unit.a.address.more", wantErr: "Expected unit.<name>"},
		{src: `unit["weth"]`, wantErr: "must be an identifier"},
		{src: `"unit.weth"`, wantErr: "variable"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			name, diags := ParseReference(parseExpr(t, tt.src), "unit", "address")
			if tt.wantErr != "" {
				require.True(t, diags.HasErrors())
				assert.Contains(t, diags.Error(), tt.wantErr)
				return
			}
			require.False(t, diags.HasErrors(), diags.Error())
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestReferencesRoot(t *testing.T) {
	assert.True(t, ReferencesRoot(parseExpr(t, `"${unit.weth.address}"`), "unit"))
	assert.False(t, ReferencesRoot(parseExpr(t, `env.HOME`), "unit"))
	assert.False(t, ReferencesRoot(parseExpr(t, `42`), "unit"))
}

func TestTraversalKey(t *testing.T) {
	traversal, diags := hcl.AbsTraversalForExpr(parseExpr(t, "unit.weth.address"))
	require.False(t, diags.HasErrors())
	assert.Equal(t, "unit.weth.address", TraversalKey(traversal))
}
