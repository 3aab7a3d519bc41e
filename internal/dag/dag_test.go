package dag

import (
	"testing"

	"github.com/specialistvlad/deploygrid/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnit(name string, refs ...string) *unit.Unit {
	u := &unit.Unit{Name: name}
	for _, r := range refs {
		u.Args = append(u.Args, unit.Ref(r))
	}
	return u
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	require.NoError(t, g.AddNode(newUnit("a")))
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.Equal(t, 0, nodeA.index)
	assert.NotNil(t, nodeA.deps)
	assert.NotNil(t, nodeA.dependents)

	err := g.AddNode(newUnit("a"))
	var dup *DuplicateDeclarationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Unit)
	assert.Len(t, g.nodes, 1)

	require.NoError(t, g.AddNode(newUnit("b")))
	assert.Equal(t, 1, g.nodes["b"].index)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddNode(newUnit("a")))
		require.NoError(t, g.AddNode(newUnit("b")))

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		nodeA := g.nodes["a"]
		nodeB := g.nodes["b"]

		assert.Contains(t, nodeA.dependents, "b")
		assert.Equal(t, nodeB, nodeA.dependents["b"])
		assert.Contains(t, nodeB.deps, "a")
		assert.Equal(t, nodeA, nodeB.deps["a"])
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddNode(newUnit("a")))
		require.NoError(t, g.AddNode(newUnit("b")))

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")
	})
}

func TestDetectCycles(t *testing.T) {
	build := func(t *testing.T, ids []string, edges [][2]string) *Graph {
		t.Helper()
		g := New()
		for _, id := range ids {
			require.NoError(t, g.AddNode(newUnit(id)))
		}
		for _, e := range edges {
			require.NoError(t, g.AddEdge(e[0], e[1]))
		}
		return g
	}

	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := build(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "d"}})
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
		err := g.DetectCycles()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.ElementsMatch(t, []string{"a", "b"}, cycle.Members)
		assert.ErrorContains(t, err, "dependency cycle detected")
	})

	t.Run("longer cycle names only its members", func(t *testing.T) {
		// x depends on a, but is not part of the a..d cycle.
		g := build(t, []string{"x", "a", "b", "c", "d"},
			[][2]string{{"a", "x"}, {"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}})
		err := g.DetectCycles()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, cycle.Members)
	})
}

func TestDependenciesAndDependents(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, g.AddNode(newUnit(id)))
	}
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("b", "c"))

	deps, err := g.Dependencies("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, deps)

	dependents, err := g.Dependents("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, dependents)

	_, err = g.Dependencies("missing")
	assert.ErrorContains(t, err, "node not found")
}

func TestCycleError_Error(t *testing.T) {
	assert.Equal(t, "dependency cycle detected: a -> b -> a", (&CycleError{Members: []string{"a", "b"}}).Error())
	assert.Equal(t, "dependency cycle detected: a -> a", (&CycleError{Members: []string{"a"}}).Error())
	assert.Equal(t, "dependency cycle detected", (&CycleError{}).Error())
}
