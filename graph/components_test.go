package graph

import (
	"fmt"
	"slices"
	"testing"

	"github.com/kovidgoyal/lightdetect/sphere"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = fmt.Print

func graphFromEdges(n int, edges ...[2]int) *Graph {
	g := New(n)
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func requirePartition(t *testing.T, n int, components [][]int) {
	t.Helper()
	seen := make([]bool, n)
	for _, c := range components {
		for _, node := range c {
			require.False(t, seen[node], "node %d is in more than one component", node)
			seen[node] = true
		}
	}
	for node, ok := range seen {
		require.True(t, ok, "node %d is in no component", node)
	}
	for k := 1; k < len(components); k++ {
		require.GreaterOrEqual(t, len(components[k-1]), len(components[k]))
	}
}

func TestComponents(t *testing.T) {
	testCases := []struct {
		name  string
		n     int
		edges [][2]int
		want  [][]int
	}{
		{"empty", 0, nil, [][]int{}},
		{"isolated", 3, nil, [][]int{{0}, {1}, {2}}},
		{"chain", 4, [][2]int{{0, 1}, {1, 2}, {2, 3}}, [][]int{{0, 1, 2, 3}}},
		{
			"larger component first", 6,
			[][2]int{{0, 5}, {1, 2}, {2, 3}, {3, 4}},
			[][]int{{1, 2, 3, 4}, {0, 5}},
		},
		{
			"ties keep discovery order", 6,
			[][2]int{{4, 5}, {0, 3}, {1, 2}},
			[][]int{{0, 3}, {1, 2}, {4, 5}},
		},
		{
			"depth first order", 7,
			[][2]int{{0, 1}, {0, 2}, {1, 3}, {1, 4}, {2, 5}, {5, 6}},
			[][]int{{0, 1, 3, 4, 2, 5, 6}},
		},
		{
			"cycle", 4,
			[][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}},
			[][]int{{0, 1, 2, 3}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := graphFromEdges(tc.n, tc.edges...).Components()
			require.Equal(t, tc.want, got)
			requirePartition(t, tc.n, got)
		})
	}
}

func TestComponentsDeepChain(t *testing.T) {
	const n = 200000
	g := New(n)
	for i := 1; i < n; i++ {
		g.AddEdge(i-1, i)
	}
	components := g.Components()
	require.Len(t, components, 1)
	require.Len(t, components[0], n)
	require.Equal(t, n-1, components[0][n-1])
}

func canonical(components [][]int) [][]int {
	ans := make([][]int, len(components))
	for i, c := range components {
		ans[i] = slices.Sorted(slices.Values(c))
	}
	slices.SortFunc(ans, func(a, b []int) int { return a[0] - b[0] })
	return ans
}

func TestComponentsMatchGonum(t *testing.T) {
	const n = 1500
	f := spots(0.35, r3.Vec{X: 1}, r3.Vec{Z: -1}, r3.Unit(r3.Vec{X: -1, Y: -1, Z: 1}), r3.Vec{Y: 1})
	var bright []r3.Vec
	for _, s := range sphere.Fibonacci(n) {
		if f(s) > 0.5 {
			bright = append(bright, s)
		}
	}
	g, err := Build(bright, f, Params{NumberOfSamples: n, Width: 1024, Threshold: 0.5})
	require.NoError(t, err)

	ug := simple.NewUndirectedGraph()
	for i := range g.NumNodes() {
		ug.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges {
		ug.SetEdge(simple.Edge{F: simple.Node(e[0]), T: simple.Node(e[1])})
	}
	var want [][]int
	for _, c := range topo.ConnectedComponents(ug) {
		ids := make([]int, len(c))
		for i, node := range c {
			ids[i] = int(node.ID())
		}
		want = append(want, ids)
	}
	got := g.Components()
	requirePartition(t, g.NumNodes(), got)
	require.Equal(t, canonical(want), canonical(got))
}
