package graph

import (
	"fmt"
	"slices"
)

var _ = fmt.Print

// Components returns the connected components of g, largest first. Each
// component lists its nodes in depth first visiting order. Components of
// equal size keep the order in which they were discovered, which is the
// order of their lowest numbered node. Nodes without edges form components
// of their own.
func (g *Graph) Components() [][]int {
	n := g.NumNodes()
	visited := make([]bool, n)
	ans := [][]int{}
	var stack []int
	for start := range n {
		if visited[start] {
			continue
		}
		component := []int{}
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[node] {
				continue
			}
			visited[node] = true
			component = append(component, node)
			// push in reverse so the first neighbour is visited first, as a
			// recursive traversal would
			adjacent := g.Adjacent[node]
			for k := len(adjacent) - 1; k >= 0; k-- {
				if !visited[adjacent[k]] {
					stack = append(stack, adjacent[k])
				}
			}
		}
		ans = append(ans, component)
	}
	slices.SortStableFunc(ans, func(a, b []int) int { return len(b) - len(a) })
	return ans
}
