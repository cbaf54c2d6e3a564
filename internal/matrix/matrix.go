// Package matrix precomputes integer travel costs between scenario locations.
package matrix

import (
	"math"

	"fleetnav/internal/model"
)

// Euclidean returns the straight-line distance between a and b rounded to
// the nearest integer. Rounding (not truncating) keeps dimension-bound
// arithmetic in stable integers.
func Euclidean(a, b model.Point) int {
	return int(math.Round(math.Hypot(a.X-b.X, a.Y-b.Y)))
}

// CostMatrix holds pairwise travel costs. Symmetric, zero diagonal,
// immutable after New.
type CostMatrix struct {
	cost [][]int
}

// New computes the full matrix over points. O(n^2).
func New(points []model.Point) *CostMatrix {
	n := len(points)
	cost := make([][]int, n)
	for i := range cost {
		cost[i] = make([]int, n)
		for j := 0; j < i; j++ {
			d := Euclidean(points[i], points[j])
			cost[i][j] = d
			cost[j][i] = d
		}
	}
	return &CostMatrix{cost: cost}
}

// Size returns the number of locations covered.
func (m *CostMatrix) Size() int { return len(m.cost) }

// Cost returns the travel cost between two location indices.
func (m *CostMatrix) Cost(from, to int) int { return m.cost[from][to] }
