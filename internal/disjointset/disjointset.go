// Package disjointset provides a union-find structure and a predicate-driven
// partitioner built on it.
package disjointset

import "sort"

// Set is a union-find forest over the integers [0, n).
// Find uses path halving and Union joins by rank, so a sequence of m
// operations runs in O(m α(n)).
type Set struct {
	parent []int
	rank   []uint8
}

// New creates a Set of n singleton elements.
func New(n int) *Set {
	s := &Set{
		parent: make([]int, n),
		rank:   make([]uint8, n),
	}
	for i := range s.parent {
		s.parent[i] = i
	}
	return s
}

// Len returns the number of elements.
func (s *Set) Len() int { return len(s.parent) }

// Find returns the root of the tree containing x.
func (s *Set) Find(x int) int {
	for s.parent[x] != x {
		s.parent[x] = s.parent[s.parent[x]]
		x = s.parent[x]
	}
	return x
}

// Union merges the sets containing a and b. It reports whether a merge
// happened (false when a and b were already joined).
func (s *Set) Union(a, b int) bool {
	ra, rb := s.Find(a), s.Find(b)
	if ra == rb {
		return false
	}
	switch {
	case s.rank[ra] < s.rank[rb]:
		s.parent[ra] = rb
	case s.rank[ra] > s.rank[rb]:
		s.parent[rb] = ra
	default:
		s.parent[rb] = ra
		s.rank[ra]++
	}
	return true
}

// Same reports whether a and b are in the same set.
func (s *Set) Same(a, b int) bool {
	return s.Find(a) == s.Find(b)
}

// Labels assigns each element a dense label in [0, k), numbering sets in
// order of their first element. It returns the labels and k.
func (s *Set) Labels() ([]int, int) {
	labels := make([]int, len(s.parent))
	byRoot := make(map[int]int, len(s.parent))
	for i := range s.parent {
		root := s.Find(i)
		label, ok := byRoot[root]
		if !ok {
			label = len(byRoot)
			byRoot[root] = label
		}
		labels[i] = label
	}
	return labels, len(byRoot)
}

// Partition splits items into equivalence classes of the transitive closure
// of same. Every pair is tested once, so same must be symmetric. Labels are
// dense and ordered by each class's first item, which keeps the output
// deterministic for a given input order.
func Partition[T any](items []T, same func(a, b T) bool) ([]int, int) {
	s := New(len(items))
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if s.Same(i, j) {
				continue
			}
			if same(items[i], items[j]) {
				s.Union(i, j)
			}
		}
	}
	return s.Labels()
}

// PartitionChain is Partition for predicates of the form
// |key(a) - key(b)| < tol. For such predicates two items are connected iff
// every gap between consecutive keys separating them is below tol, so it is
// enough to test neighbours in key order: O(n log n) instead of O(n^2).
// The result is identical to Partition with the same predicate, including
// label order.
func PartitionChain[T any](items []T, key func(T) float64, same func(a, b T) bool) ([]int, int) {
	order := make([]int, len(items))
	keys := make([]float64, len(items))
	for i := range items {
		order[i] = i
		keys[i] = key(items[i])
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	s := New(len(items))
	for k := 1; k < len(order); k++ {
		prev, cur := order[k-1], order[k]
		if same(items[prev], items[cur]) {
			s.Union(prev, cur)
		}
	}
	return s.Labels()
}
