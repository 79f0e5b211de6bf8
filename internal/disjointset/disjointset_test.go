package disjointset

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_UnionFind(t *testing.T) {
	t.Parallel()

	s := New(6)
	assert.Equal(t, 6, s.Len())
	assert.False(t, s.Same(0, 1))

	assert.True(t, s.Union(0, 1))
	assert.True(t, s.Union(2, 3))
	assert.False(t, s.Union(1, 0), "already joined")
	assert.True(t, s.Same(0, 1))
	assert.False(t, s.Same(1, 2))

	assert.True(t, s.Union(1, 3))
	assert.True(t, s.Same(0, 2))
	assert.False(t, s.Same(0, 4))
}

func TestSet_LabelsOrderedByFirstMember(t *testing.T) {
	t.Parallel()

	s := New(5)
	s.Union(4, 1)
	s.Union(3, 2)

	labels, k := s.Labels()
	assert.Equal(t, 3, k)
	if diff := cmp.Diff([]int{0, 1, 2, 2, 1}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestPartition(t *testing.T) {
	t.Parallel()

	within := func(tol int) func(a, b int) bool {
		return func(a, b int) bool {
			d := a - b
			if d < 0 {
				d = -d
			}
			return d < tol
		}
	}

	tests := []struct {
		name       string
		items      []int
		wantLabels []int
		wantK      int
	}{
		{"empty", nil, []int{}, 0},
		{"single", []int{7}, []int{0}, 1},
		{"two groups", []int{0, 100, 1, 101}, []int{0, 1, 0, 1}, 2},
		// 0-2-4-6 chain within tolerance 3 although 0 and 6 are 6 apart.
		{"transitive chain", []int{0, 6, 2, 4, 50}, []int{0, 0, 0, 0, 1}, 2},
		{"all separate", []int{0, 10, 20}, []int{0, 1, 2}, 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			labels, k := Partition(tt.items, within(3))
			assert.Equal(t, tt.wantK, k)
			if diff := cmp.Diff(tt.wantLabels, labels); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartition_Symmetric(t *testing.T) {
	t.Parallel()

	items := []int{3, 9, 1, 15, 7, 30, 28}
	same := func(a, b int) bool { return a-b < 3 && b-a < 3 }

	labels, _ := Partition(items, same)
	reversed := make([]int, len(items))
	for i := range items {
		reversed[len(items)-1-i] = items[i]
	}
	revLabels, _ := Partition(reversed, same)

	for i := range items {
		for j := range items {
			fwd := labels[i] == labels[j]
			rev := revLabels[len(items)-1-i] == revLabels[len(items)-1-j]
			assert.Equal(t, fwd, rev, "items %d and %d", items[i], items[j])
		}
	}
}

func TestPartitionChain_MatchesPartition(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	key := func(v float64) float64 { return v }
	within := func(a, b float64) bool { return math.Abs(a-b) < 2.5 }

	for round := 0; round < 50; round++ {
		n := rng.Intn(60)
		items := make([]float64, n)
		for i := range items {
			items[i] = rng.Float64()*90 - 45
		}
		// Duplicates are common after weighting.
		if n > 3 {
			items[n-1] = items[0]
		}

		want, wantK := Partition(items, within)
		got, gotK := PartitionChain(items, key, within)
		require.Equal(t, wantK, gotK, "round %d", round)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round %d labels mismatch (-want +got):\n%s", round, diff)
		}
	}
}
