package gravitywalk

import (
	"sync/atomic"
	"testing"
)

func TestParallelEach(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		items   int
	}{
		{"no items", 4, 0},
		{"fewer items than workers", 8, 3},
		{"uneven chunks", 3, 10},
		{"single worker", 1, 5},
		{"zero workers runs inline", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visits := make([]atomic.Int32, tt.items)
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}

			parallelEach(tt.workers, items, func(i int) {
				visits[i].Add(1)
			})

			for i := range visits {
				if got := visits[i].Load(); got != 1 {
					t.Errorf("item %d visited %d times, want 1", i, got)
				}
			}
		})
	}
}
