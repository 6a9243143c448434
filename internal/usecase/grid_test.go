package usecase

import (
	"fmt"
	"testing"

	"github.com/sotc/backend/internal/domain"
)

func tieredAt(positions ...string) []domain.TieredWatch {
	watches := make([]domain.TieredWatch, len(positions))
	for i, p := range positions {
		model := fmt.Sprintf("W-%02d", i)
		watches[i] = domain.TieredWatch{
			Watch: domain.Watch{ModelNumber: model, Position: p},
			Tier:  domain.TierStandard,
			Index: i,
			Label: model,
		}
	}
	return watches
}

func TestResolveGrid(t *testing.T) {
	t.Run("sorts row-major and sizes from positions", func(t *testing.T) {
		watches := tieredAt("row-2-pos-1", "row-1-pos-3", "row-1-pos-1", "row-2-pos-2", "row-1-pos-2")

		grid := ResolveGrid(watches)

		if grid.Rows != 2 || grid.Cols != 3 {
			t.Errorf("grid = %dx%d, want 2x3", grid.Rows, grid.Cols)
		}
		wantOrder := []int{2, 4, 1, 0, 3}
		for i, p := range grid.Placements {
			if p.Watch.Index != wantOrder[i] {
				t.Errorf("Placements[%d].Index = %d, want %d", i, p.Watch.Index, wantOrder[i])
			}
		}
		if grid.Overflow != 0 {
			t.Errorf("Overflow = %d, want 0", grid.Overflow)
		}
	})

	t.Run("dimensions may exceed hints", func(t *testing.T) {
		grid := ResolveGrid(tieredAt("row-1-pos-1", "row-4-pos-6"))
		if grid.Rows != 4 || grid.Cols != 6 {
			t.Errorf("grid = %dx%d, want 4x6", grid.Rows, grid.Cols)
		}
	})

	t.Run("caps at eighteen chips", func(t *testing.T) {
		positions := make([]string, 25)
		for i := range positions {
			// 5 columns, listed in reverse so sorting matters
			n := 24 - i
			positions[i] = fmt.Sprintf("row-%d-pos-%d", n/5+1, n%5+1)
		}

		grid := ResolveGrid(tieredAt(positions...))

		if len(grid.Placements) != MaxChips {
			t.Fatalf("len(Placements) = %d, want %d", len(grid.Placements), MaxChips)
		}
		if grid.Overflow != 7 {
			t.Errorf("Overflow = %d, want 7", grid.Overflow)
		}
		for i, p := range grid.Placements {
			wantRow, wantCol := i/5+1, i%5+1
			if p.Row != wantRow || p.Col != wantCol {
				t.Errorf("Placements[%d] at (%d,%d), want (%d,%d)", i, p.Row, p.Col, wantRow, wantCol)
			}
		}
		if grid.Rows != 5 || grid.Cols != 5 {
			t.Errorf("grid = %dx%d, want 5x5 (computed over all watches)", grid.Rows, grid.Cols)
		}
	})

	t.Run("shared cells keep list order", func(t *testing.T) {
		grid := ResolveGrid(tieredAt("", "top left", "row-1-pos-1"))

		if len(grid.Placements) != 3 {
			t.Fatalf("len(Placements) = %d, want 3", len(grid.Placements))
		}
		for i, p := range grid.Placements {
			if p.Watch.Index != i {
				t.Errorf("Placements[%d].Index = %d, want %d", i, p.Watch.Index, i)
			}
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		watches := tieredAt("bottom right", "top left", "middle", "row-2-pos-1", "")
		first := ResolveGrid(watches)
		for i := 0; i < 10; i++ {
			again := ResolveGrid(watches)
			for j := range first.Placements {
				if again.Placements[j].Watch.Index != first.Placements[j].Watch.Index {
					t.Fatalf("run %d: placement %d differs", i, j)
				}
			}
		}
	})

	t.Run("empty list", func(t *testing.T) {
		grid := ResolveGrid(nil)
		if grid.Rows != 1 || grid.Cols != 1 || len(grid.Placements) != 0 {
			t.Errorf("grid = %+v, want empty 1x1", grid)
		}
	})
}

func TestGridLayout_Labels(t *testing.T) {
	watches := tieredAt("row-1-pos-2", "row-1-pos-1")
	watches[0].Label = "Edited"

	labels := ResolveGrid(watches).Labels()

	if len(labels) != 2 || labels[0] != "W-01" || labels[1] != "Edited" {
		t.Errorf("Labels() = %v, want [W-01 Edited]", labels)
	}
}
