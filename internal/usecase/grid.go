package usecase

import (
	"sort"

	"github.com/sotc/backend/internal/domain"
)

// MaxChips is the number of chips rendered before the "+N more" indicator
const MaxChips = 18

// Placement is a watch assigned to a grid cell
type Placement struct {
	Watch domain.TieredWatch `json:"watch"`
	Row   int                `json:"row"`
	Col   int                `json:"col"`
	Text  string             `json:"text"` // label as rendered on the chip
}

// GridLayout is the resolved spatial chip grid
type GridLayout struct {
	Rows       int         `json:"rows"`
	Cols       int         `json:"cols"`
	Placements []Placement `json:"placements"`
	Overflow   int         `json:"overflow"`
}

// ResolveGrid parses every watch position, sizes the grid from the largest
// parsed row and column, and places the first MaxChips watches in row-major
// order. Ties keep the original list order. Watches sharing a cell are not
// deduplicated.
func ResolveGrid(watches []domain.TieredWatch) GridLayout {
	layout := GridLayout{Rows: 1, Cols: 1}

	all := make([]Placement, 0, len(watches))
	for _, w := range watches {
		pos := ParsePosition(w.Position)
		layout.Rows = max(layout.Rows, pos.Row)
		layout.Cols = max(layout.Cols, pos.Col)
		all = append(all, Placement{Watch: w, Row: pos.Row, Col: pos.Col, Text: w.Label})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Row != all[j].Row {
			return all[i].Row < all[j].Row
		}
		return all[i].Col < all[j].Col
	})

	if len(all) > MaxChips {
		layout.Overflow = len(all) - MaxChips
		all = all[:MaxChips]
	}
	layout.Placements = all

	return layout
}

// Labels returns the display labels of the placed watches in reading order
func (g GridLayout) Labels() []string {
	labels := make([]string, len(g.Placements))
	for i, p := range g.Placements {
		labels[i] = p.Watch.Label
	}
	return labels
}
