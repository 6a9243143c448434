package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sotc/backend/internal/domain"
)

// Positioning methods recorded in the analysis debug block
const (
	PositioningRowCounts   = "row_counts"
	PositioningAIPositions = "ai_positions"
	PositioningNone        = "none"
)

// Package-level compiled regex patterns for position hints
var (
	structuredPositionRegex = regexp.MustCompile(`(?i)row-(\d+)-pos-(\d+)`)
	rowNumberRegex          = regexp.MustCompile(`row\s*(\d+)`)
	colNumberRegex          = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)?\s*(?:from\s*left|position|pos)`)
)

// ParsePosition converts a position hint into a 1-based grid cell.
// It never fails: unrecognised hints land in (1, 1).
func ParsePosition(hint string) domain.Position {
	if m := structuredPositionRegex.FindStringSubmatch(hint); m != nil {
		return clampPosition(atoiOr(m[1], 1), atoiOr(m[2], 1))
	}

	pos := strings.ToLower(hint)
	row, col := 1, 1

	switch {
	case strings.Contains(pos, "top"):
		row = 1
	case strings.Contains(pos, "middle"), strings.Contains(pos, "center"):
		row = 2
	case strings.Contains(pos, "bottom"):
		row = 3
	}

	switch {
	case strings.Contains(pos, "left"):
		col = 1
	case strings.Contains(pos, "center"), strings.Contains(pos, "middle"):
		col = 2
	case strings.Contains(pos, "right"):
		col = 3
	}

	if m := rowNumberRegex.FindStringSubmatch(pos); m != nil {
		row = atoiOr(m[1], row)
	}
	if m := colNumberRegex.FindStringSubmatch(pos); m != nil {
		col = atoiOr(m[1], col)
	}

	return clampPosition(row, col)
}

// SynthesizePositions overwrites watch positions with structured hints built
// from per-row counts (top to bottom, left to right). Watches beyond the sum of
// rowCounts keep their original hint. The returned debug block records the
// method used and the grid dimensions implied by rowCounts.
func SynthesizePositions(watches []domain.Watch, rowCounts []int) domain.PositioningDebug {
	debug := domain.PositioningDebug{
		RowCounts:         rowCounts,
		PositioningMethod: PositioningNone,
	}

	if len(rowCounts) == 0 {
		if len(watches) > 0 && watches[0].Position != "" {
			debug.PositioningMethod = PositioningAIPositions
		}
		return debug
	}

	idx := 0
	maxCols := 0
	for r, count := range rowCounts {
		if count > maxCols {
			maxCols = count
		}
		for p := 0; p < count && idx < len(watches); p++ {
			watches[idx].Position = fmt.Sprintf("row-%d-pos-%d", r+1, p+1)
			idx++
		}
	}

	debug.PositioningMethod = PositioningRowCounts
	debug.GridRows = len(rowCounts)
	debug.GridCols = maxCols
	return debug
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func clampPosition(row, col int) domain.Position {
	return domain.Position{Row: max(row, 1), Col: max(col, 1)}
}
