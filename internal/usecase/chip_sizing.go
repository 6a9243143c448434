package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// Chip geometry for the collection card (Roboto Mono chips)
const (
	cardPadding    = 16 * 2 // left + right
	chipGap        = 8
	chipPadding    = 19 // 6 + 10 + 3px border
	charWidthRatio = 0.65

	MinChipFontSize = 7
	MaxChipFontSize = 11

	DefaultCardWidth = 600
)

// ChipStrategy selects how chip labels are fitted into their cells
type ChipStrategy string

const (
	// StrategyShrink picks one font size for the whole grid
	StrategyShrink ChipStrategy = "shrink"
	// StrategyAbbreviate keeps the font size and shortens labels
	StrategyAbbreviate ChipStrategy = "abbreviate"
)

// ParseChipStrategy validates a configured strategy name
func ParseChipStrategy(s string) (ChipStrategy, error) {
	switch ChipStrategy(s) {
	case StrategyShrink, StrategyAbbreviate:
		return ChipStrategy(s), nil
	case "":
		return StrategyShrink, nil
	}
	return "", fmt.Errorf("unknown chip strategy %q", s)
}

var (
	colorSuffixRegex  = regexp.MustCompile(`-\d[A-Z0-9]{0,3}$`)
	seriesPrefixRegex = regexp.MustCompile(`^[A-Z]{2,4}-`)
)

// ComputeFontSize returns the single chip font size that fits the longest
// label into one grid column of a card containerWidth pixels wide.
func ComputeFontSize(containerWidth, columns int, labels []string) int {
	longest := 0
	for _, l := range labels {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	if longest == 0 {
		return MaxChipFontSize
	}
	columns = max(columns, 1)

	gridWidth := float64(containerWidth - cardPadding)
	colWidth := (gridWidth - float64((columns-1)*chipGap)) / float64(columns)
	textWidth := colWidth - chipPadding

	size := int(math.Floor(textWidth / (float64(longest) * charWidthRatio)))
	return min(MaxChipFontSize, max(MinChipFontSize, size))
}

// MaxCharsForGrid returns the label budget for abbreviation mode.
// More columns means narrower chips.
func MaxCharsForGrid(cols int) int {
	if cols >= 4 {
		return 10
	}
	if cols >= 3 {
		return 14
	}
	return 18
}

// AbbreviateModel shortens a model number to at most maxChars characters.
// The colour suffix goes first (GA-2100-1A1 -> GA-2100), then the series
// prefix (DW-5600NASA21 -> 5600NASA21), and as a last resort the label is
// truncated with an ellipsis.
func AbbreviateModel(model string, maxChars int) string {
	if utf8.RuneCountInString(model) <= maxChars {
		return model
	}

	abbreviated := colorSuffixRegex.ReplaceAllString(model, "")
	if utf8.RuneCountInString(abbreviated) <= maxChars {
		return abbreviated
	}

	abbreviated = seriesPrefixRegex.ReplaceAllString(abbreviated, "")
	if utf8.RuneCountInString(abbreviated) <= maxChars {
		return abbreviated
	}

	if maxChars <= 1 {
		return "…"
	}
	runes := []rune(abbreviated)
	return string(runes[:maxChars-1]) + "…"
}

// ChipSizer recomputes the chip font size when the measured card width changes.
// Callers feed every measurement to Observe; the size is only recomputed for a
// new width. Labels are keyed by the watch's original index, like ApplyLabelEdits.
type ChipSizer struct {
	mu       sync.Mutex
	columns  int
	labels   []string
	slots    map[int]int // original watch index -> labels position
	width    int
	fontSize int
}

// NewChipSizer creates a sizer for the chips placed in a resolved grid
func NewChipSizer(grid GridLayout) *ChipSizer {
	s := &ChipSizer{
		columns:  grid.Cols,
		labels:   grid.Labels(),
		slots:    make(map[int]int, len(grid.Placements)),
		fontSize: MaxChipFontSize,
	}
	for i, p := range grid.Placements {
		s.slots[p.Watch.Index] = i
	}
	return s
}

// Observe records a measured width and returns the font size for it, and
// whether the size was recomputed.
func (s *ChipSizer) Observe(width int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width == s.width {
		return s.fontSize, false
	}
	s.width = width
	s.fontSize = ComputeFontSize(width, s.columns, s.labels)
	return s.fontSize, true
}

// SetLabel replaces the label of the watch at original index (e.g. after a
// user edit) and recomputes for the last observed width. Watches that are not
// placed in the grid, and blank labels, are ignored.
func (s *ChipSizer) SetLabel(index int, label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.slots[index]; ok && strings.TrimSpace(label) != "" {
		s.labels[i] = label
	}
	if s.width > 0 {
		s.fontSize = ComputeFontSize(s.width, s.columns, s.labels)
	}
	return s.fontSize
}
