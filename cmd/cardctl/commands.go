package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/sotc/backend/internal/domain"
	"github.com/sotc/backend/internal/usecase"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func scoreCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score <analysis.json>",
		Short: "Print the collection score and its breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := loadAnalysis(args[0])
			if err != nil {
				return err
			}
			classifier, err := loadClassifier()
			if err != nil {
				return err
			}

			breakdown := usecase.CalculateScoreBreakdown(analysis, classifier)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(breakdown)
			}

			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Score: %d / 100", breakdown.Total)))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Pieces\t%d\n", breakdown.Pieces)
			fmt.Fprintf(w, "Diversity\t%d\n", breakdown.Diversity)
			fmt.Fprintf(w, "Rarity\t%d\n", breakdown.Rarity)
			fmt.Fprintf(w, "Features\t%d\n", breakdown.Features)
			fmt.Fprintf(w, "Premium\t%d\n", breakdown.Premium)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the breakdown as JSON")
	return cmd
}

func layoutCmd() *cobra.Command {
	var (
		width    int
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "layout <analysis.json>",
		Short: "Print the resolved chip grid with tiers and font sizing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := buildView(args[0], strategy, width)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Grid %dx%d", view.Grid.Rows, view.Grid.Cols)))
			fmt.Fprintf(out, "Strategy: %s  Width: %dpx  Font: %dpx", view.Strategy, view.Width, view.FontSize)
			if view.MaxChars > 0 {
				fmt.Fprintf(out, "  Max chars: %d", view.MaxChars)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROW\tCOL\tTIER\tMODEL\tCHIP")
			for _, p := range view.Grid.Placements {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", p.Row, p.Col, p.Watch.Tier, p.Watch.ModelNumber, p.Text)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if view.Grid.Overflow > 0 {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("+%d more", view.Grid.Overflow)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", usecase.DefaultCardWidth, "Card width in pixels")
	cmd.Flags().StringVar(&strategy, "strategy", string(usecase.StrategyShrink), "Chip strategy (shrink|abbreviate)")
	return cmd
}

func renderCmd() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "render <analysis.json>",
		Short: "Draw the collection card in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := buildView(args[0], strategy, usecase.DefaultCardWidth)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCard(view))
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(usecase.StrategyAbbreviate), "Chip strategy (shrink|abbreviate)")
	return cmd
}

func buildView(path, strategyName string, width int) (*usecase.CardView, error) {
	strategy, err := usecase.ParseChipStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	analysis, err := loadAnalysis(path)
	if err != nil {
		return nil, err
	}
	classifier, err := loadClassifier()
	if err != nil {
		return nil, err
	}

	cards := usecase.NewCardService(nil, classifier, usecase.CardServiceConfig{
		Strategy:     strategy,
		DefaultWidth: width,
	})
	return cards.BuildView(analysis, usecase.ViewOptions{Width: width}), nil
}

// Terminal palette
var (
	tierColors = map[domain.Tier]lipgloss.Color{
		domain.TierPremium:  lipgloss.Color("214"),
		domain.TierRare:     lipgloss.Color("141"),
		domain.TierStandard: lipgloss.Color("250"),
	}
	archetypeColors = map[domain.ArchetypeColor]lipgloss.Color{
		domain.ColorBrick:     lipgloss.Color("124"),
		domain.ColorWarmBrown: lipgloss.Color("130"),
		domain.ColorOlive:     lipgloss.Color("100"),
		domain.ColorBlueGray:  lipgloss.Color("67"),
		domain.ColorOther:     lipgloss.Color("244"),
	}
)

const dnaBarWidth = 40

func renderCard(view *usecase.CardView) string {
	var sections []string

	sections = append(sections, headerStyle.Render(
		fmt.Sprintf("SIZE OF THE COLLECTION  %d pieces  score %d", view.TotalWatches, view.Score)))
	sections = append(sections, dimStyle.Render(
		fmt.Sprintf("premium %d  rare %d  standard %d", view.Tiers.Premium, view.Tiers.Rare, view.Tiers.Standard)))

	if len(view.DNA) > 0 {
		sections = append(sections, renderDNA(view.DNA))
	}

	sections = append(sections, renderGrid(view))

	for _, h := range view.Highlights {
		sections = append(sections, dimStyle.Render("• "+h))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func renderDNA(segments []usecase.DNASegment) string {
	var bar strings.Builder
	var legend []string
	for _, seg := range segments {
		color := archetypeColors[seg.Color]
		cells := max(1, seg.Percentage*dnaBarWidth/100)
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", cells)))
		legend = append(legend, lipgloss.NewStyle().Foreground(color).Render(
			fmt.Sprintf("%s %d%%", seg.Name, seg.Percentage)))
	}
	return bar.String() + "\n" + strings.Join(legend, "  ")
}

func renderGrid(view *usecase.CardView) string {
	cellWidth := 0
	for _, p := range view.Grid.Placements {
		cellWidth = max(cellWidth, lipgloss.Width(p.Text))
	}

	// Only occupied rows and columns are drawn; positions come from the model
	// and may be arbitrarily large.
	rowIndex := occupiedIndex(view.Grid.Placements, func(p usecase.Placement) int { return p.Row })
	colIndex := occupiedIndex(view.Grid.Placements, func(p usecase.Placement) int { return p.Col })

	cells := make([][]string, len(rowIndex))
	for r := range cells {
		cells[r] = make([]string, len(colIndex))
	}
	for _, p := range view.Grid.Placements {
		r, c := rowIndex[p.Row], colIndex[p.Col]
		if cells[r][c] != "" {
			continue
		}
		cells[r][c] = lipgloss.NewStyle().
			Foreground(tierColors[p.Watch.Tier]).
			Border(lipgloss.NormalBorder()).
			BorderForeground(tierColors[p.Watch.Tier]).
			Width(cellWidth).
			Render(p.Text)
	}

	empty := lipgloss.NewStyle().Width(cellWidth + 2).Height(3).Render("")
	rows := make([]string, 0, len(cells)+1)
	for _, row := range cells {
		rendered := make([]string, 0, len(row))
		for _, cell := range row {
			if cell == "" {
				cell = empty
			}
			rendered = append(rendered, cell)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	if view.Grid.Overflow > 0 {
		rows = append(rows, dimStyle.Render(fmt.Sprintf("+%d more", view.Grid.Overflow)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// occupiedIndex maps each distinct grid coordinate in use to its dense,
// ordered index
func occupiedIndex(placements []usecase.Placement, coord func(usecase.Placement) int) map[int]int {
	seen := make(map[int]bool, len(placements))
	values := make([]int, 0, len(placements))
	for _, p := range placements {
		v := coord(p)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Ints(values)

	index := make(map[int]int, len(values))
	for i, v := range values {
		index[v] = i
	}
	return index
}
