// Command cardctl scores and lays out a saved collection analysis offline.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sotc/backend/internal/domain"
	"github.com/sotc/backend/internal/usecase"
	"github.com/spf13/cobra"
)

var patternsFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cardctl",
		Short: "Inspect collection cards from the command line",
		Long: `cardctl reads a collection analysis (raw model output, a saved card, or an
analyze API response) and prints its score, chip layout, or a terminal render
of the card.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&patternsFile, "patterns", "", "YAML file overriding tier patterns")

	root.AddCommand(scoreCmd())
	root.AddCommand(layoutCmd())
	root.AddCommand(renderCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadAnalysis accepts a bare analysis, a saved card, or an analyze response
func loadAnalysis(path string) (domain.CollectionAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CollectionAnalysis{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var envelope struct {
		Analysis *json.RawMessage `json:"analysis"`
		Data     *json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return domain.CollectionAnalysis{}, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	switch {
	case envelope.Analysis != nil:
		data = *envelope.Analysis
	case envelope.Data != nil:
		data = *envelope.Data
	}

	analysis, err := usecase.ParseAnalysis(string(data))
	if err != nil {
		return domain.CollectionAnalysis{}, err
	}
	usecase.SynthesizePositions(analysis.Watches, analysis.RowCounts)
	return *analysis, nil
}

func loadClassifier() (*usecase.TierClassifier, error) {
	if patternsFile == "" {
		return usecase.DefaultTierClassifier(), nil
	}
	return usecase.LoadTierClassifier(patternsFile)
}
