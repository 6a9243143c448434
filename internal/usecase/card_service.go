package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"regexp"

	"github.com/sotc/backend/internal/domain"
)

// Card ids are 5 base62 characters: 62^5 ≈ 916M combinations
const (
	cardIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	cardIDLength   = 5
)

var cardIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{5}$`)

// CardServiceConfig holds configuration for the card service
type CardServiceConfig struct {
	Strategy     ChipStrategy
	DefaultWidth int
}

// CardService loads saved cards and builds their rendered view
type CardService struct {
	cards        domain.CardRepository
	classifier   *TierClassifier
	strategy     ChipStrategy
	defaultWidth int
}

// ViewOptions controls a single card view computation
type ViewOptions struct {
	Width int            // measured card width in pixels; 0 uses the default
	Edits map[int]string // display label overrides by original watch index
}

// CardView is everything the card renderer needs
type CardView struct {
	CardID        string             `json:"cardId,omitempty"`
	TotalWatches  int                `json:"totalWatches"`
	ReportedTotal int                `json:"reportedTotal"`
	Score         int                `json:"score"`
	Breakdown     ScoreBreakdown     `json:"scoreBreakdown"`
	Tiers         domain.TierCounts  `json:"tiers"`
	Archetypes    []domain.Archetype `json:"archetypes"`
	DNA           []DNASegment       `json:"dna"`
	Grid          GridLayout         `json:"grid"`
	Strategy      ChipStrategy       `json:"chipStrategy"`
	Width         int                `json:"width"`
	FontSize      int                `json:"fontSize"`
	MaxChars      int                `json:"maxChars,omitempty"`
	Highlights    []string           `json:"highlights"`
}

// NewCardService creates a new card service with dependencies
func NewCardService(cards domain.CardRepository, classifier *TierClassifier, config CardServiceConfig) *CardService {
	if classifier == nil {
		classifier = defaultClassifier
	}
	strategy := config.Strategy
	if strategy == "" {
		strategy = StrategyShrink
	}
	width := config.DefaultWidth
	if width <= 0 {
		width = DefaultCardWidth
	}

	return &CardService{
		cards:        cards,
		classifier:   classifier,
		strategy:     strategy,
		defaultWidth: width,
	}
}

// GetCard returns the saved card stored under id
func (s *CardService) GetCard(ctx context.Context, id string) (*domain.SavedCard, error) {
	if !ValidCardID(id) {
		return nil, domain.ErrInvalidCardID
	}
	if s.cards == nil {
		return nil, domain.ErrCardNotFound
	}
	return s.cards.Get(ctx, id)
}

// GetCardView loads a card and builds its view
func (s *CardService) GetCardView(ctx context.Context, id string, opts ViewOptions) (*CardView, error) {
	card, err := s.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.BuildView(card.Analysis, opts)
	view.CardID = card.ID
	return view, nil
}

// BuildView derives tiers, score, DNA and the chip grid for an analysis.
// Classification always uses the detected model numbers; edits only change
// the labels that are laid out.
func (s *CardService) BuildView(analysis domain.CollectionAnalysis, opts ViewOptions) *CardView {
	width := opts.Width
	if width <= 0 {
		width = s.defaultWidth
	}

	tiered := s.classifier.AddTiers(analysis.Watches)
	ApplyLabelEdits(tiered, opts.Edits)

	breakdown := CalculateScoreBreakdown(analysis, s.classifier)
	dna := DeriveDNABreakdown(analysis.Watches)
	grid := ResolveGrid(tiered)

	view := &CardView{
		TotalWatches:  len(analysis.Watches),
		ReportedTotal: analysis.TotalWatches,
		Score:         breakdown.Total,
		Breakdown:     breakdown,
		Tiers:         CountByTier(tiered),
		Archetypes:    dna.Archetypes,
		DNA:           CollapseDNA(dna),
		Strategy:      s.strategy,
		Width:         width,
		Highlights:    analysis.CollectionHighlights,
	}

	switch s.strategy {
	case StrategyAbbreviate:
		view.FontSize = MaxChipFontSize
		view.MaxChars = MaxCharsForGrid(grid.Cols)
		for i := range grid.Placements {
			grid.Placements[i].Text = AbbreviateModel(grid.Placements[i].Watch.Label, view.MaxChars)
		}
	default:
		view.FontSize = ComputeFontSize(width, grid.Cols, grid.Labels())
	}
	view.Grid = grid

	return view
}

// ValidCardID reports whether id is 5 alphanumeric characters
func ValidCardID(id string) bool {
	return cardIDRegex.MatchString(id)
}

// GenerateCardID returns a random 5-character base62 id
func GenerateCardID() (string, error) {
	buf := make([]byte, cardIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	id := make([]byte, cardIDLength)
	for i, b := range buf {
		id[i] = cardIDAlphabet[int(b)%len(cardIDAlphabet)]
	}
	return string(id), nil
}

// allocateCardID generates ids until one is unused in the store
func allocateCardID(ctx context.Context, cards domain.CardRepository, generate func() (string, error), maxAttempts int) (string, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		id, err := generate()
		if err != nil {
			return "", err
		}
		exists, err := cards.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		log.Printf("[CARDS] Card ID collision on %q (attempt %d)", id, attempt)
	}
	return "", domain.ErrCardIDExhausted
}
