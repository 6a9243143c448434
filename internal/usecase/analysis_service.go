package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/sotc/backend/internal/domain"
)

// AnalysisPrompt asks the vision model for row counts and watches in reading order
const AnalysisPrompt = `You are a G-Shock watch identification expert. Analyze this collection photo.

STEP 1 - COUNT ROWS CAREFULLY:
Look at the photo and determine how watches are physically arranged.

CRITICAL ROW RULES:
- A ROW is a horizontal line of watches whose CENTERS are at roughly the same vertical level
- Watches do NOT need to be perfectly aligned - slight vertical offsets still count as the SAME ROW
- If watches overlap vertically in their positions, they are likely in the SAME ROW
- Most collection photos have 1-3 rows. Be conservative - fewer rows is usually correct.

STEP 2 - COUNT WATCHES PER ROW:
For each row, count watches from LEFT to RIGHT.

OUTPUT FORMAT:

"row_counts": Array of watch counts per row, top to bottom.
  - 8 watches in 2 rows of 4 = [4, 4]
  - 9 watches in 3 rows of 3 = [3, 3, 3]

"watches": List ALL watches in reading order (left-to-right, top-to-bottom):
- model_number: Specific model
- series: Product line
- display_type: "Digital", "Analog", or "Ana-Digi"
- colorway: Brief description
- notable_features: Array of features
- confidence: "high", "medium", or "low"
- position: "row-R-pos-C"

Also include:
- total_watches: Integer (must equal sum of row_counts)
- collection_highlights: 2-3 observations
- series_breakdown: Object with series counts

Return ONLY valid JSON.`

// strictJSONSuffix is appended on the single retry after a parse failure
const strictJSONSuffix = "\n\nIMPORTANT: Return ONLY raw JSON without any markdown formatting or code blocks."

const maxCardIDAttempts = 10

var (
	dataURLRegex   = regexp.MustCompile(`^data:(image/[^;]+);base64,(.+)$`)
	codeFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// AnalyzeRequest is the body of an analyze call
type AnalyzeRequest struct {
	Image string `json:"image" binding:"required"` // data URL
}

// AnalyzeResult is a validated analysis and the id it was saved under
type AnalyzeResult struct {
	Analysis domain.CollectionAnalysis `json:"data"`
	CardID   string                    `json:"cardId,omitempty"`
}

// AnalysisService turns an uploaded photo into a saved collection card
type AnalysisService struct {
	vision  domain.VisionClient
	cards   domain.CardRepository
	catalog domain.ImageCatalog
	newID   func() (string, error)
	now     func() time.Time
}

// NewAnalysisService creates a new analysis service with dependencies.
// cards and catalog may be nil.
func NewAnalysisService(vision domain.VisionClient, cards domain.CardRepository, catalog domain.ImageCatalog) *AnalysisService {
	return &AnalysisService{
		vision:  vision,
		cards:   cards,
		catalog: catalog,
		newID:   GenerateCardID,
		now:     time.Now,
	}
}

// Analyze identifies the watches in an image and saves the result as a card.
// Flow: validate image -> vision call -> parse (one strict retry) -> validate
// -> synthesize positions -> inject images -> save
func (s *AnalysisService) Analyze(ctx context.Context, request *AnalyzeRequest) (*AnalyzeResult, error) {
	if request == nil || request.Image == "" {
		return nil, fmt.Errorf("%w: image data is required", domain.ErrInvalidImage)
	}
	m := dataURLRegex.FindStringSubmatch(request.Image)
	if m == nil {
		return nil, fmt.Errorf("%w: expected a base64 image data URL", domain.ErrInvalidImage)
	}
	mediaType, data := m[1], m[2]

	analysis, err := s.identify(ctx, mediaType, data)
	if err != nil {
		return nil, err
	}

	debug := SynthesizePositions(analysis.Watches, analysis.RowCounts)
	if debug.PositioningMethod == PositioningRowCounts {
		analysis.GridRows = debug.GridRows
		analysis.GridCols = debug.GridCols
		log.Printf("[ANALYZE] Positions calculated from row_counts: %v", analysis.RowCounts)
	}
	debug.GridRows = analysis.GridRows
	debug.GridCols = analysis.GridCols
	analysis.Debug = &debug

	s.injectImages(analysis.Watches)

	result := &AnalyzeResult{Analysis: *analysis}
	if s.cards == nil {
		return result, nil
	}

	id, err := allocateCardID(ctx, s.cards, s.newID, maxCardIDAttempts)
	if err != nil {
		// Still return the analysis, just without persistence
		log.Printf("[ANALYZE] Card not saved: %v", err)
		return result, nil
	}

	card := &domain.SavedCard{
		ID:          id,
		Created:     s.now().UTC(),
		Analysis:    *analysis,
		PhotoBase64: request.Image,
	}
	if err := s.cards.Save(ctx, card); err != nil {
		log.Printf("[ANALYZE] Failed to save card %s: %v", id, err)
		return result, nil
	}

	log.Printf("[ANALYZE] Saved card with ID: %s (%d watches)", id, len(analysis.Watches))
	result.CardID = id
	return result, nil
}

// identify calls the vision model, retrying once with a stricter prompt when
// the answer is not parseable JSON.
func (s *AnalysisService) identify(ctx context.Context, mediaType, data string) (*domain.CollectionAnalysis, error) {
	text, err := s.vision.IdentifyCollection(ctx, mediaType, data, AnalysisPrompt)
	if err != nil {
		return nil, wrapVisionError(err)
	}

	analysis, err := ParseAnalysis(text)
	if err != nil && errors.Is(err, errMalformedJSON) {
		log.Printf("[ANALYZE] Unparseable response, retrying with strict prompt: %v", err)
		text, err = s.vision.IdentifyCollection(ctx, mediaType, data, AnalysisPrompt+strictJSONSuffix)
		if err != nil {
			return nil, fmt.Errorf("%w: retry failed: %v", domain.ErrParseFailure, err)
		}
		analysis, err = ParseAnalysis(text)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[ANALYZE] row_counts=%v watches=%d", analysis.RowCounts, len(analysis.Watches))
	return analysis, nil
}

func (s *AnalysisService) injectImages(watches []domain.Watch) {
	if s.catalog == nil {
		return
	}
	for i := range watches {
		if url, ok := s.catalog.Lookup(watches[i].ModelNumber); ok {
			watches[i].ImageURL = &url
		}
	}
}

var errMalformedJSON = errors.New("malformed JSON")

// ParseAnalysis extracts the JSON document from a model answer (tolerating
// markdown code fences) and validates it as a collection analysis.
func ParseAnalysis(text string) (*domain.CollectionAnalysis, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: %w: empty response", domain.ErrParseFailure, errMalformedJSON)
	}
	if m := codeFenceRegex.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}

	var analysis domain.CollectionAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrParseFailure, errMalformedJSON, err)
	}
	if err := ValidateAnalysis(&analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ValidateAnalysis checks the payload shape. A zero total is reported as
// ErrNoWatches rather than a parse failure.
func ValidateAnalysis(a *domain.CollectionAnalysis) error {
	if a.TotalWatches < 0 {
		return fmt.Errorf("%w: total_watches is negative", domain.ErrParseFailure)
	}
	if a.Watches == nil {
		return fmt.Errorf("%w: watches is missing", domain.ErrParseFailure)
	}
	for i, w := range a.Watches {
		if !w.DisplayType.Valid() {
			return fmt.Errorf("%w: watch %d has display_type %q", domain.ErrParseFailure, i, w.DisplayType)
		}
		if !w.Confidence.Valid() {
			return fmt.Errorf("%w: watch %d has confidence %q", domain.ErrParseFailure, i, w.Confidence)
		}
		if a.Watches[i].NotableFeatures == nil {
			a.Watches[i].NotableFeatures = []string{}
		}
	}
	if a.GridRows < 0 || a.GridCols < 0 {
		return fmt.Errorf("%w: negative grid hint", domain.ErrParseFailure)
	}
	for _, c := range a.RowCounts {
		if c < 0 {
			return fmt.Errorf("%w: negative row count", domain.ErrParseFailure)
		}
	}
	if a.CollectionHighlights == nil {
		a.CollectionHighlights = []string{}
	}
	if a.SeriesBreakdown == nil {
		a.SeriesBreakdown = map[string]int{}
	}
	if a.TotalWatches == 0 {
		return domain.ErrNoWatches
	}
	return nil
}

func wrapVisionError(err error) error {
	if errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrVisionAPIFailure) ||
		errors.Is(err, domain.ErrParseFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrVisionAPIFailure, err)
}
