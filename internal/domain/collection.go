package domain

import "time"

// DisplayType is the dial layout reported by the vision model
type DisplayType string

const (
	DisplayDigital DisplayType = "Digital"
	DisplayAnalog  DisplayType = "Analog"
	DisplayAnaDigi DisplayType = "Ana-Digi"
)

// Valid reports whether d is one of the known display types
func (d DisplayType) Valid() bool {
	switch d {
	case DisplayDigital, DisplayAnalog, DisplayAnaDigi:
		return true
	}
	return false
}

// Confidence is the model's self-reported identification confidence
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the known confidence levels
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Watch is one watch identified in the uploaded photo
type Watch struct {
	ModelNumber     string      `json:"model_number"`
	Series          string      `json:"series"`
	DisplayType     DisplayType `json:"display_type"`
	Colorway        string      `json:"colorway"`
	NotableFeatures []string    `json:"notable_features"`
	Confidence      Confidence  `json:"confidence"`
	Position        string      `json:"position"` // "row-R-pos-C" or free text
	ImageURL        *string     `json:"image_url,omitempty"`
}

// PositioningDebug records how watch positions were derived
type PositioningDebug struct {
	RowCounts         []int  `json:"row_counts"`
	PositioningMethod string `json:"positioning_method"`
	GridRows          int    `json:"grid_rows"`
	GridCols          int    `json:"grid_cols"`
}

// CollectionAnalysis is the validated payload returned by the vision model.
// len(Watches) is authoritative; TotalWatches is display-only.
type CollectionAnalysis struct {
	TotalWatches         int               `json:"total_watches"`
	Watches              []Watch           `json:"watches"`
	CollectionHighlights []string          `json:"collection_highlights"`
	SeriesBreakdown      map[string]int    `json:"series_breakdown"`
	GridRows             int               `json:"grid_rows,omitempty"` // hint only
	GridCols             int               `json:"grid_cols,omitempty"` // hint only
	RowCounts            []int             `json:"row_counts,omitempty"`
	Debug                *PositioningDebug `json:"_debug,omitempty"`
}

// Tier is the rarity/value classification of a watch
type Tier string

const (
	TierStandard Tier = "standard"
	TierRare     Tier = "rare"
	TierPremium  Tier = "premium"
)

// TieredWatch is a watch with its derived tier.
// Label is the display label and may be overridden by the user; Tier is always
// derived from the detected model number.
type TieredWatch struct {
	Watch
	Tier  Tier   `json:"tier"`
	Index int    `json:"index"` // position in the original watch list
	Label string `json:"label"`
}

// TierCounts holds the number of watches per tier
type TierCounts struct {
	Standard int `json:"standard"`
	Rare     int `json:"rare"`
	Premium  int `json:"premium"`
}

// Position is a parsed 1-based grid cell
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ArchetypeColor is the semantic palette entry for a DNA segment
type ArchetypeColor string

const (
	ColorBrick     ArchetypeColor = "brick"
	ColorWarmBrown ArchetypeColor = "warm-brown"
	ColorOlive     ArchetypeColor = "olive"
	ColorBlueGray  ArchetypeColor = "blue-gray"
	ColorOther     ArchetypeColor = "other"
)

// Archetype is one collector DNA bucket
type Archetype struct {
	Name       string         `json:"name"`
	Percentage int            `json:"percentage"`
	Color      ArchetypeColor `json:"color"`
}

// SavedCard is a persisted, shareable collection card
type SavedCard struct {
	ID          string             `json:"id"`
	Created     time.Time          `json:"created"`
	Analysis    CollectionAnalysis `json:"analysis"`
	PhotoBase64 string             `json:"photoBase64"`
}
