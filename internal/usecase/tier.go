package usecase

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sotc/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// Premium patterns: Full Metal, MR-G, MT-G, Frogman
var defaultPremiumPatterns = []string{
	`gmw-b5000`,
	`mrg-`,
	`mr-g`,
	`mtg-`,
	`mt-g`,
	`gwf-`, // Frogman
	`frogman`,
	`full\s*metal`,
}

// Rare patterns: named collaborations and limited runs.
// A bare "x <word>" collaboration pattern is not used; it matched ordinary
// feature text.
var defaultRarePatterns = []string{
	`nasa`,
	`bape`,
	`kith`,
	`bamford`,
	`limited`,
	`collab`,
	`anniversary`,
	`special`,
	`35th`,
	`40th`,
	`one\s*piece`,
	`dragon\s*ball`,
	`transformers`,
}

// TierPattern pairs a compiled pattern with the tier it assigns
type TierPattern struct {
	Pattern *regexp.Regexp
	Tier    domain.Tier
}

// TierClassifier assigns tiers by first match over an ordered pattern list.
// Premium patterns always precede rare ones.
type TierClassifier struct {
	patterns []TierPattern
}

// TierPatternFile is the YAML layout of a pattern override file
type TierPatternFile struct {
	Premium []string `yaml:"premium"`
	Rare    []string `yaml:"rare"`
}

var defaultClassifier = MustTierClassifier(defaultPremiumPatterns, defaultRarePatterns)

// NewTierClassifier compiles premium and rare patterns (case-insensitive)
func NewTierClassifier(premium, rare []string) (*TierClassifier, error) {
	c := &TierClassifier{}
	for _, group := range []struct {
		exprs []string
		tier  domain.Tier
	}{
		{premium, domain.TierPremium},
		{rare, domain.TierRare},
	} {
		for _, expr := range group.exprs {
			re, err := regexp.Compile(`(?i)` + expr)
			if err != nil {
				return nil, fmt.Errorf("invalid %s pattern %q: %w", group.tier, expr, err)
			}
			c.patterns = append(c.patterns, TierPattern{Pattern: re, Tier: group.tier})
		}
	}
	return c, nil
}

// MustTierClassifier is like NewTierClassifier but panics on a bad pattern
func MustTierClassifier(premium, rare []string) *TierClassifier {
	c, err := NewTierClassifier(premium, rare)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadTierClassifier reads pattern overrides from a YAML file.
// A section left empty keeps the built-in list.
func LoadTierClassifier(path string) (*TierClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier patterns: %w", err)
	}
	var f TierPatternFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tier patterns yaml: %w", err)
	}
	if len(f.Premium) == 0 {
		f.Premium = defaultPremiumPatterns
	}
	if len(f.Rare) == 0 {
		f.Rare = defaultRarePatterns
	}
	return NewTierClassifier(f.Premium, f.Rare)
}

// DefaultTierClassifier returns the classifier built from the built-in patterns
func DefaultTierClassifier() *TierClassifier {
	return defaultClassifier
}

// Classify returns the tier of a watch from its model number, series and features
func (c *TierClassifier) Classify(w domain.Watch) domain.Tier {
	text := classificationText(w)
	for _, p := range c.patterns {
		if p.Pattern.MatchString(text) {
			return p.Tier
		}
	}
	return domain.TierStandard
}

// AddTiers classifies every watch. Labels start as the model number.
func (c *TierClassifier) AddTiers(watches []domain.Watch) []domain.TieredWatch {
	tiered := make([]domain.TieredWatch, len(watches))
	for i, w := range watches {
		tiered[i] = domain.TieredWatch{
			Watch: w,
			Tier:  c.Classify(w),
			Index: i,
			Label: w.ModelNumber,
		}
	}
	return tiered
}

// ClassifyTier classifies a watch with the built-in patterns
func ClassifyTier(w domain.Watch) domain.Tier {
	return defaultClassifier.Classify(w)
}

// AddTiers classifies watches with the built-in patterns
func AddTiers(watches []domain.Watch) []domain.TieredWatch {
	return defaultClassifier.AddTiers(watches)
}

// CountByTier counts watches per tier
func CountByTier(watches []domain.TieredWatch) domain.TierCounts {
	var counts domain.TierCounts
	for _, w := range watches {
		switch w.Tier {
		case domain.TierPremium:
			counts.Premium++
		case domain.TierRare:
			counts.Rare++
		default:
			counts.Standard++
		}
	}
	return counts
}

// ApplyLabelEdits replaces display labels by original index. Tiers are left
// untouched so renaming a watch never changes its classification.
func ApplyLabelEdits(watches []domain.TieredWatch, edits map[int]string) {
	for i := range watches {
		if label, ok := edits[watches[i].Index]; ok && strings.TrimSpace(label) != "" {
			watches[i].Label = label
		}
	}
}

func classificationText(w domain.Watch) string {
	return strings.ToLower(w.ModelNumber) + " " +
		strings.ToLower(w.Series) + " " +
		strings.ToLower(strings.Join(w.NotableFeatures, " "))
}
