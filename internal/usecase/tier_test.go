package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sotc/backend/internal/domain"
)

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		name  string
		watch domain.Watch
		want  domain.Tier
	}{
		{"full metal model", domain.Watch{ModelNumber: "GMW-B5000D-1"}, domain.TierPremium},
		{"MR-G model", domain.Watch{ModelNumber: "MRG-B2100B-1"}, domain.TierPremium},
		{"MT-G model", domain.Watch{ModelNumber: "MTG-B3000BD-1A"}, domain.TierPremium},
		{"frogman model", domain.Watch{ModelNumber: "GWF-A1000C-1A"}, domain.TierPremium},
		{"frogman series", domain.Watch{ModelNumber: "GW-8200", Series: "Frogman"}, domain.TierPremium},
		{"full metal series", domain.Watch{ModelNumber: "GM-5600", Series: "Full Metal"}, domain.TierPremium},
		{"nasa collaboration", domain.Watch{ModelNumber: "DW-5600NASA21"}, domain.TierRare},
		{"limited feature", domain.Watch{ModelNumber: "DW-5600", NotableFeatures: []string{"Limited Edition"}}, domain.TierRare},
		{"anniversary series", domain.Watch{ModelNumber: "DW-5040PG-1", Series: "40th Anniversary"}, domain.TierRare},
		{"dragon ball", domain.Watch{ModelNumber: "GA-110JDB-1A4", Series: "Dragon Ball Z"}, domain.TierRare},
		{"plain square", domain.Watch{ModelNumber: "DW-5600E-1V", Series: "5600"}, domain.TierStandard},
		{"plain casioak", domain.Watch{ModelNumber: "GA-2100-1A1", Series: "2100"}, domain.TierStandard},
		{"collab wording is not a bare x pattern", domain.Watch{ModelNumber: "GA-2100", NotableFeatures: []string{"2 x LED"}}, domain.TierStandard},
		{"empty watch", domain.Watch{}, domain.TierStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTier(tt.watch); got != tt.want {
				t.Errorf("ClassifyTier(%+v) = %s, want %s", tt.watch, got, tt.want)
			}
		})
	}
}

func TestClassifyTier_PremiumBeforeRare(t *testing.T) {
	// Matches both "mrg-" and "limited"/"collab"
	w := domain.Watch{
		ModelNumber:     "MRG-B2100B-1",
		Series:          "MR-G Limited",
		NotableFeatures: []string{"Collaboration", "Anniversary"},
	}
	if got := ClassifyTier(w); got != domain.TierPremium {
		t.Errorf("ClassifyTier() = %s, want premium", got)
	}
}

func TestAddTiers(t *testing.T) {
	watches := []domain.Watch{
		{ModelNumber: "DW-5600E-1V"},
		{ModelNumber: "GWF-A1000C-1A"},
		{ModelNumber: "DW-5600NASA21"},
	}

	tiered := AddTiers(watches)

	if len(tiered) != 3 {
		t.Fatalf("len(AddTiers()) = %d, want 3", len(tiered))
	}
	wantTiers := []domain.Tier{domain.TierStandard, domain.TierPremium, domain.TierRare}
	for i, w := range tiered {
		if w.Tier != wantTiers[i] {
			t.Errorf("tiered[%d].Tier = %s, want %s", i, w.Tier, wantTiers[i])
		}
		if w.Index != i {
			t.Errorf("tiered[%d].Index = %d, want %d", i, w.Index, i)
		}
		if w.Label != watches[i].ModelNumber {
			t.Errorf("tiered[%d].Label = %s, want %s", i, w.Label, watches[i].ModelNumber)
		}
	}

	counts := CountByTier(tiered)
	if counts != (domain.TierCounts{Standard: 1, Rare: 1, Premium: 1}) {
		t.Errorf("CountByTier() = %+v", counts)
	}
}

func TestApplyLabelEdits(t *testing.T) {
	tiered := AddTiers([]domain.Watch{
		{ModelNumber: "MRG-B2100B-1"},
		{ModelNumber: "DW-5600E-1V"},
		{ModelNumber: "GA-2100-1A1"},
	})

	ApplyLabelEdits(tiered, map[int]string{
		0: "Limited collab grail", // would read as rare if reclassified
		1: "   ",
		7: "out of range",
	})

	if tiered[0].Label != "Limited collab grail" {
		t.Errorf("tiered[0].Label = %s, want edited label", tiered[0].Label)
	}
	if tiered[0].Tier != domain.TierPremium {
		t.Errorf("tiered[0].Tier = %s, want premium (edits never reclassify)", tiered[0].Tier)
	}
	if tiered[0].ModelNumber != "MRG-B2100B-1" {
		t.Errorf("tiered[0].ModelNumber = %s, want unchanged", tiered[0].ModelNumber)
	}
	if tiered[1].Label != "DW-5600E-1V" {
		t.Errorf("blank edit applied: %q", tiered[1].Label)
	}
	if tiered[2].Label != "GA-2100-1A1" {
		t.Errorf("tiered[2].Label = %s, want unchanged", tiered[2].Label)
	}
}

func TestNewTierClassifier_InvalidPattern(t *testing.T) {
	if _, err := NewTierClassifier([]string{"("}, nil); err == nil {
		t.Error("NewTierClassifier() error = nil, want error for invalid regex")
	}
}

func TestLoadTierClassifier(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "tiers.yaml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write patterns file: %v", err)
		}
		return path
	}

	t.Run("overrides rare patterns and keeps premium defaults", func(t *testing.T) {
		path := write(t, "rare:\n  - 'gold'\n")

		c, err := LoadTierClassifier(path)
		if err != nil {
			t.Fatalf("LoadTierClassifier() error = %v", err)
		}
		if got := c.Classify(domain.Watch{ModelNumber: "GM-5600G-9", Colorway: "Gold", Series: "Gold 5600"}); got != domain.TierRare {
			t.Errorf("gold watch = %s, want rare", got)
		}
		if got := c.Classify(domain.Watch{ModelNumber: "DW-5600NASA21"}); got != domain.TierStandard {
			t.Errorf("nasa watch = %s, want standard once rare list is replaced", got)
		}
		if got := c.Classify(domain.Watch{ModelNumber: "MRG-B5000"}); got != domain.TierPremium {
			t.Errorf("MR-G watch = %s, want premium from defaults", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTierClassifier(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("LoadTierClassifier() error = nil, want error")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := LoadTierClassifier(write(t, "premium: [unterminated")); err == nil {
			t.Error("LoadTierClassifier() error = nil, want error")
		}
	})
}
