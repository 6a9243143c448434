package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/sotc/backend/internal/domain"
)

const (
	maxArchetypes = 4
	// OtherThreshold is the share below which a segment is folded into OTHER
	OtherThreshold = 10
	otherName      = "OTHER"
	collectorName  = "Collector"
)

type archetypeRule struct {
	name      string
	shortName string
	color     domain.ArchetypeColor
	keywords  []string
}

// archetypeTaxonomy is checked in order; the first keyword hit wins
var archetypeTaxonomy = []archetypeRule{
	{"Square Purist", "SQUARE", domain.ColorBrick, []string{
		"square", "5600", "5000", "dw-5000", "dw-5600", "gw-5000", "gw-m5610",
		"gmw-b5000", "full metal", "dw-5035", "dw-5025",
	}},
	{"Tool Watch", "TOOL", domain.ColorOlive, []string{
		"frogman", "rangeman", "mudmaster", "gravitymaster", "gulfmaster",
		"master of g", "gwf", "gw-9400", "gg-", "gpr-", "gwg-",
	}},
	{"CasiOak Fan", "CASIOAK", domain.ColorBlueGray, []string{
		"casioak", "2100", "ga-2100", "gm-2100", "gm-b2100", "ga-b2100",
		"gma-s2100", "gae-2100",
	}},
	{"Premium", "PREMIUM", domain.ColorWarmBrown, []string{
		"mt-g", "mr-g", "mtg-", "mrg-", "mtg-b", "mrg-b",
	}},
	{"Ana-Digi", "ANA-DIGI", domain.ColorOlive, []string{
		"ga-110", "ga-700", "ga-900", "ga-100", "ga-400", "gd-", "ga-",
	}},
	{"Classic Digital", "CLASSIC", domain.ColorBlueGray, []string{
		"6900", "dw-6900", "gd-350", "gd-x6900", "gdx-6900",
	}},
	{"Limited Edition", "LIMITED", domain.ColorWarmBrown, []string{
		"collaboration", "limited", "anniversary", "special", "collab",
		"nasa", "bape", "kith", "bamford", "one piece", "dragon ball",
	}},
}

var collectorRule = archetypeRule{collectorName, "COLLECTOR", domain.ColorOlive, nil}

// DNABreakdown is the top-four archetype list plus the share of the
// collection that fell outside it.
type DNABreakdown struct {
	Archetypes []domain.Archetype `json:"archetypes"`
	Untracked  int                `json:"untracked"`
}

// DNASegment is one rendered segment of the DNA bar
type DNASegment struct {
	Name       string                `json:"name"`
	Percentage int                   `json:"percentage"`
	Color      domain.ArchetypeColor `json:"color"`
	Flex       float64               `json:"flex"`
}

// DeriveDNA returns the top four collector archetypes by share.
// It is empty iff watches is empty.
func DeriveDNA(watches []domain.Watch) []domain.Archetype {
	return DeriveDNABreakdown(watches).Archetypes
}

// DeriveDNABreakdown counts watches per archetype, keeps the four largest
// (ties in first-seen order) and converts counts to rounded percentages.
func DeriveDNABreakdown(watches []domain.Watch) DNABreakdown {
	if len(watches) == 0 {
		return DNABreakdown{Archetypes: []domain.Archetype{}}
	}

	type bucket struct {
		rule  archetypeRule
		count int
	}
	var buckets []*bucket
	byName := map[string]*bucket{}
	for _, w := range watches {
		rule := watchArchetype(w)
		b, ok := byName[rule.name]
		if !ok {
			b = &bucket{rule: rule}
			byName[rule.name] = b
			buckets = append(buckets, b)
		}
		b.count++
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].count > buckets[j].count
	})

	kept := min(len(buckets), maxArchetypes)
	counts := make([]int, 0, kept+1)
	for _, b := range buckets[:kept] {
		counts = append(counts, b.count)
	}
	tail := 0
	for _, b := range buckets[kept:] {
		tail += b.count
	}
	counts = append(counts, tail)

	shares := roundShares(counts, len(watches))
	breakdown := DNABreakdown{Untracked: shares[kept]}
	for i, b := range buckets[:kept] {
		breakdown.Archetypes = append(breakdown.Archetypes, domain.Archetype{
			Name:       b.rule.shortName,
			Percentage: shares[i],
			Color:      b.rule.color,
		})
	}
	return breakdown
}

// roundShares rounds each count to a half-up percentage of total. When the
// rounded shares add up to more than 100, the excess is taken back from the
// shares that were rounded up by the smallest margin (later entries first).
func roundShares(counts []int, total int) []int {
	shares := make([]int, len(counts))
	sum := 0
	for i, c := range counts {
		shares[i] = roundPercent(c, total)
		sum += shares[i]
	}

	trimmed := make([]bool, len(counts))
	for excess := sum - 100; excess > 0; excess-- {
		pick, pickRem := -1, 0
		for i, c := range counts {
			rem := c * 100 % total
			if trimmed[i] || rem == 0 || 2*rem < total {
				continue // exact, rounded down, or already trimmed
			}
			if pick < 0 || rem <= pickRem {
				pick, pickRem = i, rem
			}
		}
		if pick < 0 {
			break
		}
		shares[pick]--
		trimmed[pick] = true
	}
	return shares
}

// CollapseDNA folds archetypes under OtherThreshold, plus any untracked share,
// into a trailing OTHER segment.
func CollapseDNA(b DNABreakdown) []DNASegment {
	segments := make([]DNASegment, 0, len(b.Archetypes)+1)
	other := b.Untracked
	for _, a := range b.Archetypes {
		if a.Percentage < OtherThreshold {
			other += a.Percentage
			continue
		}
		segments = append(segments, DNASegment{
			Name:       a.Name,
			Percentage: a.Percentage,
			Color:      a.Color,
			Flex:       segmentFlex(a.Percentage),
		})
	}
	if other > 0 {
		segments = append(segments, DNASegment{
			Name:       otherName,
			Percentage: other,
			Color:      domain.ColorOther,
			Flex:       segmentFlex(other),
		})
	}
	return segments
}

func watchArchetype(w domain.Watch) archetypeRule {
	series := strings.ToLower(w.Series)
	model := strings.ToLower(w.ModelNumber)
	for _, rule := range archetypeTaxonomy {
		for _, kw := range rule.keywords {
			if strings.Contains(series, kw) || strings.Contains(model, kw) {
				return rule
			}
		}
	}
	return collectorRule
}

// roundPercent rounds half up
func roundPercent(count, total int) int {
	return int(math.Floor(float64(count)*100/float64(total) + 0.5))
}

// segmentFlex keeps small segments visible
func segmentFlex(percentage int) float64 {
	return math.Max(float64(percentage)/10, 1)
}
