package catalog

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	separatorRegex  = regexp.MustCompile(`[-_]`)
	baseModelRegex  = regexp.MustCompile(`^([A-Z]{2,4}-?[A-Z]?\d{3,5})`)
)

// Fuzzy lookup limits
const (
	fuzzyMinLength   = 6
	fuzzyMaxDistance = 1
)

// ImageCatalog is a curated map of model numbers to reference image URLs
type ImageCatalog struct {
	exact map[string]string // normalized model -> url
	base  map[string]string // base model -> url (first entry wins)
}

// catalogFile is the YAML layout of an image catalog
type catalogFile struct {
	Images []struct {
		Model string `yaml:"model"`
		URL   string `yaml:"url"`
	} `yaml:"images"`
}

// New builds a catalog from model -> url pairs. Models are added in sorted
// order, so the image shared by a base model is the lowest model's.
func New(images map[string]string) *ImageCatalog {
	c := &ImageCatalog{
		exact: make(map[string]string, len(images)),
		base:  make(map[string]string, len(images)),
	}
	models := make([]string, 0, len(images))
	for model := range images {
		models = append(models, model)
	}
	sort.Strings(models)
	for _, model := range models {
		c.add(model, images[model])
	}
	return c
}

// Load reads a YAML catalog file. A missing path yields an empty catalog.
func Load(path string) (*ImageCatalog, error) {
	if path == "" {
		return New(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse image catalog yaml: %w", err)
	}

	c := New(nil)
	for _, img := range f.Images {
		if strings.TrimSpace(img.Model) == "" || strings.TrimSpace(img.URL) == "" {
			continue
		}
		c.add(img.Model, img.URL)
	}
	return c, nil
}

func (c *ImageCatalog) add(model, url string) {
	c.exact[normalizeModel(model)] = url
	base := baseModel(model)
	if _, ok := c.base[base]; !ok {
		c.base[base] = url
	}
}

// Lookup returns the image for a model number, trying an exact match first,
// then the base model (so colour variants share an image), then the single
// closest catalogued model within one edit.
func (c *ImageCatalog) Lookup(modelNumber string) (string, bool) {
	normalized := normalizeModel(modelNumber)
	if url, ok := c.exact[normalized]; ok {
		return url, true
	}
	if url, ok := c.base[baseModel(modelNumber)]; ok {
		return url, true
	}
	return c.closest(normalized)
}

// closest tolerates one misread character (e.g. "GA-21OO-1A1"). Short models
// and ambiguous matches are rejected.
func (c *ImageCatalog) closest(normalized string) (string, bool) {
	if len(normalized) < fuzzyMinLength {
		return "", false
	}

	best, matches := "", 0
	for model, url := range c.exact {
		if abs(len(model)-len(normalized)) > fuzzyMaxDistance {
			continue
		}
		if levenshteinDistance(model, normalized) <= fuzzyMaxDistance {
			best = url
			matches++
		}
	}
	if matches != 1 {
		return "", false
	}
	return best, true
}

// Len returns the number of catalogued models
func (c *ImageCatalog) Len() int {
	return len(c.exact)
}

func normalizeModel(model string) string {
	m := strings.ToUpper(model)
	m = whitespaceRegex.ReplaceAllString(m, "")
	return separatorRegex.ReplaceAllString(m, "-")
}

// baseModel extracts e.g. "GA-2100" from "GA-2100-1A1"
func baseModel(model string) string {
	normalized := normalizeModel(model)
	if m := baseModelRegex.FindStringSubmatch(normalized); m != nil {
		return m[1]
	}
	return normalized
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
