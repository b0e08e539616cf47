package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/casequest/coach-engine/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the immutable scenario lookup table. It is populated once
// before the server starts serving and never mutated afterwards, so
// reads need no locking.
type Catalog struct {
	scenarios []*models.Scenario
	byID      map[string]*models.Scenario
}

// catalogFile is the YAML structure of a catalog file
type catalogFile struct {
	Scenarios []models.Scenario `yaml:"scenarios"`
}

// LoadDefault builds the catalog from the embedded scenario set.
func LoadDefault() (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*models.Scenario)}
	if err := c.addFile("default.yaml", defaultCatalog); err != nil {
		return nil, err
	}
	slog.Info("default catalog loaded", "scenarios", len(c.scenarios))
	return c, nil
}

// LoadFromDir builds the catalog from all YAML files in dir, replacing
// the embedded default entirely. Files that fail to parse are skipped
// with a warning; the load fails only if nothing usable was found.
func LoadFromDir(dir string) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*models.Scenario)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog dir: %w", err)
	}

	// Deterministic catalog order across restarts
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read catalog file", "file", path, "error", err)
			continue
		}
		if err := c.addFile(name, data); err != nil {
			slog.Warn("failed to load catalog file", "file", path, "error", err)
			continue
		}
	}

	if len(c.scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios loaded from %s", dir)
	}

	slog.Info("catalog loaded", "dir", dir, "scenarios", len(c.scenarios))
	return c, nil
}

// addFile parses one YAML catalog file and appends its scenarios in
// file order.
func (c *Catalog) addFile(name string, data []byte) error {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range cf.Scenarios {
		sc := cf.Scenarios[i]
		if sc.ID == "" {
			return fmt.Errorf("%s: scenario %d has no id", name, i)
		}
		if sc.Title == "" {
			return fmt.Errorf("%s: scenario %q has no title", name, sc.ID)
		}
		if !models.ValidCategory(sc.Category) {
			return fmt.Errorf("%s: scenario %q has unknown category %q", name, sc.ID, sc.Category)
		}
		if !models.ValidDifficulty(sc.Difficulty) {
			return fmt.Errorf("%s: scenario %q has unknown difficulty %q", name, sc.ID, sc.Difficulty)
		}
		if _, exists := c.byID[sc.ID]; exists {
			return fmt.Errorf("%s: duplicate scenario id %q", name, sc.ID)
		}

		scenario := sc
		c.scenarios = append(c.scenarios, &scenario)
		c.byID[sc.ID] = &scenario
	}

	return nil
}

// Get returns a scenario by ID, or nil
func (c *Catalog) Get(id string) *models.Scenario {
	return c.byID[id]
}

// List returns all scenarios in catalog order
func (c *Catalog) List() []*models.Scenario {
	result := make([]*models.Scenario, len(c.scenarios))
	copy(result, c.scenarios)
	return result
}

// Len returns the number of scenarios
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// Filter returns scenarios matching the category and difficulty, in
// catalog order. Empty or "All" values match everything.
func (c *Catalog) Filter(category, difficulty string) []*models.Scenario {
	anyCategory := category == "" || category == "All"
	anyDifficulty := difficulty == "" || difficulty == models.DifficultyAll

	result := make([]*models.Scenario, 0)
	for _, sc := range c.scenarios {
		if !anyCategory && string(sc.Category) != category {
			continue
		}
		if !anyDifficulty && string(sc.Difficulty) != difficulty {
			continue
		}
		result = append(result, sc)
	}
	return result
}

// Categories returns the profile for every category present in the
// catalog, in catalog order of first appearance.
func (c *Catalog) Categories() []models.CategoryProfile {
	seen := make(map[models.Category]bool)
	var result []models.CategoryProfile
	for _, sc := range c.scenarios {
		if seen[sc.Category] {
			continue
		}
		seen[sc.Category] = true
		result = append(result, models.Profiles[sc.Category])
	}
	return result
}
