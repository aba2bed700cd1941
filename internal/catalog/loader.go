package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
)

//go:embed default
var defaultFS embed.FS

const (
	catalogFile = "catalog.yaml"
	themeFile   = "theme.yaml"
)

// Loader loads the question catalog once and serves read-only lookups
type Loader struct {
	mu      sync.RWMutex
	catalog *models.Catalog
}

// NewLoader creates a new catalog loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDefault loads the built-in reference catalog
func (l *Loader) LoadDefault() error {
	sub, err := fs.Sub(defaultFS, "default")
	if err != nil {
		return fmt.Errorf("failed to open embedded catalog: %w", err)
	}
	return l.LoadFromFS(sub, "embedded")
}

// LoadFromDir loads a catalog directory:
//
//	catalog.yaml            name, version, maturity levels (optional)
//	<theme>/theme.yaml      id, name, description, weight, order
//	<theme>/<indicator>.yaml id, name, description, order, questions
func (l *Loader) LoadFromDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to open catalog dir: %w", err)
	}
	return l.LoadFromFS(os.DirFS(dir), dir)
}

// LoadFromFS parses and validates a catalog from fsys. The previously
// loaded catalog stays in place when anything fails.
func (l *Loader) LoadFromFS(fsys fs.FS, source string) error {
	slog.Info("loading catalog", "source", source)

	cat, err := parseCatalog(fsys)
	if err != nil {
		return err
	}

	if err := Validate(cat); err != nil {
		return err
	}

	l.mu.Lock()
	l.catalog = cat
	l.mu.Unlock()

	slog.Info("catalog loaded",
		"source", source,
		"name", cat.Name,
		"themes", len(cat.Themes),
		"questions", cat.QuestionCount(),
	)
	return nil
}

// Catalog returns the loaded catalog, nil before a successful load.
// Callers must treat it as read-only.
func (l *Loader) Catalog() *models.Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.catalog
}

// --- Catalog accessors ---

// ListThemes returns theme summaries in catalog order
func (l *Loader) ListThemes() []models.ThemeSummary {
	cat := l.Catalog()
	if cat == nil {
		return nil
	}

	result := make([]models.ThemeSummary, 0, len(cat.Themes))
	for i := range cat.Themes {
		result = append(result, cat.Themes[i].Summary())
	}
	return result
}

// GetTheme returns a theme by ID
func (l *Loader) GetTheme(id string) *models.Theme {
	cat := l.Catalog()
	if cat == nil {
		return nil
	}
	return cat.ThemeByID(id)
}

// GetIndicator returns an indicator by theme ID and indicator ID (e.g. "design", "1.1")
func (l *Loader) GetIndicator(themeID, indicatorID string) *models.Indicator {
	theme := l.GetTheme(themeID)
	if theme == nil {
		return nil
	}
	for i := range theme.Indicators {
		if theme.Indicators[i].ID == indicatorID {
			return &theme.Indicators[i]
		}
	}
	return nil
}

// Levels returns the maturity bands
func (l *Loader) Levels() []models.MaturityLevel {
	cat := l.Catalog()
	if cat == nil || len(cat.Levels) == 0 {
		return scoring.DefaultLevels()
	}
	return cat.Levels
}

// --- Catalog parsing ---

func parseCatalog(fsys fs.FS) (*models.Catalog, error) {
	cat := &models.Catalog{Name: "Circular Readiness Assessment"}

	if data, err := fs.ReadFile(fsys, catalogFile); err == nil {
		var cf catalogFileYAML
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", catalogFile, err)
		}
		if cf.Name != "" {
			cat.Name = cf.Name
		}
		cat.Version = cf.Version
		cat.Levels = cf.Levels
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", catalogFile, err)
	}

	if len(cat.Levels) == 0 {
		cat.Levels = scoring.DefaultLevels()
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	var themes []ordered[models.Theme]
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := fs.Stat(fsys, path.Join(entry.Name(), themeFile)); err != nil {
			continue // not a theme directory
		}

		theme, order, err := loadTheme(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("theme %s: %w", entry.Name(), err)
		}
		themes = append(themes, ordered[models.Theme]{order: order, key: entry.Name(), value: theme})
	}

	cat.Themes = sortOrdered(themes)
	return cat, nil
}

// loadTheme loads theme.yaml and every indicator file next to it
func loadTheme(fsys fs.FS, dir string) (models.Theme, int, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, themeFile))
	if err != nil {
		return models.Theme{}, 0, fmt.Errorf("failed to read %s: %w", themeFile, err)
	}

	var tf themeFileYAML
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return models.Theme{}, 0, fmt.Errorf("failed to parse %s: %w", themeFile, err)
	}

	// Fall back to the directory name without its ordering prefix ("01-design" → "design")
	id := tf.ID
	if id == "" {
		id = stripOrderPrefix(dir)
	}

	theme := models.Theme{
		ID:            id,
		Name:          tf.Name,
		Description:   tf.Description,
		DefaultWeight: tf.Weight,
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return models.Theme{}, 0, fmt.Errorf("failed to read theme dir: %w", err)
	}

	var indicators []ordered[models.Indicator]
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == themeFile {
			continue
		}

		ext := strings.ToLower(path.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		ind, order, err := loadIndicator(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return models.Theme{}, 0, fmt.Errorf("indicator %s: %w", entry.Name(), err)
		}
		indicators = append(indicators, ordered[models.Indicator]{order: order, key: entry.Name(), value: ind})
	}

	theme.Indicators = sortOrdered(indicators)
	return theme, tf.Order, nil
}

// loadIndicator loads a single indicator YAML file
func loadIndicator(fsys fs.FS, file string) (models.Indicator, int, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return models.Indicator{}, 0, fmt.Errorf("failed to read indicator file: %w", err)
	}

	var inf indicatorFileYAML
	if err := yaml.Unmarshal(data, &inf); err != nil {
		return models.Indicator{}, 0, fmt.Errorf("failed to parse indicator YAML: %w", err)
	}

	// Use id from YAML, fall back to filename without extension
	id := inf.ID
	if id == "" {
		base := path.Base(file)
		id = strings.TrimSuffix(base, path.Ext(base))
	}

	ind := models.Indicator{
		ID:          id,
		Name:        inf.Name,
		Description: inf.Description,
		Questions:   make([]models.Question, 0, len(inf.Questions)),
	}
	for _, q := range inf.Questions {
		ind.Questions = append(ind.Questions, models.Question{
			Code:    q.Code,
			Text:    q.Text,
			Options: q.Options,
		})
	}

	return ind, inf.Order, nil
}

type ordered[T any] struct {
	order int
	key   string
	value T
}

// sortOrdered sorts by explicit order first, then by file name
func sortOrdered[T any](items []ordered[T]) []T {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].order != items[j].order {
			return items[i].order < items[j].order
		}
		return items[i].key < items[j].key
	})

	result := make([]T, 0, len(items))
	for _, it := range items {
		result = append(result, it.value)
	}
	return result
}

func stripOrderPrefix(name string) string {
	if i := strings.IndexByte(name, '-'); i > 0 {
		prefix := name[:i]
		if strings.Trim(prefix, "0123456789") == "" {
			return name[i+1:]
		}
	}
	return name
}

// --- YAML file structs ---

// catalogFileYAML represents catalog.yaml
type catalogFileYAML struct {
	Name    string                 `yaml:"name"`
	Version string                 `yaml:"version"`
	Levels  []models.MaturityLevel `yaml:"levels"`
}

// themeFileYAML represents a theme.yaml file
type themeFileYAML struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Weight      float64 `yaml:"weight"`
	Order       int     `yaml:"order"`
}

// indicatorFileYAML represents an indicator YAML file
type indicatorFileYAML struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Order       int    `yaml:"order"`
	Questions   []struct {
		Code    string          `yaml:"code"`
		Text    string          `yaml:"text"`
		Options []models.Option `yaml:"options"`
	} `yaml:"questions"`
}
