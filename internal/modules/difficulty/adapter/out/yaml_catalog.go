package out

import (
	"context"
	"embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"gametune/internal/modules/difficulty/domain"
	diffout "gametune/internal/modules/difficulty/port/out"
	apperrors "gametune/internal/platform/errors"
)

//go:embed catalog/default.yaml
var defaultCatalog embed.FS

type catalogFile struct {
	Games []domain.GameConfig `yaml:"games"`
}

// YAMLCatalog serves game configurations parsed once at construction. The
// loaded configuration is never written back to.
type YAMLCatalog struct {
	games map[string]domain.GameConfig
}

// NewYAMLCatalog reads path, or the built-in catalog when path is empty.
func NewYAMLCatalog(path string) (diffout.Catalog, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = defaultCatalog.ReadFile("catalog/default.yaml")
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read game catalog: %w", err)
	}
	catalog, err := ParseCatalog(raw)
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func ParseCatalog(raw []byte) (*YAMLCatalog, error) {
	file := catalogFile{}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode game catalog: %w", err)
	}
	games := make(map[string]domain.GameConfig, len(file.Games))
	for _, g := range file.Games {
		if err := g.Validate(); err != nil {
			return nil, err
		}
		if _, dup := games[g.ID]; dup {
			return nil, fmt.Errorf("duplicate game %q in catalog: %w", g.ID, apperrors.ErrInvalidInput)
		}
		games[g.ID] = g
	}
	return &YAMLCatalog{games: games}, nil
}

func (c *YAMLCatalog) Game(_ context.Context, gameID string) (domain.GameConfig, error) {
	g, ok := c.games[gameID]
	if !ok {
		return domain.GameConfig{}, apperrors.NotFound("game config", gameID)
	}
	return g, nil
}

func (c *YAMLCatalog) Games(_ context.Context) ([]domain.GameConfig, error) {
	out := make([]domain.GameConfig, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
