package planner

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Catalog is a YAML seed of learners and lessons.
type Catalog struct {
	Learners []Learner `yaml:"learners"`
	Lessons  []Lesson  `yaml:"lessons"`
}

// DefaultCatalog returns the built-in demo catalog.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultSeed)
}

func LoadCatalog(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	for i, l := range c.Lessons {
		if l.Key == "" || l.Title == "" {
			return Catalog{}, fmt.Errorf("catalog lesson %d: key and title are required", i)
		}
	}
	for i, l := range c.Learners {
		if l.ID == "" || l.Name == "" {
			return Catalog{}, fmt.Errorf("catalog learner %d: id and name are required", i)
		}
	}
	return c, nil
}

// Seed upserts the catalog in one transaction.
func (s *Store) Seed(ctx context.Context, c Catalog) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback()

	for _, l := range c.Learners {
		if _, err := tx.NamedExecContext(ctx, upsertLearner, l); err != nil {
			return fmt.Errorf("seed learner %s: %w", l.ID, err)
		}
	}
	for _, l := range c.Lessons {
		if l.Subject == "" {
			l.Subject = "general"
		}
		if _, err := tx.NamedExecContext(ctx, upsertLesson, l); err != nil {
			return fmt.Errorf("seed lesson %s: %w", l.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
