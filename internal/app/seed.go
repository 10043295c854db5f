package app

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/catalog-backend/internal/platform/apierr"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/services"
)

// SeedFile is the YAML layout accepted by Seed.
type SeedFile struct {
	Categories []SeedCategory `yaml:"categories"`
	Items      []SeedItem     `yaml:"items"`
}

type SeedCategory struct {
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
}

type SeedItem struct {
	Name     string  `yaml:"name"`
	Price    float64 `yaml:"price"`
	Category string  `yaml:"category"`
}

type SeedResult struct {
	CategoriesCreated int
	ItemsCreated      int
	Skipped           int
}

func LoadSeedFile(path string) (SeedFile, error) {
	var out SeedFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return out, nil
}

// Seed creates the listed categories then items through the services.
// Entries whose names already exist are skipped, so seeding is repeatable.
func Seed(ctx context.Context, log *logger.Logger, svc Services, data SeedFile) (SeedResult, error) {
	var res SeedResult
	for _, c := range data.Categories {
		name := c.Name
		_, err := svc.Categories.Create(ctx, services.CategoryInput{Name: &name, Active: c.Active})
		switch {
		case err == nil:
			res.CategoriesCreated++
		case apierr.Is(err, apierr.KindConflict):
			res.Skipped++
		default:
			return res, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	for _, it := range data.Items {
		name, price, category := it.Name, it.Price, it.Category
		_, err := svc.Items.Create(ctx, services.ItemInput{Name: &name, Price: &price, Category: &category})
		switch {
		case err == nil:
			res.ItemsCreated++
		case apierr.Is(err, apierr.KindConflict):
			res.Skipped++
		default:
			return res, fmt.Errorf("seed item %q: %w", it.Name, err)
		}
	}
	log.Info("Seed complete", "categories", res.CategoriesCreated, "items", res.ItemsCreated, "skipped", res.Skipped)
	return res, nil
}
