package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/domain/catalog"
)

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *catalog.Category {
	tb.Helper()
	c := &catalog.Category{Name: name, Active: true}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedItem(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, price float64, cat *catalog.Category) *catalog.Item {
	tb.Helper()
	it := &catalog.Item{Name: name, Price: price, CategoryID: cat.ID}
	if err := tx.WithContext(ctx).Create(it).Error; err != nil {
		tb.Fatalf("seed item: %v", err)
	}
	it.Category = cat
	return it
}
