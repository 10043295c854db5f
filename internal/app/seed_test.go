package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/catalog-backend/internal/data/repos/testutil"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

const seedYAML = `
categories:
  - name: disney
  - name: SERIE
    active: false
items:
  - name: Mickey
    price: 7.95
    category: DISNEY
  - name: Eleven
    price: 12.5
    category: serie
`

type nopQueue struct{}

func (nopQueue) Enqueue([]byte) bool { return true }

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	data, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, data.Categories, 2)
	require.Len(t, data.Items, 2)

	cfg := Config{}
	svc := wireServices(log, cfg, wireRepos(testutil.DB(t), log), nopQueue{})

	res, err := Seed(ctx, log, svc, data)
	require.NoError(t, err)
	require.Equal(t, SeedResult{CategoriesCreated: 2, ItemsCreated: 2}, res)

	res, err = Seed(ctx, log, svc, data)
	require.NoError(t, err)
	require.Equal(t, SeedResult{Skipped: 4}, res)

	serie, err := svc.Categories.ResolveByName(ctx, "SERIE")
	require.NoError(t, err)
	require.False(t, serie.Active)
}

func TestSeedStopsOnInvalidEntry(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()
	svc := wireServices(log, Config{}, wireRepos(testutil.DB(t), log), nopQueue{})

	_, err := Seed(ctx, log, svc, SeedFile{Items: []SeedItem{{Name: "Orphan", Price: 1, Category: "OTROS"}}})
	require.Error(t, err)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
