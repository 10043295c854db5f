package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/data/repos/catalog"
	"github.com/yungbote/catalog-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/cache"
	"github.com/yungbote/catalog-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime"
)

type published struct {
	Entity  string
	Op      realtime.Operation
	Payload any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingBroadcaster) Publish(_ context.Context, entity string, op realtime.Operation, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Entity: entity, Op: op, Payload: payload})
}

func (r *recordingBroadcaster) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

type fixture struct {
	db         *gorm.DB
	log        *logger.Logger
	itemRepo   catalog.ItemRepo
	validator  *Validator
	items      ItemService
	categories CategoryService
	itemCache  *cache.Store[*domain.Item]
	catCache   *cache.Store[*domain.Category]
	events     *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith wires the services over a fresh database. A nil broadcaster
// installs a recording one.
func newFixtureWith(t *testing.T, b Broadcaster) *fixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := logger.Nop()

	itemRepo := catalog.NewItemRepo(gdb, log)
	catRepo := catalog.NewCategoryRepo(gdb, log)
	v := NewValidator(itemRepo, catRepo)

	f := &fixture{
		db:        gdb,
		log:       log,
		itemRepo:  itemRepo,
		validator: v,
		itemCache: cache.New[*domain.Item]("items", 0, (*domain.Item).Clone, log),
		catCache:  cache.New[*domain.Category]("categories", 0, (*domain.Category).Clone, log),
		events:    &recordingBroadcaster{},
	}
	if b == nil {
		b = f.events
	}
	f.categories = NewCategoryService(log, catRepo, v, f.catCache, b)
	f.items = NewItemService(log, itemRepo, v, f.categories, f.itemCache, b)
	return f
}

func (f *fixture) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), CategoryInput{Name: ptr(name)})
	require.NoError(t, err)
	return c
}

// itemsWithHook returns a second ItemService over the same database, caches
// and broadcaster whose repo runs hook once, right after its first GetByID.
func (f *fixture) itemsWithHook(hook func()) ItemService {
	repo := &hookedItemRepo{ItemRepo: f.itemRepo, afterGet: hook}
	return NewItemService(f.log, repo, f.validator, f.categories, f.itemCache, f.events)
}

type hookedItemRepo struct {
	catalog.ItemRepo
	once     sync.Once
	afterGet func()
}

func (r *hookedItemRepo) GetByID(dbc dbctx.Context, id uint64) (*domain.Item, error) {
	row, err := r.ItemRepo.GetByID(dbc, id)
	r.once.Do(r.afterGet)
	return row, err
}

func ptr[T any](v T) *T { return &v }

func decodeEvent(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}
