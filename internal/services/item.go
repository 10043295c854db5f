package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/data/repos/catalog"
	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/apierr"
	"github.com/yungbote/catalog-backend/internal/platform/cache"
	"github.com/yungbote/catalog-backend/internal/platform/ctxutil"
	"github.com/yungbote/catalog-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime"
)

// ItemInput carries create and update fields. On update a nil field keeps the
// stored value.
type ItemInput struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Category *string  `json:"category"`
}

// ItemService runs every item mutation through
// validate, resolve, persist, cache, publish. Only the first three can fail
// the call.
type ItemService interface {
	List(ctx context.Context) ([]*domain.Item, error)
	GetByID(ctx context.Context, rawID string) (*domain.Item, error)
	GetByName(ctx context.Context, name string) (*domain.Item, error)
	Create(ctx context.Context, in ItemInput) (*domain.Item, error)
	Update(ctx context.Context, rawID string, in ItemInput) (*domain.Item, error)
	// Delete removes the item and returns it as it was before removal.
	Delete(ctx context.Context, rawID string) (*domain.Item, error)
}

type itemService struct {
	log         *logger.Logger
	repo        catalog.ItemRepo
	validator   *Validator
	categories  CategoryResolver
	cache       *cache.Store[*domain.Item]
	broadcaster Broadcaster
}

func NewItemService(
	log *logger.Logger,
	repo catalog.ItemRepo,
	validator *Validator,
	categories CategoryResolver,
	store *cache.Store[*domain.Item],
	broadcaster Broadcaster,
) ItemService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &itemService{
		log:         log.With("service", "ItemService"),
		repo:        repo,
		validator:   validator,
		categories:  categories,
		cache:       store,
		broadcaster: broadcaster,
	}
}

func (s *itemService) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.repo.List(dbctx.From(ctx))
	if err != nil {
		return nil, apierr.Internal("item_list_failed", err)
	}
	return rows, nil
}

func (s *itemService) GetByID(ctx context.Context, rawID string) (out *domain.Item, err error) {
	ctx, span := startSpan(ctx, "ItemService.GetByID", attribute.String("item.id", rawID))
	defer func() { endSpan(span, err) }()

	id, ok := parseItemID(rawID)
	if !ok {
		return nil, invalidItemID(rawID)
	}
	key := itemKey(id)
	if cached, hit := s.cache.Get(key); hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return s.withCategory(ctx, cached)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	mark := s.cache.Mark()
	row, err := s.repo.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return nil, apierr.Internal("item_lookup_failed", err)
	}
	if row == nil {
		return nil, itemNotFound(key)
	}
	s.cache.PutIfUnchanged(key, row, mark)
	return s.withCategory(ctx, row)
}

func (s *itemService) GetByName(ctx context.Context, name string) (*domain.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.InvalidArgument("item_name_required", fmt.Errorf("item name is required"))
	}
	row, err := s.repo.GetByName(dbctx.From(ctx), name)
	if err != nil {
		return nil, apierr.Internal("item_lookup_failed", err)
	}
	if row == nil {
		return nil, apierr.NotFound("item_not_found", fmt.Errorf("item %q not found", name))
	}
	return row, nil
}

func (s *itemService) Create(ctx context.Context, in ItemInput) (out *domain.Item, err error) {
	ctx, span := startSpan(ctx, "ItemService.Create")
	defer func() { endSpan(span, err) }()

	dbc := dbctx.From(ctx)

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apierr.InvalidArgument("item_name_required", fmt.Errorf("item name is required"))
	}
	name := strings.TrimSpace(*in.Name)
	if in.Price == nil {
		return nil, apierr.InvalidArgument("item_price_required", fmt.Errorf("item price is required"))
	}
	if err := checkPrice(*in.Price); err != nil {
		return nil, err
	}
	if in.Category == nil {
		return nil, apierr.InvalidArgument("category_required", fmt.Errorf("category name is required"))
	}
	unique, err := s.validator.IsNameUnique(dbc, name)
	if err != nil {
		return nil, apierr.Internal("item_lookup_failed", err)
	}
	if !unique {
		return nil, nameConflict(name)
	}
	cat, err := s.categories.ResolveByName(ctx, *in.Category)
	if err != nil {
		return nil, err
	}

	mark := s.cache.Mark()
	saved, err := s.repo.Save(dbc, &domain.Item{
		Name:       name,
		Price:      *in.Price,
		CategoryID: cat.ID,
		Category:   cat,
	})
	if err != nil {
		return nil, storeError("item_name_conflict", "item_save_failed", err)
	}

	s.refresh(saved, mark)
	s.broadcaster.Publish(ctx, realtime.EntityItems, realtime.OpCreate, saved.Snapshot())
	s.log.Info("item created", append([]interface{}{"item_id", saved.ID, "name", saved.Name}, ctxutil.LogFields(ctx)...)...)
	return saved, nil
}

func (s *itemService) Update(ctx context.Context, rawID string, in ItemInput) (out *domain.Item, err error) {
	ctx, span := startSpan(ctx, "ItemService.Update", attribute.String("item.id", rawID))
	defer func() { endSpan(span, err) }()

	id, ok := parseItemID(rawID)
	if !ok {
		return nil, invalidItemID(rawID)
	}
	dbc := dbctx.From(ctx)
	mark := s.cache.Mark()
	current, err := s.load(dbc, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.InvalidArgument("item_name_required", fmt.Errorf("item name is required"))
		}
		// keeping the current name must not conflict with the record itself
		if name != current.Name {
			unique, err := s.validator.IsNameUnique(dbc, name)
			if err != nil {
				return nil, apierr.Internal("item_lookup_failed", err)
			}
			if !unique {
				return nil, nameConflict(name)
			}
		}
		next.Name = name
	}
	if in.Price != nil {
		if err := checkPrice(*in.Price); err != nil {
			return nil, err
		}
		next.Price = *in.Price
	}
	if in.Category != nil {
		cat, err := s.categories.ResolveByName(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		next.Category = cat
		next.CategoryID = cat.ID
	}

	saved, err := s.repo.Save(dbc, next)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// deleted after load
		s.cache.Evict(current.Key())
		return nil, itemNotFound(current.Key())
	}
	if err != nil {
		return nil, storeError("item_name_conflict", "item_save_failed", err)
	}

	s.refresh(saved, mark)
	s.broadcaster.Publish(ctx, realtime.EntityItems, realtime.OpUpdate, saved.Snapshot())
	return saved, nil
}

func (s *itemService) Delete(ctx context.Context, rawID string) (out *domain.Item, err error) {
	ctx, span := startSpan(ctx, "ItemService.Delete", attribute.String("item.id", rawID))
	defer func() { endSpan(span, err) }()

	id, ok := parseItemID(rawID)
	if !ok {
		return nil, invalidItemID(rawID)
	}
	dbc := dbctx.From(ctx)
	current, err := s.load(dbc, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteByID(dbc, current.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// a concurrent delete won; it owns the DELETE event
			s.cache.Evict(current.Key())
			return nil, itemNotFound(current.Key())
		}
		return nil, apierr.Internal("item_delete_failed", err)
	}

	s.cache.Evict(current.Key())
	s.broadcaster.Publish(ctx, realtime.EntityItems, realtime.OpDelete, current.Snapshot())
	s.log.Info("item deleted", append([]interface{}{"item_id", current.ID}, ctxutil.LogFields(ctx)...)...)
	return current, nil
}

// load reads the persisted row. Mutations merge onto the store's state, not
// the cache's.
func (s *itemService) load(dbc dbctx.Context, id uint64) (*domain.Item, error) {
	row, err := s.repo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("item_lookup_failed", err)
	}
	if row == nil {
		return nil, itemNotFound(itemKey(id))
	}
	return row, nil
}

// refresh caches a freshly saved item unless another writer touched its key
// since mark, in which case the entry is dropped and the next read refills it.
func (s *itemService) refresh(saved *domain.Item, mark uint64) {
	if !s.cache.PutIfUnchanged(saved.Key(), saved, mark) {
		s.cache.Evict(saved.Key())
	}
}

// withCategory attaches the current state of the item's category. Cached
// items carry the category as it was when they were stored.
func (s *itemService) withCategory(ctx context.Context, it *domain.Item) (*domain.Item, error) {
	cat, err := s.categories.ResolveByID(ctx, it.CategoryID)
	if err != nil {
		if apierr.Is(err, apierr.KindNotFound) {
			return nil, apierr.Internal("item_category_missing", err)
		}
		return nil, err
	}
	it.Category = cat
	return it, nil
}

func checkPrice(p float64) error {
	if !domain.ValidPrice(p) {
		return apierr.InvalidArgument("item_price_out_of_range",
			fmt.Errorf("price %v must be between %v and %v", p, domain.MinItemPrice, domain.MaxItemPrice))
	}
	return nil
}

func itemKey(id uint64) string { return strconv.FormatUint(id, 10) }

func invalidItemID(raw string) error {
	return apierr.InvalidArgument("invalid_item_id", fmt.Errorf("invalid item id %q", raw))
}

func itemNotFound(key string) error {
	return apierr.NotFound("item_not_found", fmt.Errorf("item %s not found", key))
}

func nameConflict(name string) error {
	return apierr.Conflict("item_name_conflict", fmt.Errorf("item named %q already exists", name))
}
