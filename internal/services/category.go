package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
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

// CategoryResolver looks up stored categories for the item pipeline.
type CategoryResolver interface {
	ResolveByName(ctx context.Context, name string) (*domain.Category, error)
	// ResolveByID reads through the category cache.
	ResolveByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
}

// CategoryInput carries create and partial-update fields. Nil means unset.
type CategoryInput struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

type CategoryService interface {
	CategoryResolver

	List(ctx context.Context) ([]*domain.Category, error)
	GetByID(ctx context.Context, rawID string) (*domain.Category, error)
	Create(ctx context.Context, in CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, rawID string, in CategoryInput) (*domain.Category, error)
	// Delete deactivates the category. Deactivating an inactive category
	// succeeds and returns it unchanged.
	Delete(ctx context.Context, rawID string) (*domain.Category, error)
}

type categoryService struct {
	log         *logger.Logger
	repo        catalog.CategoryRepo
	validator   *Validator
	cache       *cache.Store[*domain.Category]
	broadcaster Broadcaster
}

func NewCategoryService(
	log *logger.Logger,
	repo catalog.CategoryRepo,
	validator *Validator,
	store *cache.Store[*domain.Category],
	broadcaster Broadcaster,
) CategoryService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &categoryService{
		log:         log.With("service", "CategoryService"),
		repo:        repo,
		validator:   validator,
		cache:       store,
		broadcaster: broadcaster,
	}
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.repo.List(dbctx.From(ctx))
	if err != nil {
		return nil, apierr.Internal("category_list_failed", err)
	}
	return rows, nil
}

func (s *categoryService) GetByID(ctx context.Context, rawID string) (out *domain.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryService.GetByID", attribute.String("category.id", rawID))
	defer func() { endSpan(span, err) }()

	id, ok := parseCategoryID(rawID)
	if !ok {
		return nil, invalidCategoryID(rawID)
	}
	return s.ResolveByID(ctx, id)
}

func (s *categoryService) ResolveByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	key := id.String()
	if cached, hit := s.cache.Get(key); hit {
		return cached, nil
	}
	mark := s.cache.Mark()
	row, err := s.repo.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return nil, apierr.Internal("category_lookup_failed", err)
	}
	if row == nil {
		return nil, categoryNotFound(id)
	}
	s.cache.PutIfUnchanged(key, row, mark)
	return row, nil
}

// ResolveByName finds a category by name regardless of its active flag, so
// items that reference a deactivated category keep resolving.
func (s *categoryService) ResolveByName(ctx context.Context, name string) (*domain.Category, error) {
	norm := domain.NormalizeCategoryName(name)
	if norm == "" {
		return nil, apierr.InvalidArgument("category_required", fmt.Errorf("category name is required"))
	}
	row, err := s.repo.GetByName(dbctx.From(ctx), norm)
	if err != nil {
		return nil, apierr.Internal("category_lookup_failed", err)
	}
	if row == nil {
		return nil, apierr.NotFound("category_not_found", fmt.Errorf("category %s not found", norm))
	}
	return row, nil
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (out *domain.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryService.Create")
	defer func() { endSpan(span, err) }()

	dbc := dbctx.From(ctx)
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apierr.InvalidArgument("category_name_required", fmt.Errorf("category name is required"))
	}
	name := domain.NormalizeCategoryName(*in.Name)
	if !s.validator.IsCategoryNameValid(name) {
		return nil, apierr.InvalidArgument("invalid_category_name", fmt.Errorf("unknown category %q", name))
	}
	unique, err := s.validator.IsCategoryNameUnique(dbc, name)
	if err != nil {
		return nil, apierr.Internal("category_lookup_failed", err)
	}
	if !unique {
		return nil, apierr.Conflict("category_name_conflict", fmt.Errorf("category %s already exists", name))
	}

	row := &domain.Category{Name: name, Active: true}
	if in.Active != nil {
		row.Active = *in.Active
	}
	mark := s.cache.Mark()
	saved, err := s.repo.Save(dbc, row)
	if err != nil {
		return nil, storeError("category_name_conflict", "category_save_failed", err)
	}

	s.refresh(saved, mark)
	s.broadcaster.Publish(ctx, realtime.EntityCategories, realtime.OpCreate, saved.Snapshot())
	s.log.Info("category created", append([]interface{}{"category_id", saved.ID, "name", saved.Name}, ctxutil.LogFields(ctx)...)...)
	return saved, nil
}

func (s *categoryService) Update(ctx context.Context, rawID string, in CategoryInput) (out *domain.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryService.Update", attribute.String("category.id", rawID))
	defer func() { endSpan(span, err) }()

	id, ok := parseCategoryID(rawID)
	if !ok {
		return nil, invalidCategoryID(rawID)
	}
	dbc := dbctx.From(ctx)
	mark := s.cache.Mark()
	current, err := s.load(dbc, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if in.Name != nil {
		name := domain.NormalizeCategoryName(*in.Name)
		if name == "" {
			return nil, apierr.InvalidArgument("category_name_required", fmt.Errorf("category name is required"))
		}
		if !s.validator.IsCategoryNameValid(name) {
			return nil, apierr.InvalidArgument("invalid_category_name", fmt.Errorf("unknown category %q", name))
		}
		if name != current.Name {
			unique, err := s.validator.IsCategoryNameUnique(dbc, name)
			if err != nil {
				return nil, apierr.Internal("category_lookup_failed", err)
			}
			if !unique {
				return nil, apierr.Conflict("category_name_conflict", fmt.Errorf("category %s already exists", name))
			}
		}
		next.Name = name
	}
	if in.Active != nil {
		next.Active = *in.Active
	}

	saved, err := s.repo.Save(dbc, next)
	if err != nil {
		return nil, s.saveError(id, err)
	}

	s.refresh(saved, mark)
	s.broadcaster.Publish(ctx, realtime.EntityCategories, realtime.OpUpdate, saved.Snapshot())
	return saved, nil
}

func (s *categoryService) Delete(ctx context.Context, rawID string) (out *domain.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryService.Delete", attribute.String("category.id", rawID))
	defer func() { endSpan(span, err) }()

	id, ok := parseCategoryID(rawID)
	if !ok {
		return nil, invalidCategoryID(rawID)
	}
	dbc := dbctx.From(ctx)
	mark := s.cache.Mark()
	current, err := s.load(dbc, id)
	if err != nil {
		return nil, err
	}
	before := current.Snapshot()

	result := current
	if current.Active {
		next := current.Clone()
		next.Active = false
		result, err = s.repo.Save(dbc, next)
		if err != nil {
			return nil, s.saveError(id, err)
		}
	}

	s.refresh(result, mark)
	s.broadcaster.Publish(ctx, realtime.EntityCategories, realtime.OpDelete, before)
	s.log.Info("category deactivated", append([]interface{}{"category_id", result.ID, "was_active", before.Active}, ctxutil.LogFields(ctx)...)...)
	return result, nil
}

func (s *categoryService) load(dbc dbctx.Context, id uuid.UUID) (*domain.Category, error) {
	row, err := s.repo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("category_lookup_failed", err)
	}
	if row == nil {
		return nil, categoryNotFound(id)
	}
	return row, nil
}

func (s *categoryService) refresh(saved *domain.Category, mark uint64) {
	key := saved.ID.String()
	if !s.cache.PutIfUnchanged(key, saved, mark) {
		s.cache.Evict(key)
	}
}

func (s *categoryService) saveError(id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.cache.Evict(id.String())
		return categoryNotFound(id)
	}
	return storeError("category_name_conflict", "category_save_failed", err)
}

func invalidCategoryID(raw string) error {
	return apierr.InvalidArgument("invalid_category_id", fmt.Errorf("invalid category id %q", raw))
}

func categoryNotFound(id uuid.UUID) error {
	return apierr.NotFound("category_not_found", fmt.Errorf("category %s not found", id))
}
