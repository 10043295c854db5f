package services

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/yungbote/catalog-backend/internal/data/repos/catalog"
	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/dbctx"
)

// Validator answers the pure and lookup-backed checks the mutation pipeline
// runs before touching the store.
type Validator struct {
	items      catalog.ItemRepo
	categories catalog.CategoryRepo
}

func NewValidator(items catalog.ItemRepo, categories catalog.CategoryRepo) *Validator {
	return &Validator{items: items, categories: categories}
}

// IsIDValid reports whether raw is a base-10 unsigned item id. No I/O.
func (v *Validator) IsIDValid(raw string) bool {
	_, ok := parseItemID(raw)
	return ok
}

// IsNameUnique reports whether no item currently carries name. The error is
// non-nil only when the lookup itself failed.
func (v *Validator) IsNameUnique(dbc dbctx.Context, name string) (bool, error) {
	found, err := v.items.GetByName(dbc, name)
	if err != nil {
		return false, err
	}
	return found == nil, nil
}

func (v *Validator) IsCategoryIDValid(raw string) bool {
	_, ok := parseCategoryID(raw)
	return ok
}

// IsCategoryNameValid reports whether name is one of the known category kinds.
func (v *Validator) IsCategoryNameValid(name string) bool {
	return domain.IsCategoryKind(name)
}

func (v *Validator) IsCategoryNameUnique(dbc dbctx.Context, name string) (bool, error) {
	found, err := v.categories.GetByName(dbc, domain.NormalizeCategoryName(name))
	if err != nil {
		return false, err
	}
	return found == nil, nil
}

func parseItemID(raw string) (uint64, bool) {
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseCategoryID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
