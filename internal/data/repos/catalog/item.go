package catalog

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type ItemRepo interface {
	GetByID(dbc dbctx.Context, id uint64) (*catalog.Item, error)
	GetByName(dbc dbctx.Context, name string) (*catalog.Item, error)
	List(dbc dbctx.Context) ([]*catalog.Item, error)

	// Save inserts rows with a zero ID and updates the rest. The returned item
	// is re-read from the store with its category preloaded.
	Save(dbc dbctx.Context, row *catalog.Item) (*catalog.Item, error)
	DeleteByID(dbc dbctx.Context, id uint64) error
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ItemRepo")}
}

func (r *itemRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *itemRepo) GetByID(dbc dbctx.Context, id uint64) (*catalog.Item, error) {
	if id == 0 {
		return nil, nil
	}
	var out catalog.Item
	err := r.tx(dbc).Preload("Category").Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *itemRepo) GetByName(dbc dbctx.Context, name string) (*catalog.Item, error) {
	if name == "" {
		return nil, nil
	}
	var out catalog.Item
	err := r.tx(dbc).Preload("Category").Where("name = ?", name).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *itemRepo) List(dbc dbctx.Context) ([]*catalog.Item, error) {
	var out []*catalog.Item
	if err := r.tx(dbc).Preload("Category").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) Save(dbc dbctx.Context, row *catalog.Item) (*catalog.Item, error) {
	if row == nil {
		return nil, errors.New("nil item")
	}
	if row.Category != nil && row.CategoryID != row.Category.ID {
		row.CategoryID = row.Category.ID
	}
	if row.ID == 0 {
		if err := r.tx(dbc).Omit(clause.Associations).Create(row).Error; err != nil {
			return nil, err
		}
	} else {
		// an update never inserts: a row deleted since it was read stays gone
		res := r.tx(dbc).Model(row).Select("*").Omit(clause.Associations).Updates(row)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	saved, err := r.GetByID(dbc, row.ID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return saved, nil
}

func (r *itemRepo) DeleteByID(dbc dbctx.Context, id uint64) error {
	if id == 0 {
		return nil
	}
	res := r.tx(dbc).Where("id = ?", id).Delete(&catalog.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
