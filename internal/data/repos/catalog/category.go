package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/dbctx"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type CategoryRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Category, error)
	GetByName(dbc dbctx.Context, name string) (*catalog.Category, error)
	List(dbc dbctx.Context) ([]*catalog.Category, error)
	Save(dbc dbctx.Context, row *catalog.Category) (*catalog.Category, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Category, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out catalog.Category
	err := r.tx(dbc).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *categoryRepo) GetByName(dbc dbctx.Context, name string) (*catalog.Category, error) {
	if name == "" {
		return nil, nil
	}
	var out catalog.Category
	err := r.tx(dbc).Where("name = ?", name).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *categoryRepo) List(dbc dbctx.Context) ([]*catalog.Category, error) {
	var out []*catalog.Category
	if err := r.tx(dbc).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save inserts the row when it has no ID yet and otherwise writes every column,
// including a false Active flag. Updating a missing row returns
// gorm.ErrRecordNotFound.
func (r *categoryRepo) Save(dbc dbctx.Context, row *catalog.Category) (*catalog.Category, error) {
	if row == nil {
		return nil, errors.New("nil category")
	}
	var err error
	if row.ID == uuid.Nil {
		// the column default turns a zero-valued Active into true on insert
		active := row.Active
		err = r.tx(dbc).Create(row).Error
		if err == nil && !active {
			err = r.tx(dbc).Model(row).Update("active", false).Error
			row.Active = false
		}
	} else {
		res := r.tx(dbc).Model(row).Select("*").Updates(row)
		err = res.Error
		if err == nil && res.RowsAffected == 0 {
			err = gorm.ErrRecordNotFound
		}
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}
