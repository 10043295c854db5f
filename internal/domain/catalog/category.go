package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Known category kinds. Category names are stored upper-cased.
const (
	CategorySerie       = "SERIE"
	CategoryDisney      = "DISNEY"
	CategorySuperheroes = "SUPERHEROES"
	CategoryPelicula    = "PELICULA"
	CategoryOtros       = "OTROS"
)

var categoryKinds = map[string]struct{}{
	CategorySerie:       {},
	CategoryDisney:      {},
	CategorySuperheroes: {},
	CategoryPelicula:    {},
	CategoryOtros:       {},
}

// IsCategoryKind reports whether name (case-insensitive) is a known category kind.
func IsCategoryKind(name string) bool {
	_, ok := categoryKinds[NormalizeCategoryName(name)]
	return ok
}

func NormalizeCategoryName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Category groups items. Deleting a category deactivates it; the row stays so
// items referencing it keep resolving.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex" json:"name"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Category) TableName() string { return "category" }

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// CategorySnapshot is the view of a category carried by change events.
type CategorySnapshot struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

func (c *Category) Snapshot() CategorySnapshot {
	if c == nil {
		return CategorySnapshot{}
	}
	return CategorySnapshot{
		ID:        c.ID,
		Name:      c.Name,
		Active:    c.Active,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
