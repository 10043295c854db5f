package catalog

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	MinItemPrice = 0.0
	MaxItemPrice = 50.0
)

// Item is a catalog entry. IDs are assigned by the store and never change.
type Item struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;type:text;not null;uniqueIndex" json:"name"`
	Price      float64   `gorm:"column:price;not null" json:"price"`
	CategoryID uuid.UUID `gorm:"type:uuid;column:category_id;not null;index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Item) TableName() string { return "item" }

// Key is the cache key for the item.
func (i *Item) Key() string {
	return strconv.FormatUint(i.ID, 10)
}

// Clone deep-copies the item including its category reference.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	cp.Category = i.Category.Clone()
	return &cp
}

// ItemSnapshot is the view of an item carried by change events.
type ItemSnapshot struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func (i *Item) Snapshot() ItemSnapshot {
	if i == nil {
		return ItemSnapshot{}
	}
	s := ItemSnapshot{
		ID:        i.ID,
		Name:      i.Name,
		Price:     i.Price,
		CreatedAt: formatTime(i.CreatedAt),
		UpdatedAt: formatTime(i.UpdatedAt),
	}
	if i.Category != nil {
		s.Category = i.Category.Name
	}
	return s
}

// ValidPrice reports whether p lies in the inclusive price bounds.
func ValidPrice(p float64) bool {
	return p >= MinItemPrice && p <= MaxItemPrice
}
