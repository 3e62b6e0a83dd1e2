package domain

import (
	"encoding/json"
	"math"
	"time"

	"sportsequip/internal/pkg/apperr"
)

type Category string

const (
	CategoryFootball    Category = "Football"
	CategoryBasketball  Category = "Basketball"
	CategoryCricket     Category = "Cricket"
	CategoryTennis      Category = "Tennis"
	CategoryBadminton   Category = "Badminton"
	CategoryVolleyball  Category = "Volleyball"
	CategoryHockey      Category = "Hockey"
	CategoryAthletics   Category = "Athletics"
	CategorySwimming    Category = "Swimming"
	CategoryGym         Category = "Gym"
	CategoryTableTennis Category = "Table Tennis"
	CategorySquash      Category = "Squash"
	CategoryRugby       Category = "Rugby"
	CategoryBaseball    Category = "Baseball"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryFootball, CategoryBasketball, CategoryCricket, CategoryTennis,
	CategoryBadminton, CategoryVolleyball, CategoryHockey, CategoryAthletics,
	CategorySwimming, CategoryGym, CategoryTableTennis, CategorySquash,
	CategoryRugby, CategoryBaseball, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Condition string

const (
	ConditionNew       Condition = "New"
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionPoor      Condition = "Poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

var (
	ErrNotAvailable     = apperr.Business("Equipment not available in requested quantity")
	ErrInvalidQuantity  = apperr.Business("Quantity must be at least 1")
	ErrReturnExceeds    = apperr.Business("Return quantity exceeds borrowed quantity")
	ErrQuantityMismatch = apperr.Validation("Quantity counters must add up to total")
)

// Quantity holds the inventory counters. Available+Borrowed+Damaged == Total.
type Quantity struct {
	Total     int `json:"total" gorm:"not null"`
	Available int `json:"available" gorm:"not null"`
	Borrowed  int `json:"borrowed" gorm:"not null"`
	Damaged   int `json:"damaged" gorm:"not null"`
}

func NewQuantity(total int) Quantity {
	return Quantity{Total: total, Available: total}
}

func (q Quantity) Consistent() bool {
	if q.Total < 0 || q.Available < 0 || q.Borrowed < 0 || q.Damaged < 0 {
		return false
	}
	return q.Available+q.Borrowed+q.Damaged == q.Total
}

type Specifications struct {
	Size      string    `json:"size,omitempty"`
	Weight    string    `json:"weight,omitempty"`
	Material  string    `json:"material,omitempty"`
	Color     string    `json:"color,omitempty"`
	Condition Condition `json:"condition"`
}

type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
}

type Location struct {
	Building string `json:"building,omitempty"`
	Room     string `json:"room,omitempty"`
	Shelf    string `json:"shelf,omitempty"`
	Rack     string `json:"rack,omitempty"`
}

type Usage struct {
	TotalBorrows int        `json:"totalBorrows" gorm:"not null;default:0"`
	TotalDays    int        `json:"totalDays" gorm:"not null;default:0"`
	LastBorrowed *time.Time `json:"lastBorrowed,omitempty"`
}

type Equipment struct {
	ID             int64          `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"size:100;not null;index"`
	Description    string         `json:"description" gorm:"size:500;not null"`
	Category       Category       `json:"category" gorm:"size:32;not null;index"`
	Subcategory    string         `json:"subcategory,omitempty" gorm:"size:100"`
	Brand          string         `json:"brand,omitempty" gorm:"size:100"`
	Model          string         `json:"model,omitempty" gorm:"size:100"`
	Specifications Specifications `json:"specifications" gorm:"type:text;serializer:json"`
	Quantity       Quantity       `json:"quantity" gorm:"embedded;embeddedPrefix:qty_"`
	Images         []Image        `json:"images" gorm:"type:text;serializer:json"`
	Location       Location       `json:"location" gorm:"type:text;serializer:json"`
	Tags           []string       `json:"tags" gorm:"type:text;serializer:json"`
	Barcode        string         `json:"barcode,omitempty" gorm:"size:64"`
	Usage          Usage          `json:"usage" gorm:"embedded;embeddedPrefix:usage_"`
	IsActive       bool           `json:"isActive" gorm:"not null;index"`
	IsNewArrival   bool           `json:"isNewArrival" gorm:"not null"`
	CreatedBy      *int64         `json:"createdBy,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (Equipment) TableName() string { return "equipment" }

// IsAvailable reports whether qty units can be lent out right now.
func (e *Equipment) IsAvailable(qty int) bool {
	return e.IsActive && qty > 0 && e.Quantity.Available >= qty
}

// Borrow moves qty units from available to borrowed.
func (e *Equipment) Borrow(qty int, now time.Time) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if !e.IsAvailable(qty) {
		return ErrNotAvailable
	}
	e.Quantity.Available -= qty
	e.Quantity.Borrowed += qty
	e.Usage.TotalBorrows += qty
	e.Usage.LastBorrowed = &now
	return nil
}

// Return moves qty borrowed units back to available, or to damaged.
func (e *Equipment) Return(qty int, damaged bool) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if e.Quantity.Borrowed < qty {
		return ErrReturnExceeds
	}
	e.Quantity.Borrowed -= qty
	if damaged {
		e.Quantity.Damaged += qty
	} else {
		e.Quantity.Available += qty
	}
	return nil
}

const (
	AvailabilityOutOfStock = "Out of Stock"
	AvailabilityLowStock   = "Low Stock"
	AvailabilityAvailable  = "Available"
)

func (e *Equipment) AvailabilityStatus() string {
	q := e.Quantity
	switch {
	case q.Available <= 0:
		return AvailabilityOutOfStock
	case float64(q.Available) <= float64(q.Total)*0.2:
		return AvailabilityLowStock
	default:
		return AvailabilityAvailable
	}
}

func (e *Equipment) ConditionPercentage() int {
	if e.Quantity.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(e.Quantity.Total-e.Quantity.Damaged) / float64(e.Quantity.Total) * 100))
}

func (e *Equipment) PrimaryImage() *Image {
	for i := range e.Images {
		if e.Images[i].IsPrimary {
			return &e.Images[i]
		}
	}
	if len(e.Images) > 0 {
		return &e.Images[0]
	}
	return nil
}

func (e Equipment) MarshalJSON() ([]byte, error) {
	type plain Equipment
	return json.Marshal(struct {
		plain
		AvailabilityStatus  string `json:"availabilityStatus"`
		ConditionPercentage int    `json:"conditionPercentage"`
	}{
		plain:               plain(e),
		AvailabilityStatus:  e.AvailabilityStatus(),
		ConditionPercentage: e.ConditionPercentage(),
	})
}
