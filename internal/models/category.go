package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. A nil UserID marks a category
// shared by every user.
type Category struct {
	Base
	UserID *string      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name   string       `gorm:"not null" json:"name"`
	Type   CategoryType `gorm:"not null" json:"type"`
	Icon   string       `json:"icon"`
	Color  string       `json:"color"`
}

func (Category) TableName() string { return "categories" }

// VisibleTo reports whether uid may see the category.
func (c *Category) VisibleTo(uid string) bool { return ownedBy(c.UserID, uid) }

// Owner returns the owning user id, or "" for shared categories.
func (c *Category) Owner() string {
	if c.UserID == nil {
		return ""
	}
	return *c.UserID
}

// SetOwner assigns the owning user.
func (c *Category) SetOwner(uid string) { c.UserID = StringPtr(uid) }
