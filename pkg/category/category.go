package category

import "errors"

type Type string

const (
	TypeExpense Type = "expense"
	TypeIncome  Type = "income"
)

var ErrCategoryNotFound = errors.New("category not found")
var ErrSubcategoryNotFound = errors.New("subcategory not found")

func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeExpense, TypeIncome:
		return Type(s), true
	}
	return "", false
}

// Category is either a global reference row (UserId nil) or owned by a single user.
type Category struct {
	Id       int
	Name     string
	Type     Type
	Icon     string
	Color    string
	Keywords []string
	UserId   *int
}

func (c Category) IsGlobal() bool {
	return c.UserId == nil
}

type Subcategory struct {
	Id         int
	CategoryId int
	Name       string
	UserId     *int
}
