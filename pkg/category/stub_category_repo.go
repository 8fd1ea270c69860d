package category

import (
	"context"
	"slices"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
)

type StubRepository struct {
	nextId        int
	categories    []Category
	subcategories []Subcategory
}

// NewStubRepository returns a repository holding the given global categories.
func NewStubRepository(global ...Category) *StubRepository {
	stub := &StubRepository{nextId: 100}
	for _, c := range global {
		c.UserId = nil
		stub.categories = append(stub.categories, c)
	}
	return stub
}

func visible(owner *int, userId int) bool {
	return owner == nil || *owner == userId
}

func (s *StubRepository) ListCategories(ctx context.Context, userId int, categoryType *Type) ([]Category, error) {
	result := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		if visible(c.UserId, userId) && (categoryType == nil || c.Type == *categoryType) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *StubRepository) GetCategory(ctx context.Context, userId int, id int) (Category, error) {
	for _, c := range s.categories {
		if c.Id == id && visible(c.UserId, userId) {
			return c, nil
		}
	}
	return Category{}, apperr.NotFound("Category not found", ErrCategoryNotFound)
}

func (s *StubRepository) CreateCategory(ctx context.Context, userId int, category Category) (Category, error) {
	s.nextId++
	category.Id = s.nextId
	category.UserId = &userId
	s.categories = append(s.categories, category)
	return category, nil
}

func (s *StubRepository) DeleteCategory(ctx context.Context, userId int, id int) (bool, error) {
	before := len(s.categories)
	s.categories = slices.DeleteFunc(s.categories, func(c Category) bool {
		return c.Id == id && c.UserId != nil && *c.UserId == userId
	})
	return len(s.categories) < before, nil
}

func (s *StubRepository) ListSubcategories(ctx context.Context, userId int, categoryId int) ([]Subcategory, error) {
	result := make([]Subcategory, 0)
	for _, sub := range s.subcategories {
		if sub.CategoryId == categoryId && visible(sub.UserId, userId) {
			result = append(result, sub)
		}
	}
	return result, nil
}

func (s *StubRepository) GetSubcategory(ctx context.Context, userId int, id int) (Subcategory, error) {
	for _, sub := range s.subcategories {
		if sub.Id == id && visible(sub.UserId, userId) {
			return sub, nil
		}
	}
	return Subcategory{}, apperr.NotFound("Subcategory not found", ErrSubcategoryNotFound)
}

func (s *StubRepository) CreateSubcategory(ctx context.Context, userId int, subcategory Subcategory) (Subcategory, error) {
	s.nextId++
	subcategory.Id = s.nextId
	subcategory.UserId = &userId
	s.subcategories = append(s.subcategories, subcategory)
	return subcategory, nil
}
