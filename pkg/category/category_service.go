package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/pkg/user"
)

type Service interface {
	ListCategories(ctx context.Context, categoryType *Type) ([]Category, error)
	GetCategory(ctx context.Context, id int) (Category, error)
	CreateCategory(ctx context.Context, category Category) (Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListSubcategories(ctx context.Context, categoryId int) ([]Subcategory, error)
	CreateSubcategory(ctx context.Context, subcategory Subcategory) (Subcategory, error)
	SubcategoryBelongsTo(ctx context.Context, subcategoryId int, categoryId int) (bool, error)
	Suggest(ctx context.Context, description string, categoryType Type) (Suggestion, bool, error)
}

type ServiceImpl struct {
	repo        Repository
	categorizer *Categorizer
}

func NewService(repo Repository, categorizer *Categorizer) *ServiceImpl {
	return &ServiceImpl{repo: repo, categorizer: categorizer}
}

func (s *ServiceImpl) ListCategories(ctx context.Context, categoryType *Type) ([]Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ListCategories(ctx, userId, categoryType)
}

func (s *ServiceImpl) GetCategory(ctx context.Context, id int) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetCategory(ctx, userId, id)
}

func (s *ServiceImpl) CreateCategory(ctx context.Context, category Category) (Category, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Category{}, fmt.Errorf("failed to get current user: %w", err)
	}

	category.Name = strings.TrimSpace(category.Name)
	fields := map[string]string{}
	if category.Name == "" {
		fields["name"] = "is required"
	}
	if _, ok := ParseType(string(category.Type)); !ok {
		fields["type"] = "must be expense or income"
	}
	if len(fields) > 0 {
		return Category{}, apperr.Validation("Invalid category", fields)
	}
	return s.repo.CreateCategory(ctx, userId, category)
}

func (s *ServiceImpl) DeleteCategory(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.DeleteCategory(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		// global categories are shared and never deleted by a user
		return apperr.NotFound("Category not found", ErrCategoryNotFound)
	}
	return nil
}

func (s *ServiceImpl) ListSubcategories(ctx context.Context, categoryId int) ([]Subcategory, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.repo.GetCategory(ctx, userId, categoryId); err != nil {
		return nil, err
	}
	return s.repo.ListSubcategories(ctx, userId, categoryId)
}

func (s *ServiceImpl) CreateSubcategory(ctx context.Context, subcategory Subcategory) (Subcategory, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Subcategory{}, fmt.Errorf("failed to get current user: %w", err)
	}
	subcategory.Name = strings.TrimSpace(subcategory.Name)
	if subcategory.Name == "" {
		return Subcategory{}, apperr.Validation("Invalid subcategory", map[string]string{"name": "is required"})
	}
	if _, err := s.repo.GetCategory(ctx, userId, subcategory.CategoryId); err != nil {
		return Subcategory{}, err
	}
	return s.repo.CreateSubcategory(ctx, userId, subcategory)
}

func (s *ServiceImpl) SubcategoryBelongsTo(ctx context.Context, subcategoryId int, categoryId int) (bool, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current user: %w", err)
	}
	sub, err := s.repo.GetSubcategory(ctx, userId, subcategoryId)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.CategoryId == categoryId, nil
}

func (s *ServiceImpl) Suggest(ctx context.Context, description string, categoryType Type) (Suggestion, bool, error) {
	categories, err := s.ListCategories(ctx, &categoryType)
	if err != nil {
		return Suggestion{}, false, err
	}
	suggestion, ok := s.categorizer.Suggest(description, categories)
	return suggestion, ok, nil
}
