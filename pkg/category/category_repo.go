package category

import (
	"context"
	"errors"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// ListCategories returns global categories plus the user's own. A nil type lists both types.
	ListCategories(ctx context.Context, userId int, categoryType *Type) ([]Category, error)
	GetCategory(ctx context.Context, userId int, id int) (Category, error)
	CreateCategory(ctx context.Context, userId int, category Category) (Category, error)
	DeleteCategory(ctx context.Context, userId int, id int) (bool, error)
	ListSubcategories(ctx context.Context, userId int, categoryId int) ([]Subcategory, error)
	GetSubcategory(ctx context.Context, userId int, id int) (Subcategory, error)
	CreateSubcategory(ctx context.Context, userId int, subcategory Subcategory) (Subcategory, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const categoryColumns = `id, name, type, icon, color, keywords, user_id`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.Id, &c.Name, &c.Type, &c.Icon, &c.Color, &c.Keywords, &c.UserId)
	return c, err
}

func (r *RepositoryImpl) ListCategories(ctx context.Context, userId int, categoryType *Type) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
				WHERE (user_id IS NULL OR user_id = $1) AND ($2::text IS NULL OR type = $2)
				ORDER BY user_id NULLS FIRST, name`
	rows, err := r.db.Query(ctx, query, userId, categoryType)
	if err != nil {
		log.Errorf("failed to list categories: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	defer rows.Close()

	categories := make([]Category, 0, 16)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			log.Errorf("failed to scan category: %v", err)
			return nil, apperr.FromDatabase(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over categories: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	return categories, nil
}

func (r *RepositoryImpl) GetCategory(ctx context.Context, userId int, id int) (Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND (user_id IS NULL OR user_id = $2)`
	c, err := scanCategory(r.db.QueryRow(ctx, query, id, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, apperr.NotFound("Category not found", ErrCategoryNotFound)
	} else if err != nil {
		log.Errorf("failed to get category: %v", err)
		return Category{}, apperr.FromDatabase(err)
	}
	return c, nil
}

func (r *RepositoryImpl) CreateCategory(ctx context.Context, userId int, category Category) (Category, error) {
	if category.Keywords == nil {
		category.Keywords = []string{}
	}
	query := `INSERT INTO categories (name, type, icon, color, keywords, user_id) VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING ` + categoryColumns
	created, err := scanCategory(r.db.QueryRow(ctx, query,
		category.Name, category.Type, category.Icon, category.Color, category.Keywords, userId))
	if err != nil {
		log.Errorf("failed to create category: %v", err)
		return Category{}, apperr.FromDatabase(err)
	}
	return created, nil
}

func (r *RepositoryImpl) DeleteCategory(ctx context.Context, userId int, id int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		log.Errorf("failed to delete category: %v", err)
		return false, apperr.FromDatabase(err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) ListSubcategories(ctx context.Context, userId int, categoryId int) ([]Subcategory, error) {
	query := `SELECT id, category_id, name, user_id FROM subcategories
				WHERE category_id = $1 AND (user_id IS NULL OR user_id = $2) ORDER BY name`
	rows, err := r.db.Query(ctx, query, categoryId, userId)
	if err != nil {
		log.Errorf("failed to list subcategories: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	defer rows.Close()

	subcategories := make([]Subcategory, 0, 8)
	for rows.Next() {
		var s Subcategory
		if err := rows.Scan(&s.Id, &s.CategoryId, &s.Name, &s.UserId); err != nil {
			log.Errorf("failed to scan subcategory: %v", err)
			return nil, apperr.FromDatabase(err)
		}
		subcategories = append(subcategories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDatabase(err)
	}
	return subcategories, nil
}

func (r *RepositoryImpl) GetSubcategory(ctx context.Context, userId int, id int) (Subcategory, error) {
	query := `SELECT id, category_id, name, user_id FROM subcategories WHERE id = $1 AND (user_id IS NULL OR user_id = $2)`
	var s Subcategory
	err := r.db.QueryRow(ctx, query, id, userId).Scan(&s.Id, &s.CategoryId, &s.Name, &s.UserId)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subcategory{}, apperr.NotFound("Subcategory not found", ErrSubcategoryNotFound)
	} else if err != nil {
		log.Errorf("failed to get subcategory: %v", err)
		return Subcategory{}, apperr.FromDatabase(err)
	}
	return s, nil
}

func (r *RepositoryImpl) CreateSubcategory(ctx context.Context, userId int, subcategory Subcategory) (Subcategory, error) {
	query := `INSERT INTO subcategories (category_id, name, user_id) VALUES ($1, $2, $3)
				RETURNING id, category_id, name, user_id`
	var s Subcategory
	err := r.db.QueryRow(ctx, query, subcategory.CategoryId, subcategory.Name, userId).
		Scan(&s.Id, &s.CategoryId, &s.Name, &s.UserId)
	if err != nil {
		log.Errorf("failed to create subcategory: %v", err)
		return Subcategory{}, apperr.FromDatabase(err)
	}
	return s, nil
}
