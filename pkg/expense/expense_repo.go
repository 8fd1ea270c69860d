package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Create(ctx context.Context, userId int, expense Expense) (Expense, error)
	Get(ctx context.Context, userId int, id int) (Expense, error)
	List(ctx context.Context, userId int, query Query) ([]Expense, error)
	Update(ctx context.Context, userId int, expense Expense) (Expense, error)
	Delete(ctx context.Context, userId int, id int) (bool, error)
	MarkReviewed(ctx context.Context, userId int, id int) (Expense, error)
	// AssignBudget links unassigned expenses of the category dated within [start, end] to the budget.
	AssignBudget(ctx context.Context, userId int, budgetId int, categoryId int, start time.Time, end time.Time) (int, error)
	TotalsByCategory(ctx context.Context, userId int, from time.Time, to time.Time) ([]CategoryTotal, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const expenseColumns = `id, user_id, type, amount, currency, description, date, category_id, subcategory_id,
	payment_method, tags, source, source_metadata, confidence_score, needs_review, budget_id, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(
		&e.Id,
		&e.UserId,
		&e.Type,
		&e.Amount,
		&e.Currency,
		&e.Description,
		&e.Date,
		&e.CategoryId,
		&e.SubcategoryId,
		&e.PaymentMethod,
		&e.Tags,
		&e.Source,
		&e.SourceMetadata,
		&e.ConfidenceScore,
		&e.NeedsReview,
		&e.BudgetId,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, e Expense) (Expense, error) {
	query := `INSERT INTO expenses (user_id, type, amount, currency, description, date, category_id, subcategory_id,
				payment_method, tags, source, source_metadata, confidence_score, needs_review, budget_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
				RETURNING ` + expenseColumns
	created, err := scanExpense(r.db.QueryRow(ctx, query,
		userId,
		e.Type,
		e.Amount,
		e.Currency,
		e.Description,
		e.Date,
		e.CategoryId,
		e.SubcategoryId,
		e.PaymentMethod,
		nonNilTags(e.Tags),
		e.Source,
		nonNilMetadata(e.SourceMetadata),
		e.ConfidenceScore,
		e.NeedsReview,
		e.BudgetId,
	))
	if err != nil {
		log.Errorf("failed to create expense: %v", err)
		return Expense{}, apperr.FromDatabase(err)
	}
	return created, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id int) (Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2`
	e, err := scanExpense(r.db.QueryRow(ctx, query, id, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, apperr.NotFound("Expense not found", ErrExpenseNotFound)
	} else if err != nil {
		log.Errorf("failed to get expense: %v", err)
		return Expense{}, apperr.FromDatabase(err)
	}
	return e, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int, q Query) ([]Expense, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userId}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Type != nil {
		conditions = append(conditions, "type = "+arg(*q.Type))
	}
	if q.CategoryId != nil {
		conditions = append(conditions, "category_id = "+arg(*q.CategoryId))
	}
	if q.NeedsReview != nil {
		conditions = append(conditions, "needs_review = "+arg(*q.NeedsReview))
	}
	switch {
	case q.From != nil && q.To != nil:
		conditions = append(conditions, "date BETWEEN "+arg(*q.From)+" AND "+arg(*q.To))
	case q.From != nil:
		conditions = append(conditions, "date >= "+arg(*q.From))
	case q.To != nil:
		conditions = append(conditions, "date <= "+arg(*q.To))
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY date DESC, id DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to list expenses: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0, 32)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			log.Errorf("failed to scan expense: %v", err)
			return nil, apperr.FromDatabase(err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over expenses: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	return expenses, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, e Expense) (Expense, error) {
	query := `UPDATE expenses SET amount = $1, currency = $2, description = $3, date = $4, category_id = $5,
				subcategory_id = $6, payment_method = $7, tags = $8, needs_review = $9, budget_id = $10, updated_at = now()
				WHERE id = $11 AND user_id = $12
				RETURNING ` + expenseColumns
	updated, err := scanExpense(r.db.QueryRow(ctx, query,
		e.Amount,
		e.Currency,
		e.Description,
		e.Date,
		e.CategoryId,
		e.SubcategoryId,
		e.PaymentMethod,
		nonNilTags(e.Tags),
		e.NeedsReview,
		e.BudgetId,
		e.Id,
		userId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, apperr.NotFound("Expense not found", ErrExpenseNotFound)
	} else if err != nil {
		log.Errorf("failed to update expense: %v", err)
		return Expense{}, apperr.FromDatabase(err)
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		log.Errorf("failed to delete expense: %v", err)
		return false, apperr.FromDatabase(err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) MarkReviewed(ctx context.Context, userId int, id int) (Expense, error) {
	query := `UPDATE expenses SET needs_review = FALSE, updated_at = now() WHERE id = $1 AND user_id = $2
				RETURNING ` + expenseColumns
	e, err := scanExpense(r.db.QueryRow(ctx, query, id, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, apperr.NotFound("Expense not found", ErrExpenseNotFound)
	} else if err != nil {
		log.Errorf("failed to mark expense as reviewed: %v", err)
		return Expense{}, apperr.FromDatabase(err)
	}
	return e, nil
}

func (r *RepositoryImpl) AssignBudget(ctx context.Context, userId int, budgetId int, categoryId int, start time.Time, end time.Time) (int, error) {
	query := `UPDATE expenses SET budget_id = $1, updated_at = now()
				WHERE user_id = $2 AND type = 'expense' AND category_id = $3 AND budget_id IS NULL
				AND date BETWEEN $4 AND $5`
	result, err := r.db.Exec(ctx, query, budgetId, userId, categoryId, start, end)
	if err != nil {
		log.Errorf("failed to assign expenses to budget %d: %v", budgetId, err)
		return 0, apperr.FromDatabase(err)
	}
	return int(result.RowsAffected()), nil
}

func (r *RepositoryImpl) TotalsByCategory(ctx context.Context, userId int, from time.Time, to time.Time) ([]CategoryTotal, error) {
	query := `SELECT e.type, e.category_id, c.name, SUM(e.amount), COUNT(*)
				FROM expenses e JOIN categories c ON c.id = e.category_id
				WHERE e.user_id = $1 AND e.date BETWEEN $2 AND $3
				GROUP BY e.type, e.category_id, c.name
				ORDER BY SUM(e.amount) DESC, c.name`
	rows, err := r.db.Query(ctx, query, userId, from, to)
	if err != nil {
		log.Errorf("failed to sum expenses: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	defer rows.Close()

	totals := make([]CategoryTotal, 0, 16)
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.Type, &t.CategoryId, &t.CategoryName, &t.Total, &t.Count); err != nil {
			log.Errorf("failed to scan category total: %v", err)
			return nil, apperr.FromDatabase(err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDatabase(err)
	}
	return totals, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nonNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
