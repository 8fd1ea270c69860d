package budget

import (
	"context"
	"errors"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// GetAll returns the user's budgets, restricted to those covering activeOn when it is set.
	GetAll(ctx context.Context, userId int, activeOn *time.Time) ([]Budget, error)
	Get(ctx context.Context, userId int, id int) (Budget, error)
	Create(ctx context.Context, userId int, budget Budget) (Budget, error)
	Update(ctx context.Context, userId int, budget Budget) (Budget, error)
	Delete(ctx context.Context, userId int, id int) (bool, error)
	// FindConflicts returns budgets of the given categories whose period shares a day with [start, end].
	FindConflicts(ctx context.Context, userId int, categoryIds []int, start time.Time, end time.Time) ([]Budget, error)
	Insights(ctx context.Context, userId int, activeOn *time.Time) ([]Insight, error)
	Insight(ctx context.Context, userId int, id int) (Insight, error)
	// MatchBudget finds the budget of the category covering date, preferring higher priority.
	MatchBudget(ctx context.Context, userId int, categoryId int, date time.Time) (*int, error)
	// FindRolloverCandidates returns, across all users, budgets that ended before today and
	// are the latest budget of their category.
	FindRolloverCandidates(ctx context.Context, today time.Time) ([]Insight, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const budgetColumns = `b.id, b.user_id, b.category_id, b.amount, b.period_start, b.period_end, b.rollover_amount,
	b.allocation_percentage, b.priority, b.created_at`

func budgetFields(b *Budget) []any {
	return []any{
		&b.Id,
		&b.UserId,
		&b.CategoryId,
		&b.Amount,
		&b.PeriodStart,
		&b.PeriodEnd,
		&b.RolloverAmount,
		&b.AllocationPercentage,
		&b.Priority,
		&b.CreatedAt,
	}
}

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(budgetFields(&b)...)
	return b, err
}

func scanInsight(row pgx.Row) (Insight, error) {
	var i Insight
	fields := append(budgetFields(&i.Budget), &i.CategoryName, &i.Spent, &i.ExpenseCount)
	err := row.Scan(fields...)
	return i, err
}

func collectBudgets(rows pgx.Rows) ([]Budget, error) {
	defer rows.Close()
	budgets := make([]Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func collectInsights(rows pgx.Rows) ([]Insight, error) {
	defer rows.Close()
	insights := make([]Insight, 0)
	for rows.Next() {
		i, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, i)
	}
	return insights, rows.Err()
}

func (r *RepositoryImpl) GetAll(ctx context.Context, userId int, activeOn *time.Time) ([]Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets b
				WHERE b.user_id = $1 AND ($2::date IS NULL OR $2::date BETWEEN b.period_start AND b.period_end)
				ORDER BY b.period_start DESC, b.priority, b.id`
	rows, err := r.db.Query(ctx, query, userId, activeOn)
	if err != nil {
		log.Errorf("failed to query budgets: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	budgets, err := collectBudgets(rows)
	if err != nil {
		log.Errorf("failed to read budgets: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	return budgets, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id int) (Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets b WHERE b.id = $1 AND b.user_id = $2`
	b, err := scanBudget(r.db.QueryRow(ctx, query, id, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Budget{}, apperr.NotFound("Budget not found", ErrBudgetNotFound)
	} else if err != nil {
		log.Errorf("failed to get budget: %v", err)
		return Budget{}, apperr.FromDatabase(err)
	}
	return b, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, budget Budget) (Budget, error) {
	query := `INSERT INTO budgets AS b (user_id, category_id, amount, period_start, period_end, rollover_amount,
				allocation_percentage, priority)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING ` + budgetColumns
	created, err := scanBudget(r.db.QueryRow(ctx, query,
		userId,
		budget.CategoryId,
		budget.Amount,
		budget.PeriodStart,
		budget.PeriodEnd,
		budget.RolloverAmount,
		budget.AllocationPercentage,
		budget.Priority,
	))
	if err != nil {
		log.Errorf("failed to create budget: %v", err)
		return Budget{}, apperr.FromDatabase(err)
	}
	return created, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, budget Budget) (Budget, error) {
	query := `UPDATE budgets AS b SET
				category_id = $3,
				amount = $4,
				period_start = $5,
				period_end = $6,
				rollover_amount = $7,
				allocation_percentage = $8,
				priority = $9
				WHERE b.id = $1 AND b.user_id = $2
				RETURNING ` + budgetColumns
	updated, err := scanBudget(r.db.QueryRow(ctx, query,
		budget.Id,
		userId,
		budget.CategoryId,
		budget.Amount,
		budget.PeriodStart,
		budget.PeriodEnd,
		budget.RolloverAmount,
		budget.AllocationPercentage,
		budget.Priority,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Warnf("budget not updated, probably because it does not exist (%d) or the user (%d) is not the owner", budget.Id, userId)
		return Budget{}, apperr.NotFound("Budget not found", ErrBudgetNotFound)
	} else if err != nil {
		log.Errorf("failed to update budget: %v", err)
		return Budget{}, apperr.FromDatabase(err)
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) (bool, error) {
	result, err := r.db.Exec(ctx, "DELETE FROM budgets WHERE id = $1 AND user_id = $2", id, userId)
	if err != nil {
		log.Errorf("failed to delete budget: %v", err)
		return false, apperr.FromDatabase(err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) FindConflicts(ctx context.Context, userId int, categoryIds []int, start time.Time, end time.Time) ([]Budget, error) {
	if len(categoryIds) == 0 {
		return []Budget{}, nil
	}
	query := `SELECT ` + budgetColumns + ` FROM budgets b
				WHERE b.user_id = $1 AND b.category_id = ANY($2) AND b.period_start <= $4 AND b.period_end >= $3
				ORDER BY b.category_id, b.period_start`
	rows, err := r.db.Query(ctx, query, userId, categoryIds, start, end)
	if err != nil {
		log.Errorf("failed to query conflicting budgets: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	budgets, err := collectBudgets(rows)
	if err != nil {
		log.Errorf("failed to read conflicting budgets: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	return budgets, nil
}

const insightColumns = budgetColumns + `, i.category_name, i.spent, i.expense_count`

func (r *RepositoryImpl) Insights(ctx context.Context, userId int, activeOn *time.Time) ([]Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM budget_insights i JOIN budgets b ON b.id = i.budget_id
				WHERE i.user_id = $1 AND ($2::date IS NULL OR $2::date BETWEEN i.period_start AND i.period_end)
				ORDER BY i.priority, i.spent DESC, b.id`
	rows, err := r.db.Query(ctx, query, userId, activeOn)
	if err != nil {
		log.Errorf("failed to query budget insights: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	insights, err := collectInsights(rows)
	if err != nil {
		log.Errorf("failed to read budget insights: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	return insights, nil
}

func (r *RepositoryImpl) Insight(ctx context.Context, userId int, id int) (Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM budget_insights i JOIN budgets b ON b.id = i.budget_id
				WHERE i.budget_id = $1 AND i.user_id = $2`
	insight, err := scanInsight(r.db.QueryRow(ctx, query, id, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Insight{}, apperr.NotFound("Budget not found", ErrBudgetNotFound)
	} else if err != nil {
		log.Errorf("failed to get budget insight: %v", err)
		return Insight{}, apperr.FromDatabase(err)
	}
	return insight, nil
}

func (r *RepositoryImpl) MatchBudget(ctx context.Context, userId int, categoryId int, date time.Time) (*int, error) {
	query := `SELECT id FROM budgets
				WHERE user_id = $1 AND category_id = $2 AND $3::date BETWEEN period_start AND period_end
				ORDER BY priority, period_start DESC, id
				LIMIT 1`
	var id int
	err := r.db.QueryRow(ctx, query, userId, categoryId, date).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		log.Errorf("failed to match budget: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	return &id, nil
}

func (r *RepositoryImpl) FindRolloverCandidates(ctx context.Context, today time.Time) ([]Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM budget_insights i JOIN budgets b ON b.id = i.budget_id
				WHERE b.period_end < $1
				AND NOT EXISTS (
					SELECT 1 FROM budgets n
					WHERE n.user_id = b.user_id AND n.category_id = b.category_id
					AND (n.period_end > b.period_end OR (n.period_end = b.period_end AND n.id > b.id))
				)
				ORDER BY b.user_id, b.id`
	rows, err := r.db.Query(ctx, query, today)
	if err != nil {
		log.Errorf("failed to query rollover candidates: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	insights, err := collectInsights(rows)
	if err != nil {
		log.Errorf("failed to read rollover candidates: %v", err)
		return nil, apperr.FromDatabase(err)
	}
	return insights, nil
}
