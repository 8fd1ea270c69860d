package budget

import (
	"context"

	"github.com/elmerescandon/financy-v2-sub000/internal/event_bus"
	"github.com/elmerescandon/financy-v2-sub000/pkg/notification"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// AlertNotifier watches spending against budgets and publishes an alert when a budget
// crosses the warning threshold or its total.
type AlertNotifier struct {
	repo          Repository
	publisher     notification.Publisher
	warnThreshold decimal.Decimal
}

func NewAlertNotifier(repo Repository, publisher notification.Publisher, warnThreshold float64) *AlertNotifier {
	return &AlertNotifier{
		repo:          repo,
		publisher:     publisher,
		warnThreshold: decimal.NewFromFloat(warnThreshold),
	}
}

// Subscribe registers the notifier on the bus and returns a function removing it.
func (n *AlertNotifier) Subscribe(bus *event_bus.EventBus) func() {
	unsubscribeExpense := event_bus.SubscribeTyped(bus, event_bus.ExpenseCreatedType,
		func(e event_bus.EventT[event_bus.ExpenseCreated]) error {
			if e.Data.Type != "expense" || e.Data.BudgetId == nil {
				return nil
			}
			return n.check(e.Context(), e.Data.UserId, *e.Data.BudgetId, e.Data.Amount)
		})
	unsubscribeBudget := event_bus.SubscribeTyped(bus, event_bus.BudgetCreatedType,
		func(e event_bus.EventT[event_bus.BudgetCreated]) error {
			return n.check(e.Context(), e.Data.UserId, e.Data.BudgetId, decimal.Zero)
		})
	return func() {
		unsubscribeExpense()
		unsubscribeBudget()
	}
}

// check compares the budget before and after added was spent. A brand-new budget counts as
// nothing spent before.
func (n *AlertNotifier) check(ctx context.Context, userId int, budgetId int, added decimal.Decimal) error {
	insight, err := n.repo.Insight(ctx, userId, budgetId)
	if err != nil {
		return err
	}
	before := insight.Spent.Sub(added)
	if added.IsZero() {
		before = decimal.Zero
	}

	level, ok := n.crossedLevel(insight.Total(), before, insight.Spent)
	if !ok {
		return nil
	}
	log.Debugf("budget %d of user %d crossed %s level", budgetId, userId, level)
	return n.publisher.Publish(ctx, notification.BudgetAlert{
		UserId:     userId,
		BudgetId:   budgetId,
		CategoryId: insight.CategoryId,
		Spent:      insight.Spent,
		Amount:     insight.Total(),
		Level:      level,
	})
}

func (n *AlertNotifier) crossedLevel(total decimal.Decimal, before decimal.Decimal, after decimal.Decimal) (notification.Level, bool) {
	if after.GreaterThan(total) && !before.GreaterThan(total) {
		return notification.LevelExceeded, true
	}
	warnAt := total.Mul(n.warnThreshold)
	if !after.LessThan(warnAt) && before.LessThan(warnAt) && !after.GreaterThan(total) {
		return notification.LevelWarning, true
	}
	return "", false
}
