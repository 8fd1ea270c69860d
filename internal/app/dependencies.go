package app

import (
	"github.com/elmerescandon/financy-v2-sub000/internal/auth"
	"github.com/elmerescandon/financy-v2-sub000/internal/config"
	"github.com/elmerescandon/financy-v2-sub000/internal/event_bus"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	"github.com/elmerescandon/financy-v2-sub000/pkg/category"
	"github.com/elmerescandon/financy-v2-sub000/pkg/expense"
	"github.com/elmerescandon/financy-v2-sub000/pkg/notification"
	"github.com/elmerescandon/financy-v2-sub000/pkg/user"
	"github.com/elmerescandon/financy-v2-sub000/pkg/wizard"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	AuthTokenValidator *auth.TokenValidator

	UserService user.Service
	UserHandler *user.Handler

	CategoryService *category.ServiceImpl
	CategoryHandler *category.Handler

	ExpenseRepo    expense.Repository
	ExpenseService *expense.ServiceImpl
	ExpenseHandler *expense.Handler

	BudgetRepo    budget.Repository
	BudgetService *budget.ServiceImpl
	BudgetHandler *budget.Handler
	RolloverJob   *budget.RolloverJob

	Publisher         notification.Publisher
	AlertNotifier     *budget.AlertNotifier
	unsubscribeAlerts func()

	WizardStore   *wizard.SessionStore
	WizardService *wizard.ServiceImpl
	WizardHandler *wizard.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.AuthTokenValidator = auth.NewTokenValidator(cfg.Auth.JwtSecret, deps.Clock)

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.CategoryService = category.NewService(category.NewRepository(db), category.NewCategorizer())
	deps.CategoryHandler = category.NewHandler(deps.CategoryService)

	budgetRepo := budget.NewRepository(db)
	deps.BudgetRepo = budgetRepo

	deps.ExpenseRepo = expense.NewRepository(db)
	deps.ExpenseService = expense.NewService(deps.ExpenseRepo, deps.CategoryService, budgetRepo, deps.EventBus, deps.Clock,
		cfg.Categorizer.ReviewThreshold)
	deps.ExpenseHandler = expense.NewHandler(deps.ExpenseService, deps.CategoryService, expense.NewCsvRenderer(), deps.Clock)

	deps.BudgetService = budget.NewService(deps.BudgetRepo, deps.ExpenseService, deps.EventBus)
	deps.BudgetHandler = budget.NewHandler(deps.BudgetService)
	if cfg.Rollover.Enabled {
		deps.RolloverJob = budget.NewRolloverJob(deps.BudgetRepo, deps.Clock, cfg.Rollover.Schedule)
	}

	if cfg.Notifications.Enabled {
		publisher, err := notification.NewAMQPPublisher(cfg.Notifications.AmqpUrl, cfg.Notifications.Queue)
		if err != nil {
			return nil, err
		}
		deps.Publisher = publisher
	} else {
		log.Info("Budget alert notifications disabled, alerts are only logged")
		deps.Publisher = notification.NewLogPublisher()
	}
	deps.AlertNotifier = budget.NewAlertNotifier(deps.BudgetRepo, deps.Publisher, cfg.Notifications.WarnThreshold)
	deps.unsubscribeAlerts = deps.AlertNotifier.Subscribe(deps.EventBus)

	deps.WizardStore = wizard.NewSessionStore(cfg.Wizard.SessionTtl, deps.Clock)
	deps.WizardService = wizard.NewService(deps.WizardStore, deps.ExpenseService, deps.BudgetService, deps.CategoryService,
		deps.Clock, cfg.Wizard.LookbackMonths)
	deps.WizardHandler = wizard.NewHandler(deps.WizardService)

	return deps, nil
}

// Close releases what the dependencies hold outside of the database pool.
func (d *Dependencies) Close() {
	if d.unsubscribeAlerts != nil {
		d.unsubscribeAlerts()
	}
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			log.Warnf("failed to close notification publisher: %v", err)
		}
	}
}
