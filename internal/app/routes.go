package app

import (
	"net/http"

	"github.com/elmerescandon/financy-v2-sub000/internal/config"
	"github.com/elmerescandon/financy-v2-sub000/internal/rest"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {
	r.NotFoundHandler = rest.NotFoundHandler()
	r.MethodNotAllowedHandler = rest.MethodNotAllowedHandler()

	r.Handle("/api/health", rest.WithMethods(http.MethodGet)(http.HandlerFunc(health)))

	// User
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current/onboarding", deps.UserHandler.CompleteOnboarding).Methods("POST")

	// Categories
	r.HandleFunc("/api/category", deps.CategoryHandler.ListCategories).Methods("GET")
	r.HandleFunc("/api/category", deps.CategoryHandler.CreateCategory).Methods("POST")
	r.HandleFunc("/api/category/suggest", deps.CategoryHandler.Suggest).Methods("POST")
	r.HandleFunc("/api/category/{id:[0-9]+}", deps.CategoryHandler.DeleteCategory).Methods("DELETE")
	r.HandleFunc("/api/category/{id:[0-9]+}/subcategory", deps.CategoryHandler.ListSubcategories).Methods("GET")
	r.HandleFunc("/api/category/{id:[0-9]+}/subcategory", deps.CategoryHandler.CreateSubcategory).Methods("POST")

	// Expenses and incomes
	r.HandleFunc("/api/expense", deps.ExpenseHandler.ListExpenses).Methods("GET")
	r.HandleFunc("/api/expense", deps.ExpenseHandler.CreateExpense).Methods("POST")
	r.HandleFunc("/api/expense/export", deps.ExpenseHandler.Export).Methods("GET")
	r.HandleFunc("/api/expense/{id:[0-9]+}", deps.ExpenseHandler.GetExpense).Methods("GET")
	r.HandleFunc("/api/expense/{id:[0-9]+}", deps.ExpenseHandler.UpdateExpense).Methods("PUT")
	r.HandleFunc("/api/expense/{id:[0-9]+}", deps.ExpenseHandler.DeleteExpense).Methods("DELETE")
	r.HandleFunc("/api/expense/{id:[0-9]+}/reviewed", deps.ExpenseHandler.MarkReviewed).Methods("POST")
	r.HandleFunc("/api/income", deps.ExpenseHandler.ListIncomes).Methods("GET")
	r.HandleFunc("/api/income", deps.ExpenseHandler.CreateIncome).Methods("POST")

	// Budgets
	r.HandleFunc("/api/budget", deps.BudgetHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/budget", deps.BudgetHandler.Create).Methods("POST")
	r.HandleFunc("/api/budget/insights", deps.BudgetHandler.Insights).Methods("GET")
	r.HandleFunc("/api/budget/{id:[0-9]+}", deps.BudgetHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{id:[0-9]+}", deps.BudgetHandler.Update).Methods("PUT")
	r.HandleFunc("/api/budget/{id:[0-9]+}", deps.BudgetHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/budget/{id:[0-9]+}/assign-expenses", deps.BudgetHandler.AssignExpenses).Methods("POST")

	// Budget wizard
	wizardHandler := deps.WizardHandler
	r.HandleFunc("/api/wizard", rest.CreateApiHandler(wizardHandler.Start)).Methods("POST")
	r.HandleFunc("/api/wizard/{id}", rest.CreateApiHandler(wizardHandler.Get)).Methods("GET")
	r.HandleFunc("/api/wizard/{id}", rest.CreateApiHandler(wizardHandler.Discard)).Methods("DELETE")
	r.HandleFunc("/api/wizard/{id}/next", rest.CreateApiHandler(wizardHandler.Next)).Methods("POST")
	r.HandleFunc("/api/wizard/{id}/back", rest.CreateApiHandler(wizardHandler.Back)).Methods("POST")
	r.HandleFunc("/api/wizard/{id}/period", rest.CreateApiHandler(wizardHandler.SetPeriod)).Methods("PUT")
	r.HandleFunc("/api/wizard/{id}/allocation/{categoryId:[0-9]+}", rest.CreateApiHandler(wizardHandler.SetAllocation)).Methods("PUT")
	r.HandleFunc("/api/wizard/{id}/resolution/{categoryId:[0-9]+}", rest.CreateApiHandler(wizardHandler.SetResolution)).Methods("PUT")
	r.HandleFunc("/api/wizard/{id}/confirm", rest.CreateApiHandler(wizardHandler.Confirm)).Methods("POST")
}

func health(w http.ResponseWriter, r *http.Request) {
	rest.WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}
