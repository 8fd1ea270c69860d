package budget

import (
	"net/http"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/rest"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	Id                   int              `json:"id"`
	CategoryId           int              `json:"categoryId"`
	Amount               decimal.Decimal  `json:"amount"`
	PeriodStart          string           `json:"periodStart"`
	PeriodEnd            string           `json:"periodEnd"`
	RolloverAmount       decimal.Decimal  `json:"rolloverAmount"`
	AllocationPercentage *decimal.Decimal `json:"allocationPercentage"`
	Priority             Priority         `json:"priority"`
}

type CreateBudgetDTO struct {
	BudgetDTO
	AssignExisting bool `json:"assignExisting"`
}

type CreatedBudgetDTO struct {
	BudgetDTO
	AssignedExpenses int    `json:"assignedExpenses"`
	AssignmentError  string `json:"assignmentError,omitempty"`
}

type InsightDTO struct {
	BudgetDTO
	CategoryName string          `json:"categoryName"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	PercentUsed  decimal.Decimal `json:"percentUsed"`
	OverBudget   bool            `json:"overBudget"`
	ExpenseCount int             `json:"expenseCount"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetAll godoc
// @Summary List budgets
// @Tags Budget
// @Produce json
// @Param activeOn query string false "Only budgets covering this day (YYYY-MM-DD)"
// @Success 200 {array} BudgetDTO
// @Router /api/budget [get]
// @Security BearerAuth
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	activeOn, err := activeOnFromQuery(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	budgets, err := h.service.GetAll(r.Context(), activeOn)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]BudgetDTO, 0, len(budgets))
	for _, b := range budgets {
		dtos = append(dtos, budgetToDTO(b))
	}
	rest.WriteData(w, http.StatusOK, dtos)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, budgetToDTO(b))
}

// Create godoc
// @Summary Create a budget
// @Description Optionally links the unassigned expenses of the category and period to the new budget
// @Tags Budget
// @Accept json
// @Produce json
// @Param budget body CreateBudgetDTO true "Budget"
// @Success 201 {object} CreatedBudgetDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid budget"
// @Router /api/budget [post]
// @Security BearerAuth
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new budget")
	var dto CreateBudgetDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := dtoToBudget(dto.BudgetDTO)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), b, dto.AssignExisting)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	result := CreatedBudgetDTO{BudgetDTO: budgetToDTO(created.Budget), AssignedExpenses: created.AssignedExpenses}
	if created.AssignmentError != nil {
		result.AssignmentError = "Budget created, but existing expenses could not be assigned"
	}
	rest.WriteData(w, http.StatusCreated, result)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	var dto BudgetDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	if dto.Id != 0 && dto.Id != id {
		rest.WriteError(w, apperr.Validation("Invalid budget id in request body", map[string]string{"id": "does not match the path"}))
		return
	}
	b, err := dtoToBudget(dto)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	b.Id = id

	updated, err := h.service.Update(r.Context(), b)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, budgetToDTO(updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteNoContent(w)
}

// Insights godoc
// @Summary Spending against budgets
// @Tags Budget
// @Produce json
// @Param activeOn query string false "Only budgets covering this day (YYYY-MM-DD)"
// @Success 200 {array} InsightDTO
// @Router /api/budget/insights [get]
// @Security BearerAuth
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	activeOn, err := activeOnFromQuery(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	insights, err := h.service.Insights(r.Context(), activeOn)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]InsightDTO, 0, len(insights))
	for _, i := range insights {
		dtos = append(dtos, InsightDTO{
			BudgetDTO:    budgetToDTO(i.Budget),
			CategoryName: i.CategoryName,
			Spent:        i.Spent,
			Remaining:    i.Remaining(),
			PercentUsed:  i.PercentUsed(),
			OverBudget:   i.OverBudget(),
			ExpenseCount: i.ExpenseCount,
		})
	}
	rest.WriteData(w, http.StatusOK, dtos)
}

func (h *Handler) AssignExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	assigned, err := h.service.AssignExpenses(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, map[string]int{"assignedExpenses": assigned})
}

func activeOnFromQuery(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("activeOn")
	if raw == "" {
		return nil, nil
	}
	day, err := utils.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid filter", map[string]string{"activeOn": "must be a date in YYYY-MM-DD format"})
	}
	return &day, nil
}

func budgetToDTO(b Budget) BudgetDTO {
	return BudgetDTO{
		Id:                   b.Id,
		CategoryId:           b.CategoryId,
		Amount:               b.Amount,
		PeriodStart:          b.PeriodStart.Format(time.DateOnly),
		PeriodEnd:            b.PeriodEnd.Format(time.DateOnly),
		RolloverAmount:       b.RolloverAmount,
		AllocationPercentage: b.AllocationPercentage,
		Priority:             b.Priority,
	}
}

func dtoToBudget(dto BudgetDTO) (Budget, error) {
	fields := make(map[string]string)
	start, err := utils.ParseDate(dto.PeriodStart)
	if err != nil {
		fields["periodStart"] = "must be a date in YYYY-MM-DD format"
	}
	end, err := utils.ParseDate(dto.PeriodEnd)
	if err != nil {
		fields["periodEnd"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) > 0 {
		return Budget{}, apperr.Validation("Invalid budget", fields)
	}
	return Budget{
		Id:                   dto.Id,
		CategoryId:           dto.CategoryId,
		Amount:               dto.Amount,
		PeriodStart:          start,
		PeriodEnd:            end,
		RolloverAmount:       dto.RolloverAmount,
		AllocationPercentage: dto.AllocationPercentage,
		Priority:             dto.Priority,
	}, nil
}
