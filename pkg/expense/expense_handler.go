package expense

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/rest"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/category"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ExpenseDTO struct {
	Id              int               `json:"id"`
	Type            Type              `json:"type"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Description     string            `json:"description"`
	Date            string            `json:"date"`
	CategoryId      int               `json:"categoryId"`
	SubcategoryId   *int              `json:"subcategoryId"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod"`
	Tags            []string          `json:"tags"`
	Source          Source            `json:"source"`
	SourceMetadata  map[string]string `json:"sourceMetadata"`
	ConfidenceScore *decimal.Decimal  `json:"confidenceScore"`
	NeedsReview     bool              `json:"needsReview"`
	BudgetId        *int              `json:"budgetId"`
}

type CreateExpenseDTO struct {
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	Date           string            `json:"date"`
	CategoryId     int               `json:"categoryId"`
	SubcategoryId  *int              `json:"subcategoryId"`
	PaymentMethod  PaymentMethod     `json:"paymentMethod"`
	Tags           []string          `json:"tags"`
	Source         Source            `json:"source"`
	SourceMetadata map[string]string `json:"sourceMetadata"`
	Autocategorize bool              `json:"autocategorize"`
}

type UpdateExpenseDTO struct {
	Amount        *decimal.Decimal `json:"amount"`
	Currency      *string          `json:"currency"`
	Description   *string          `json:"description"`
	Date          *string          `json:"date"`
	CategoryId    *int             `json:"categoryId"`
	SubcategoryId *int             `json:"subcategoryId"`
	PaymentMethod *PaymentMethod   `json:"paymentMethod"`
	Tags          *[]string        `json:"tags"`
}

// CategoryLister resolves category names for exports.
type CategoryLister interface {
	ListCategories(ctx context.Context, categoryType *category.Type) ([]category.Category, error)
}

type Handler struct {
	service    Service
	categories CategoryLister
	renderer   *CsvRendererImpl
	clock      utils.Clock
}

func NewHandler(service Service, categories CategoryLister, renderer *CsvRendererImpl, clock utils.Clock) *Handler {
	return &Handler{service: service, categories: categories, renderer: renderer, clock: clock}
}

// ListExpenses godoc
// @Summary List expenses
// @Tags Expense
// @Produce json
// @Param range query string false "all, this_month, prev_month, last_3_months or this_year"
// @Param categoryId query int false "Category"
// @Param needsReview query bool false "Only auto-categorized expenses waiting for review"
// @Success 200 {array} ExpenseDTO
// @Router /api/expense [get]
// @Security BearerAuth
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, TypeExpense)
}

// ListIncomes godoc
// @Summary List incomes
// @Tags Income
// @Produce json
// @Success 200 {array} ExpenseDTO
// @Router /api/income [get]
// @Security BearerAuth
func (h *Handler) ListIncomes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, TypeIncome)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, expenseType Type) {
	log.Tracef("Listing %s", expenseType)
	filter, err := filterFromQuery(r, expenseType)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	expenses, err := h.service.List(r.Context(), filter)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]ExpenseDTO, 0, len(expenses))
	for _, e := range expenses {
		dtos = append(dtos, expenseToDTO(e))
	}
	rest.WriteData(w, http.StatusOK, dtos)
}

// CreateExpense godoc
// @Summary Create an expense
// @Tags Expense
// @Accept json
// @Produce json
// @Param expense body CreateExpenseDTO true "Expense"
// @Success 201 {object} ExpenseDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid expense"
// @Router /api/expense [post]
// @Security BearerAuth
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, TypeExpense)
}

// CreateIncome godoc
// @Summary Create an income
// @Tags Income
// @Accept json
// @Produce json
// @Param income body CreateExpenseDTO true "Income"
// @Success 201 {object} ExpenseDTO
// @Router /api/income [post]
// @Security BearerAuth
func (h *Handler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, TypeIncome)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, expenseType Type) {
	var dto CreateExpenseDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("Creating %s: %+v", expenseType, dto)

	e, err := dtoToExpense(dto, expenseType)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), e, dto.Autocategorize)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusCreated, expenseToDTO(created))
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, expenseToDTO(e))
}

// UpdateExpense godoc
// @Summary Update an expense or income
// @Description Only the fields present are changed. Changing the category clears the subcategory unless one is given.
// @Tags Expense
// @Accept json
// @Produce json
// @Param id path int true "Expense id"
// @Param expense body UpdateExpenseDTO true "Changes"
// @Success 200 {object} ExpenseDTO
// @Router /api/expense/{id} [put]
// @Security BearerAuth
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	var dto UpdateExpenseDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("Updating expense %d", id)

	changes, err := dtoToChanges(dto)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, changes)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, expenseToDTO(updated))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("Deleting expense %d", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteNoContent(w)
}

func (h *Handler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "id")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	e, err := h.service.MarkReviewed(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, expenseToDTO(e))
}

// Export godoc
// @Summary Export expenses and incomes as CSV
// @Tags Expense
// @Produce text/csv
// @Param range query string false "Date range"
// @Success 200 {string} string "CSV"
// @Router /api/expense/export [get]
// @Security BearerAuth
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r, "")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	expenses, err := h.service.List(r.Context(), filter)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	categories, err := h.categories.ListCategories(r.Context(), nil)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.Id] = c.Name
	}

	csv, err := h.renderer.Render(expenses, names)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	filename := fmt.Sprintf("expenses-%s.csv", h.clock.Now().Format(time.DateOnly))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write csv: %v", err)
	}
}

// filterFromQuery reads range, categoryId and needsReview. An empty expenseType leaves the type open.
func filterFromQuery(r *http.Request, expenseType Type) (Filter, error) {
	query := r.URL.Query()
	fields := map[string]string{}

	filter := Filter{}
	if expenseType != "" {
		filter.Type = &expenseType
	}
	dateRange, ok := ParseDateRange(query.Get("range"))
	if !ok {
		fields["range"] = "must be one of all, this_month, prev_month, last_3_months, this_year"
	}
	filter.DateRange = dateRange

	if raw := query.Get("categoryId"); raw != "" {
		categoryId, err := strconv.Atoi(raw)
		if err != nil || categoryId <= 0 {
			fields["categoryId"] = "must be a positive integer"
		} else {
			filter.CategoryId = &categoryId
		}
	}
	if raw := query.Get("needsReview"); raw != "" {
		needsReview, err := strconv.ParseBool(raw)
		if err != nil {
			fields["needsReview"] = "must be true or false"
		} else {
			filter.NeedsReview = &needsReview
		}
	}
	if len(fields) > 0 {
		return Filter{}, apperr.Validation("Invalid filter", fields)
	}
	return filter, nil
}

func parseDateField(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date", map[string]string{"date": "must be a date in YYYY-MM-DD format"})
	}
	return date, nil
}

func dtoToExpense(dto CreateExpenseDTO, expenseType Type) (Expense, error) {
	date, err := parseDateField(dto.Date)
	if err != nil {
		return Expense{}, err
	}
	return Expense{
		Type:           expenseType,
		Amount:         dto.Amount,
		Currency:       dto.Currency,
		Description:    dto.Description,
		Date:           date,
		CategoryId:     dto.CategoryId,
		SubcategoryId:  dto.SubcategoryId,
		PaymentMethod:  dto.PaymentMethod,
		Tags:           dto.Tags,
		Source:         dto.Source,
		SourceMetadata: dto.SourceMetadata,
	}, nil
}

func dtoToChanges(dto UpdateExpenseDTO) (Changes, error) {
	changes := Changes{
		Amount:        dto.Amount,
		Currency:      dto.Currency,
		Description:   dto.Description,
		CategoryId:    dto.CategoryId,
		SubcategoryId: dto.SubcategoryId,
		PaymentMethod: dto.PaymentMethod,
		Tags:          dto.Tags,
	}
	if dto.Date != nil {
		date, err := parseDateField(*dto.Date)
		if err != nil {
			return Changes{}, err
		}
		changes.Date = &date
	}
	return changes, nil
}

func expenseToDTO(e Expense) ExpenseDTO {
	return ExpenseDTO{
		Id:              e.Id,
		Type:            e.Type,
		Amount:          e.Amount,
		Currency:        e.Currency,
		Description:     e.Description,
		Date:            e.Date.Format(time.DateOnly),
		CategoryId:      e.CategoryId,
		SubcategoryId:   e.SubcategoryId,
		PaymentMethod:   e.PaymentMethod,
		Tags:            nonNilTags(e.Tags),
		Source:          e.Source,
		SourceMetadata:  nonNilMetadata(e.SourceMetadata),
		ConfidenceScore: e.ConfidenceScore,
		NeedsReview:     e.NeedsReview,
		BudgetId:        e.BudgetId,
	}
}
